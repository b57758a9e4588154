package captcha

import (
	"bytes"
	"context"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// charWhitelist restricts recognition to the portal's challenge alphabet.
const charWhitelist = "abcdefghijklmnopqrstuvwxyz"

// ocrConfig is one tesseract invocation profile. psm 7/8 assume a single
// line/word, psm 6 a uniform block, psm 13 drops layout analysis entirely.
type ocrConfig struct {
	name string
	psm  string
}

func ocrConfigs() []ocrConfig {
	return []ocrConfig{
		{name: "psm7", psm: "7"},
		{name: "psm8", psm: "8"},
		{name: "psm6", psm: "6"},
		{name: "psm13", psm: "13"},
	}
}

// Runner executes an external command. Abstracted so tests can fake the
// tesseract binary.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// Recognition is one (variant, config) recognition outcome, kept for the
// diagnostics log.
type Recognition struct {
	Variant string
	Config  string
	Text    string
}

// OCREnsemble recognizes challenge text by fanning the image out over
// every preprocessing variant × tesseract configuration and picking the
// most plausible candidate.
type OCREnsemble struct {
	tesseract string
	runner    Runner
	diag      *Diagnostics
}

// NewOCREnsemble creates the ensemble solver. tesseractPath may be empty to
// use the binary from PATH; diag may be nil to disable artifact capture.
func NewOCREnsemble(tesseractPath string, diag *Diagnostics) *OCREnsemble {
	if tesseractPath == "" {
		tesseractPath = "tesseract"
	}
	return &OCREnsemble{
		tesseract: tesseractPath,
		runner:    execRunner{},
		diag:      diag,
	}
}

func (o *OCREnsemble) Name() string { return "ocr-ensemble" }

// Solve preprocesses the image into independent variants, recognizes each
// under every configuration, and returns the best candidate: any result of
// typical challenge length (5-6 characters) wins, otherwise the first
// acceptable result in evaluation order.
func (o *OCREnsemble) Solve(ctx context.Context, imageBytes []byte) (string, error) {
	src, err := imaging.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return "", eris.Wrap(err, "captcha: decode challenge image")
	}

	challengeID := o.diag.Begin(imageBytes)

	variants := Variants()
	processed := make([]image.Image, len(variants))
	for i, v := range variants {
		processed[i] = v.Apply(src)
		o.diag.SaveVariant(challengeID, variants[i].Name, processed[i])
	}

	tmpDir, err := os.MkdirTemp("", "captcha-ocr-*")
	if err != nil {
		return "", eris.Wrap(err, "captcha: create temp dir")
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck

	paths := make([]string, len(variants))
	for i, v := range variants {
		p := filepath.Join(tmpDir, v.Name+".png")
		if err := imaging.Save(processed[i], p); err != nil {
			return "", eris.Wrapf(err, "captcha: save variant %s", v.Name)
		}
		paths[i] = p
	}

	configs := ocrConfigs()

	// Recognition is CPU-bound subprocess work; fan out with a bounded
	// group but keep results in deterministic evaluation order.
	results := make([]Recognition, len(variants)*len(configs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for vi, v := range variants {
		for ci, c := range configs {
			idx := vi*len(configs) + ci
			path := paths[vi]
			variantName := v.Name
			cfg := c
			g.Go(func() error {
				text := o.recognize(gCtx, path, cfg)
				results[idx] = Recognition{Variant: variantName, Config: cfg.name, Text: text}
				return nil
			})
		}
	}
	_ = g.Wait()

	o.diag.LogResults(challengeID, results)

	var candidates []Recognition
	for _, r := range results {
		if len(r.Text) >= MinAnswerLength {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return "", eris.New("captcha: no variant produced a usable recognition")
	}

	// Challenges are typically 5-6 characters; prefer candidates in that
	// band over shorter or longer ones that happened to come first.
	for _, c := range candidates {
		if len(c.Text) >= 5 && len(c.Text) <= 6 {
			zap.L().Debug("captcha: selected ideal-length candidate",
				zap.String("variant", c.Variant),
				zap.String("config", c.Config),
			)
			return c.Text, nil
		}
	}

	best := candidates[0]
	zap.L().Debug("captcha: selected first acceptable candidate",
		zap.String("variant", best.Variant),
		zap.String("config", best.Config),
	)
	return best.Text, nil
}

// recognize runs one tesseract invocation. Failures degrade to an empty
// result; the ensemble tolerates individual misses.
func (o *OCREnsemble) recognize(ctx context.Context, path string, cfg ocrConfig) string {
	args := []string{
		path, "stdout",
		"--psm", cfg.psm,
		"--oem", "3",
		"-c", "tessedit_char_whitelist=" + charWhitelist,
	}
	out, errb, err := o.runner.Run(ctx, o.tesseract, args...)
	if err != nil {
		zap.L().Debug("captcha: tesseract invocation failed",
			zap.String("config", cfg.name),
			zap.String("stderr", string(errb)),
			zap.Error(err),
		)
		return ""
	}
	return cleanRecognition(string(out))
}

// cleanRecognition strips everything outside the challenge alphabet and
// lowercases what remains.
func cleanRecognition(text string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
