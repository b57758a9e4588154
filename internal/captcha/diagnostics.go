package captcha

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Diagnostics persists challenge images, their processed variants and the
// full recognition grid for offline tuning of the OCR ensemble. Every write
// failure is logged and swallowed; diagnostics must never fail a fetch.
// All methods are nil-receiver safe so capture can be disabled by passing
// a nil *Diagnostics.
type Diagnostics struct {
	dir string
}

// NewDiagnostics creates a sink rooted at dir.
func NewDiagnostics(dir string) *Diagnostics {
	return &Diagnostics{dir: dir}
}

// Begin stores the raw challenge image and returns an id tying together
// the artifacts of this challenge.
func (d *Diagnostics) Begin(raw []byte) string {
	id := fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), uuid.NewString()[:8])
	if d == nil {
		return id
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		zap.L().Warn("captcha: create diagnostics dir", zap.Error(err))
		return id
	}

	path := filepath.Join(d.dir, fmt.Sprintf("captcha_%s.png", id))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		zap.L().Warn("captcha: save challenge image", zap.Error(err))
		return id
	}

	zap.L().Debug("captcha: challenge image saved", zap.String("path", path))
	return id
}

// SaveVariant stores one processed variant image.
func (d *Diagnostics) SaveVariant(id, variant string, img image.Image) {
	if d == nil {
		return
	}

	dir := filepath.Join(d.dir, "processed")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		zap.L().Warn("captcha: create processed dir", zap.Error(err))
		return
	}

	path := filepath.Join(dir, fmt.Sprintf("captcha_%s_%s.png", id, variant))
	if err := imaging.Save(img, path); err != nil {
		zap.L().Warn("captcha: save processed variant",
			zap.String("variant", variant),
			zap.Error(err),
		)
	}
}

// LogResults writes the full (variant, config, text) recognition grid for
// one challenge.
func (d *Diagnostics) LogResults(id string, results []Recognition) {
	if d == nil {
		return
	}

	dir := filepath.Join(d.dir, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		zap.L().Warn("captcha: create logs dir", zap.Error(err))
		return
	}

	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("captcha_%s_results.txt", id)))
	if err != nil {
		zap.L().Warn("captcha: create results log", zap.Error(err))
		return
	}
	defer f.Close() //nolint:errcheck

	fmt.Fprintf(f, "OCR results for challenge %s\n\n", id)
	for _, r := range results {
		text := r.Text
		if text == "" {
			text = "[EMPTY]"
		}
		fmt.Fprintf(f, "variant: %s | config: %s | result: %s\n", r.Variant, r.Config, text)
	}
}
