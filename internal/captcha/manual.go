package captcha

import (
	"bytes"
	"context"

	"github.com/disintegration/imaging"
	"github.com/rotisserie/eris"
)

// Prompter presents a challenge image to an operator and blocks until text
// is entered or the prompt is dismissed. Implemented by the CLI; the solve
// pipeline only depends on this contract.
type Prompter interface {
	Prompt(ctx context.Context, png []byte) (string, error)
}

// PromptSolver is the human-in-the-loop fallback at the end of the cascade.
type PromptSolver struct {
	prompter Prompter
}

// NewPromptSolver wraps a Prompter as a cascade Solver.
func NewPromptSolver(p Prompter) *PromptSolver {
	return &PromptSolver{prompter: p}
}

func (s *PromptSolver) Name() string { return "manual" }

// Solve scales the image 2x for legibility and hands it to the operator.
// Empty input counts as a failure.
func (s *PromptSolver) Solve(ctx context.Context, image []byte) (string, error) {
	scaled, err := scale2x(image)
	if err != nil {
		// Fall back to the raw image rather than losing the prompt.
		scaled = image
	}

	answer, err := s.prompter.Prompt(ctx, scaled)
	if err != nil {
		return "", eris.Wrap(err, "captcha: manual prompt")
	}
	if answer == "" {
		return "", eris.New("captcha: manual prompt dismissed")
	}
	return answer, nil
}

func scale2x(png []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(png))
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	out := imaging.Resize(src, b.Dx()*2, b.Dy()*2, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
