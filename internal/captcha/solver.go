// Package captcha resolves image challenges through an ordered cascade of
// solving strategies: remote service, local OCR ensemble, operator prompt.
package captcha

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// MinAnswerLength is the shortest answer the portal ever issues; anything
// shorter is treated as a recognition failure.
const MinAnswerLength = 4

// ErrUnresolved is returned when every configured strategy has failed or
// produced an answer shorter than MinAnswerLength.
var ErrUnresolved = eris.New("captcha: all strategies exhausted")

// Solver produces a candidate answer for a challenge image.
type Solver interface {
	Solve(ctx context.Context, image []byte) (string, error)
	Name() string
}

// Resolver is the engine-level contract consumed by the fetch pipeline.
type Resolver interface {
	Resolve(ctx context.Context, image []byte) (string, error)
}

// Engine tries solvers in priority order, returning the first answer of
// acceptable length.
type Engine struct {
	solvers []Solver
}

// NewEngine creates an Engine with the given solvers. Solvers are tried in
// order; the first answer with at least MinAnswerLength characters wins.
func NewEngine(solvers ...Solver) *Engine {
	return &Engine{solvers: solvers}
}

// Resolve runs the cascade for one challenge image.
func (e *Engine) Resolve(ctx context.Context, image []byte) (string, error) {
	var lastErr error
	for _, s := range e.solvers {
		answer, err := s.Solve(ctx, image)
		if err != nil {
			zap.L().Debug("captcha: solver failed, trying next",
				zap.String("solver", s.Name()),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		if len(answer) < MinAnswerLength {
			zap.L().Debug("captcha: answer too short, trying next",
				zap.String("solver", s.Name()),
				zap.Int("length", len(answer)),
			)
			continue
		}
		zap.L().Info("captcha: challenge resolved",
			zap.String("solver", s.Name()),
			zap.Int("length", len(answer)),
		)
		return answer, nil
	}
	if lastErr != nil {
		return "", eris.Wrap(lastErr, "captcha: all strategies exhausted")
	}
	return "", ErrUnresolved
}
