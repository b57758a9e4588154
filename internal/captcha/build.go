package captcha

import (
	"go.uber.org/zap"

	"github.com/latam-scholars/status-cli/internal/config"
	"github.com/latam-scholars/status-cli/pkg/twocaptcha"
)

// NewFromConfig assembles the resolution cascade from configuration and
// wraps it in the content-hash answer cache. Strategy order: remote service
// (when a credential is set), OCR ensemble, operator prompt (unless
// disabled). ManualOnly keeps only the prompt.
func NewFromConfig(cfg config.CaptchaConfig, prompter Prompter) Resolver {
	var solvers []Solver

	manual := cfg.ManualEnabled && prompter != nil

	if cfg.ManualOnly {
		if manual {
			solvers = append(solvers, NewPromptSolver(prompter))
			zap.L().Info("captcha: manual-only mode, automated strategies skipped")
		} else {
			zap.L().Warn("captcha: manual-only mode with the operator prompt disabled; challenges will fail")
		}
		return NewCache(NewEngine(solvers...))
	}

	if cfg.TwoCaptchaKey != "" {
		solvers = append(solvers, NewRemoteSolver(twocaptcha.NewClient(cfg.TwoCaptchaKey)))
	}

	var diag *Diagnostics
	if cfg.DiagnosticsDir != "" {
		diag = NewDiagnostics(cfg.DiagnosticsDir)
	}
	solvers = append(solvers, NewOCREnsemble(cfg.TesseractPath, diag))

	if manual {
		solvers = append(solvers, NewPromptSolver(prompter))
	}

	return NewCache(NewEngine(solvers...))
}
