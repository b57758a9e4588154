package resilience

import "errors"

// Kind classifies a pipeline failure for retry decisions and reporting.
type Kind string

const (
	// KindBrowser covers browser/driver startup failures. Fatal for the
	// whole run.
	KindBrowser Kind = "browser"
	// KindNavigation covers page loads, form submission rejections and
	// validation-error banners. Retryable.
	KindNavigation Kind = "navigation"
	// KindCaptcha covers challenge detection and solving failures. Retryable.
	KindCaptcha Kind = "captcha"
	// KindExtraction covers result pages that explicitly signal an error
	// banner. Retryable.
	KindExtraction Kind = "extraction"
	// KindInternal covers everything unclassified. Never retried.
	KindInternal Kind = "internal"
)

// Classified tags an error with a failure Kind.
type Classified struct {
	Kind Kind
	Err  error
}

func (e *Classified) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Classified) Unwrap() error {
	return e.Err
}

// Classify wraps err with the given kind. Returns nil for a nil error.
func Classify(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Classified{Kind: kind, Err: err}
}

// KindOf returns the Kind of the first Classified error in the chain,
// or KindInternal when the error carries no classification.
func KindOf(err error) Kind {
	var c *Classified
	if errors.As(err, &c) {
		return c.Kind
	}
	return KindInternal
}

// Retryable reports whether re-attempting the failed operation is expected
// to sometimes succeed. Only navigation, captcha and extraction failures
// qualify; browser-init and unclassified errors terminate immediately.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindNavigation, KindCaptcha, KindExtraction:
		return true
	default:
		return false
	}
}
