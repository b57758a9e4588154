package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/latam-scholars/status-cli/internal/captcha"
	"github.com/latam-scholars/status-cli/internal/extract"
	"github.com/latam-scholars/status-cli/internal/model"
	"github.com/latam-scholars/status-cli/internal/resilience"
)

// Tracking form and result page selectors.
const (
	selRegNumber     = "#registrationNumber"
	selEmail         = "#email"
	selCaptchaImage  = "#captcha_pic"
	selCaptchaAnswer = "#adcopy_response"
	selSubmit        = `button[type="submit"]`
	selFormError     = ".alert-error, .error"
)

// captchaWaitMs bounds the challenge visibility check; past it the form is
// assumed to have rendered without a challenge.
const captchaWaitMs = 10_000

// FetcherConfig tunes the per-record fetch loop.
type FetcherConfig struct {
	TrackingURL string
	PageTimeout time.Duration
	MaxAttempts int
	// BaseDelay seeds the exponential backoff between attempts.
	BaseDelay time.Duration
}

// Fetcher runs the tracking workflow for one record at a time: navigate,
// fill, solve the challenge when present, submit, wait, extract. The whole
// sequence retries on navigation/captcha/extraction failures.
type Fetcher struct {
	browser  *Browser
	resolver captcha.Resolver
	cfg      FetcherConfig
}

// NewFetcher creates a Fetcher over a launched Browser.
func NewFetcher(browser *Browser, resolver captcha.Resolver, cfg FetcherConfig) *Fetcher {
	return &Fetcher{browser: browser, resolver: resolver, cfg: cfg}
}

// Fetch retrieves the status for one record. It always returns a Result:
// failures surface in the Error field after retry exhaustion, never as a
// missing record.
func (f *Fetcher) Fetch(ctx context.Context, rec model.Record) model.Result {
	retryCfg := resilience.RetryConfig{
		MaxAttempts:    f.cfg.MaxAttempts,
		InitialBackoff: f.cfg.BaseDelay,
		Multiplier:     1.5,
		OnRetry:        resilience.RetryLogger("fetch", rec.RegNumber),
	}

	res, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (model.Result, error) {
		return f.attempt(ctx, rec)
	})
	if err != nil {
		if resilience.KindOf(err) == resilience.KindInternal {
			zap.L().Error("scrape: unexpected fetch error",
				zap.String("reg_number", rec.RegNumber),
				zap.String("detail", eris.ToString(err, true)),
			)
		}
		res = model.NewResult(rec)
		res.Error = err.Error()
		return res
	}

	res.QueriedAt = time.Now()
	return res
}

// attempt runs one full pass of the tracking workflow on a fresh page. The
// page is torn down on every exit path so no cookies, form state or stale
// challenge leak into the next attempt.
func (f *Fetcher) attempt(ctx context.Context, rec model.Record) (model.Result, error) {
	var zero model.Result

	page, err := f.browser.NewPage(f.cfg.PageTimeout)
	if err != nil {
		return zero, resilience.Classify(resilience.KindNavigation, err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			zap.L().Warn("scrape: close page", zap.Error(err))
		}
	}()

	if _, err := page.Goto(f.cfg.TrackingURL); err != nil {
		return zero, resilience.Classify(resilience.KindNavigation,
			eris.Wrapf(err, "scrape: open tracking form %s", f.cfg.TrackingURL))
	}

	if err := page.Fill(selRegNumber, rec.RegNumber); err != nil {
		return zero, resilience.Classify(resilience.KindNavigation,
			eris.Wrap(err, "scrape: fill registration number"))
	}
	if err := page.Fill(selEmail, rec.Email); err != nil {
		return zero, resilience.Classify(resilience.KindNavigation,
			eris.Wrap(err, "scrape: fill email"))
	}

	if err := f.solveChallenge(ctx, page); err != nil {
		return zero, err
	}

	if err := page.Click(selSubmit); err != nil {
		return zero, resilience.Classify(resilience.KindNavigation,
			eris.Wrap(err, "scrape: submit tracking form"))
	}
	if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	}); err != nil {
		return zero, resilience.Classify(resilience.KindNavigation,
			eris.Wrap(err, "scrape: wait for result page"))
	}

	if err := f.checkSubmission(page); err != nil {
		return zero, err
	}

	html, err := page.Content()
	if err != nil {
		return zero, resilience.Classify(resilience.KindNavigation,
			eris.Wrap(err, "scrape: read result page"))
	}

	return extract.Parse(html, rec)
}

// solveChallenge resolves the access-control challenge when one is
// rendered. A challenge that never becomes visible is valid: the portal
// omits it for some sessions.
func (f *Fetcher) solveChallenge(ctx context.Context, page playwright.Page) error {
	element, err := page.WaitForSelector(selCaptchaImage, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(captchaWaitMs),
	})
	if err != nil || element == nil {
		zap.L().Debug("scrape: no challenge on form, skipping")
		return nil
	}

	image, err := element.Screenshot()
	if err != nil {
		return resilience.Classify(resilience.KindCaptcha,
			eris.Wrap(err, "scrape: capture challenge image"))
	}

	answer, err := f.resolver.Resolve(ctx, image)
	if err != nil {
		return resilience.Classify(resilience.KindCaptcha, err)
	}

	if err := page.Fill(selCaptchaAnswer, answer); err != nil {
		return resilience.Classify(resilience.KindCaptcha,
			eris.Wrap(err, "scrape: fill challenge answer"))
	}
	return nil
}

// checkSubmission verifies the form actually navigated to a result page;
// a rejected submission re-renders the form with a validation banner.
func (f *Fetcher) checkSubmission(page playwright.Page) error {
	if strings.Contains(page.URL(), "/tracking/") {
		return nil
	}

	banner, err := page.QuerySelector(selFormError)
	if err == nil && banner != nil {
		if text, terr := banner.InnerText(); terr == nil && strings.TrimSpace(text) != "" {
			return resilience.Classify(resilience.KindNavigation,
				eris.Errorf("scrape: form rejected: %s", strings.TrimSpace(text)))
		}
	}
	return resilience.Classify(resilience.KindNavigation,
		eris.New("scrape: submission did not reach the result page"))
}
