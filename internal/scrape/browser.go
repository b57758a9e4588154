// Package scrape drives a browser session through the portal's tracking
// form: navigation, form fill, challenge resolution, submission and result
// extraction, with per-record retries.
package scrape

import (
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/latam-scholars/status-cli/internal/config"
	"github.com/latam-scholars/status-cli/internal/resilience"
)

// One desktop profile for the whole run; the portal rejects obviously
// headless user agents.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Browser owns the playwright driver, one browser process and one browsing
// context, shared across all records in a batch. Each record gets a fresh
// page from NewPage.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
}

// Launch starts the driver and the configured browser engine. Failures
// here are fatal for the whole run (resilience.KindBrowser).
func Launch(cfg config.BrowserConfig) (*Browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, resilience.Classify(resilience.KindBrowser,
			eris.Wrap(err, "scrape: start playwright driver"))
	}

	var engine playwright.BrowserType
	switch cfg.Engine {
	case "chromium", "":
		engine = pw.Chromium
	case "firefox":
		engine = pw.Firefox
	case "webkit":
		engine = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, resilience.Classify(resilience.KindBrowser,
			eris.Errorf("scrape: unsupported browser engine %q", cfg.Engine))
	}

	zap.L().Info("scrape: launching browser",
		zap.String("engine", cfg.Engine),
		zap.Bool("headless", cfg.Headless),
	)

	browser, err := engine.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     []string{"--disable-dev-shm-usage"},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, resilience.Classify(resilience.KindBrowser,
			eris.Wrap(err, "scrape: launch browser"))
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport:  &playwright.Size{Width: 1280, Height: 800},
		UserAgent: playwright.String(userAgent),
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, resilience.Classify(resilience.KindBrowser,
			eris.Wrap(err, "scrape: create browser context"))
	}

	return &Browser{pw: pw, browser: browser, context: context}, nil
}

// NewPage opens a fresh page owned exclusively by one fetch attempt.
func (b *Browser) NewPage(timeout time.Duration) (playwright.Page, error) {
	page, err := b.context.NewPage()
	if err != nil {
		return nil, eris.Wrap(err, "scrape: open page")
	}
	page.SetDefaultTimeout(float64(timeout.Milliseconds()))
	return page, nil
}

// Close tears down the context, the browser and the driver.
func (b *Browser) Close() {
	if b.context != nil {
		if err := b.context.Close(); err != nil {
			zap.L().Warn("scrape: close browser context", zap.Error(err))
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			zap.L().Warn("scrape: close browser", zap.Error(err))
		}
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			zap.L().Warn("scrape: stop playwright driver", zap.Error(err))
		}
	}
}
