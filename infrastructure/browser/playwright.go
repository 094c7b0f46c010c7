package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"

	"vips_analyzer/domain/entities"
	"vips_analyzer/domain/interfaces"
	"vips_analyzer/infrastructure/config"
)

// PlaywrightDriver launches a Chromium process per session through
// playwright-go. The playwright runtime itself is shared.
type PlaywrightDriver struct {
	pw     *playwright.Playwright
	cfg    config.BrowserConfig
	logger *logrus.Logger
}

// NewPlaywrightDriver - starts the playwright runtime
func NewPlaywrightDriver(cfg config.BrowserConfig, logger *logrus.Logger) (*PlaywrightDriver, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	return &PlaywrightDriver{pw: pw, cfg: cfg, logger: logger}, nil
}

// Open - launches a browser with a fresh context and page
func (d *PlaywrightDriver) Open(ctx context.Context) (interfaces.Session, error) {
	launchOptions := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(d.cfg.Headless),
		Timeout:  playwright.Float(timeoutMillis(ctx, d.cfg.NavTimeout)),
		Args: append([]string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-setuid-sandbox",
		}, d.cfg.Args...),
	}
	if d.cfg.ExecutablePath != "" {
		launchOptions.ExecutablePath = playwright.String(d.cfg.ExecutablePath)
	}

	var browser playwright.Browser
	var err error
	if d.cfg.RemoteURL != "" {
		browser, err = d.pw.Chromium.Connect(d.cfg.RemoteURL)
	} else {
		browser, err = d.pw.Chromium.Launch(launchOptions)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOptions := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  d.cfg.ViewportWidth,
			Height: d.cfg.ViewportHeight,
		},
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
	}
	if d.cfg.UserAgent != "" {
		contextOptions.UserAgent = playwright.String(d.cfg.UserAgent)
	}

	bctx, err := browser.NewContext(contextOptions)
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	// Dialogs would block the walk.
	page.OnDialog(func(dialog playwright.Dialog) {
		dialog.Dismiss()
	})

	d.logger.WithField("driver", config.DriverPlaywright).Debug("Browser session opened")

	return &playwrightSession{
		browser: browser,
		context: bctx,
		page:    page,
		cfg:     d.cfg,
	}, nil
}

// Close - stops the playwright runtime
func (d *PlaywrightDriver) Close() error {
	if err := d.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

type playwrightSession struct {
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	cfg     config.BrowserConfig

	closeOnce sync.Once
	closeErr  error
}

// Navigate - navigates to the URL and waits for the network to go idle
func (s *playwrightSession) Navigate(ctx context.Context, url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(timeoutMillis(ctx, s.cfg.NavTimeout)),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return settle(ctx, s.cfg.SettleDelay)
}

// ExtractPage - runs the DOM walk in the page
func (s *playwrightSession) ExtractPage(ctx context.Context) (*entities.RawPage, error) {
	result, err := s.page.Evaluate(walkScript)
	if err != nil {
		return nil, fmt.Errorf("failed to walk DOM: %w", err)
	}
	return DecodePage(result)
}

// Screenshot - captures the full scrollable page as PNG
func (s *playwrightSession) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Type:     playwright.ScreenshotTypePng,
		Timeout:  playwright.Float(timeoutMillis(ctx, s.cfg.NavTimeout)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	return data, nil
}

// Close - closes page, context and browser; safe to call repeatedly
func (s *playwrightSession) Close() error {
	s.closeOnce.Do(func() {
		var closeErr error
		closeErr = joinCloseErr(closeErr, "page", s.page.Close())
		closeErr = joinCloseErr(closeErr, "context", s.context.Close())
		closeErr = joinCloseErr(closeErr, "browser", s.browser.Close())
		s.closeErr = closeErr
	})
	return s.closeErr
}
