package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/sirupsen/logrus"

	"vips_analyzer/domain/entities"
	"vips_analyzer/domain/interfaces"
	"vips_analyzer/infrastructure/config"
)

// networkIdleWindow matches playwright's networkidle: no requests for 500ms.
const networkIdleWindow = 500 * time.Millisecond

// RodDriver drives Chrome over CDP with go-rod. Each session launches its
// own Chrome unless RemoteURL points at an existing one.
type RodDriver struct {
	cfg    config.BrowserConfig
	logger *logrus.Logger
}

// NewRodDriver creates a rod-backed driver.
func NewRodDriver(cfg config.BrowserConfig, logger *logrus.Logger) *RodDriver {
	return &RodDriver{cfg: cfg, logger: logger}
}

// Open launches (or connects to) Chrome and opens a page at the analysis
// viewport.
func (d *RodDriver) Open(ctx context.Context) (interfaces.Session, error) {
	log := d.logger.WithField("driver", config.DriverRod)
	s := &rodSession{cfg: d.cfg}

	wsURL := d.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Context(ctx).Headless(d.cfg.Headless)
		if d.cfg.ExecutablePath != "" {
			l = l.Bin(d.cfg.ExecutablePath)
		}
		l = l.Set("disable-dev-shm-usage")
		for _, arg := range d.cfg.Args {
			name, value, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
			if value == "" {
				l = l.Set(flags.Flag(name))
			} else {
				l = l.Set(flags.Flag(name), value)
			}
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch chrome: %w", err)
		}
		wsURL = u
		s.launcher = l
		s.ownsBrowser = true
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}
	s.browser = b

	if err := b.IgnoreCertErrors(true); err != nil {
		log.WithError(err).Warn("Failed to ignore certificate errors")
	}

	var page *rod.Page
	var err error
	if d.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	s.page = page

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             d.cfg.ViewportWidth,
		Height:            d.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}

	if d.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: d.cfg.UserAgent}); err != nil {
			log.WithError(err).Warn("Failed to set user agent")
		}
	}

	log.Debug("Browser session opened")
	return s, nil
}

// Close is a no-op; rod sessions own their Chrome processes.
func (d *RodDriver) Close() error {
	return nil
}

type rodSession struct {
	cfg         config.BrowserConfig
	launcher    *launcher.Launcher
	browser     *rod.Browser
	page        *rod.Page
	ownsBrowser bool

	closeOnce sync.Once
	closeErr  error
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	p := s.page.Context(navCtx)
	waitIdle := p.WaitRequestIdle(networkIdleWindow, nil, nil, nil)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed waiting for load of %s: %w", url, err)
	}
	waitIdle()
	if err := navCtx.Err(); err != nil {
		return fmt.Errorf("failed waiting for network idle on %s: %w", url, err)
	}
	return settle(ctx, s.cfg.SettleDelay)
}

func (s *rodSession) ExtractPage(ctx context.Context) (*entities.RawPage, error) {
	res, err := s.page.Context(ctx).Eval(walkScript)
	if err != nil {
		return nil, fmt.Errorf("failed to walk DOM: %w", err)
	}
	return DecodePage(res.Value.Val())
}

func (s *rodSession) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := s.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	return data, nil
}

func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		var closeErr error
		if s.page != nil {
			closeErr = joinCloseErr(closeErr, "page", s.page.Close())
		}
		if s.browser != nil && s.ownsBrowser {
			closeErr = joinCloseErr(closeErr, "browser", s.browser.Close())
		}
		if s.launcher != nil {
			s.launcher.Cleanup()
		}
		s.closeErr = closeErr
	})
	return s.closeErr
}
