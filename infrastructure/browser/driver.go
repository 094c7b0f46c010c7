// Package browser provides the page drivers that load a URL in a headless
// browser, run the DOM walk and capture a full-page screenshot.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vips_analyzer/domain/interfaces"
	"vips_analyzer/infrastructure/config"
)

// NewDriver returns the driver selected by cfg.Driver.
func NewDriver(cfg config.BrowserConfig, logger *logrus.Logger) (interfaces.PageDriver, error) {
	if !cfg.StandardViewport() {
		logger.WithFields(logrus.Fields{
			"width":  cfg.ViewportWidth,
			"height": cfg.ViewportHeight,
		}).Warnf("Viewport differs from %dx%d; importance scores will not be comparable",
			config.StandardViewportWidth, config.StandardViewportHeight)
	}
	switch cfg.Driver {
	case config.DriverPlaywright, "":
		return NewPlaywrightDriver(cfg, logger)
	case config.DriverRod:
		return NewRodDriver(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown browser driver %q", cfg.Driver)
	}
}

// settle waits for late layout changes after network idle.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// timeoutMillis returns the time left before ctx's deadline in
// milliseconds, capped at fallback.
func timeoutMillis(ctx context.Context, fallback time.Duration) float64 {
	d := fallback
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d {
			d = left
		}
	}
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return float64(d.Milliseconds())
}

// isClosedErr reports errors raised when closing something already gone.
func isClosedErr(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "closed") || strings.Contains(errStr, "target closed")
}

// joinCloseErr appends err to prev unless it only says the target is closed.
func joinCloseErr(prev error, what string, err error) error {
	if err == nil || isClosedErr(err) {
		return prev
	}
	if prev != nil {
		return fmt.Errorf("%v; failed to close %s: %w", prev, what, err)
	}
	return fmt.Errorf("failed to close %s: %w", what, err)
}
