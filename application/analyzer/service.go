// Package analyzer runs one page analysis per request: it opens an isolated
// browser session, loads the page, walks the DOM, captures the screenshot
// and builds the scored VisualNode tree.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"vips_analyzer/application/extractor"
	"vips_analyzer/domain/entities"
	"vips_analyzer/domain/interfaces"
)

// DefaultTimeout bounds load, walk and screenshot together.
const DefaultTimeout = 60 * time.Second

// Service implements interfaces.Analyzer.
type Service struct {
	driver  interfaces.PageDriver
	store   interfaces.ArtifactStore
	policy  interfaces.TargetPolicy
	logger  *logrus.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewService creates an analyzer. store may be nil to skip the debug
// artifact; a non-positive timeout selects DefaultTimeout.
func NewService(driver interfaces.PageDriver, store interfaces.ArtifactStore, logger *logrus.Logger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		driver:  driver,
		store:   store,
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

var _ interfaces.Analyzer = (*Service)(nil)

// WithPolicy makes the service refuse URLs rejected by p.
func (s *Service) WithPolicy(p interfaces.TargetPolicy) *Service {
	s.policy = p
	return s
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u.String(), nil
}

// Analyze loads rawURL in a fresh session and returns the full tree and
// screenshot, or an error. There are no partial results.
func (s *Service) Analyze(ctx context.Context, rawURL string) (*entities.AnalysisResult, error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}
	if s.policy != nil {
		if err := s.policy.Check(ctx, target); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := s.logger.WithField("url", target)
	started := time.Now()
	log.Info("Starting analysis")

	session, err := s.driver.Open(ctx)
	if err != nil {
		return nil, s.fail(ctx, log, FailureResource, target, fmt.Errorf("failed to open session: %w", err))
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).Warn("Failed to close browser session")
		}
	}()
	// Unblocks driver calls that do not observe ctx themselves.
	stop := context.AfterFunc(ctx, func() { _ = session.Close() })
	defer stop()

	if err := session.Navigate(ctx, target); err != nil {
		return nil, s.fail(ctx, log, FailureNavigation, target, err)
	}

	page, err := session.ExtractPage(ctx)
	if err != nil {
		return nil, s.fail(ctx, log, FailureScript, target, err)
	}

	root, err := extractor.Build(page)
	if err != nil {
		return nil, s.fail(ctx, log, FailureScript, target, err)
	}

	screenshot, err := session.Screenshot(ctx)
	if err != nil {
		return nil, s.fail(ctx, log, FailureResource, target, fmt.Errorf("failed to capture screenshot: %w", err))
	}
	if ctx.Err() != nil {
		return nil, s.fail(ctx, log, FailureTimeout, target, ctx.Err())
	}

	if s.store != nil {
		if err := s.store.SaveModel(root); err != nil {
			log.WithError(err).Warn("Failed to save model artifact")
		}
	}

	log.WithFields(logrus.Fields{
		"nodes":    root.Count(),
		"bytes":    len(screenshot),
		"duration": time.Since(started).Round(time.Millisecond),
	}).Info("Analysis complete")

	return &entities.AnalysisResult{
		URL:        target,
		Root:       root,
		Screenshot: screenshot,
		AnalyzedAt: s.now(),
	}, nil
}

func (s *Service) fail(ctx context.Context, log *logrus.Entry, kind FailureKind, target string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = FailureTimeout
	}
	log.WithError(err).WithField("kind", kind).Error("Analysis failed")
	return &AnalysisError{Kind: kind, URL: target, Err: err}
}
