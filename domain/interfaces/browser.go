package interfaces

import (
	"context"

	"vips_analyzer/domain/entities"
)

// PageDriver starts isolated browser sessions.
type PageDriver interface {
	// Open starts a fresh browser context with the analysis viewport.
	Open(ctx context.Context) (Session, error)

	// Close releases resources shared by all sessions.
	Close() error
}

// Session is one page loaded for one analysis. Close must be safe to call
// more than once and from another goroutine.
type Session interface {
	// Navigate loads the URL and waits for network idle plus the settle delay
	Navigate(ctx context.Context, url string) error

	// ExtractPage runs the DOM walk in the page
	ExtractPage(ctx context.Context) (*entities.RawPage, error)

	// Screenshot captures the full rendered page as PNG
	Screenshot(ctx context.Context) ([]byte, error)

	// Close closes the page, its context and the browser process
	Close() error
}
