package interfaces

import "context"

// TargetPolicy decides whether a URL may be loaded at all.
type TargetPolicy interface {
	// Check returns an error if the URL must not be analyzed
	Check(ctx context.Context, url string) error
}
