package interfaces

import (
	"context"

	"vips_analyzer/domain/entities"
)

// Analyzer turns a URL into an AnalysisResult.
type Analyzer interface {
	Analyze(ctx context.Context, url string) (*entities.AnalysisResult, error)
}
