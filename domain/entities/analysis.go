package entities

import "time"

// AnalysisResult is produced once per analysis request and is not mutated
// afterwards.
type AnalysisResult struct {
	URL        string
	Root       *VisualNode
	Screenshot []byte // full-page PNG
	AnalyzedAt time.Time
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	URL string `json:"url" binding:"required"`
}

// AnalyzeResponse is the success body of POST /api/analyze.
type AnalyzeResponse struct {
	VipsModel  *VisualNode `json:"vipsModel"`
	Screenshot string      `json:"screenshot"` // base64 PNG
}

// ErrorResponse is the failure body returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}
