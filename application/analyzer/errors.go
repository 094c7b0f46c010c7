package analyzer

import (
	"errors"
	"fmt"
)

// ErrInvalidURL is returned before any browser work when the target is not
// an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid url")

// FailureKind classifies why an analysis failed. Callers outside this
// package are only expected to distinguish failure from success.
type FailureKind string

const (
	FailureNavigation FailureKind = "navigation"
	FailureScript     FailureKind = "script"
	FailureResource   FailureKind = "resource"
	FailureTimeout    FailureKind = "timeout"
)

// AnalysisError wraps the cause of a failed analysis.
type AnalysisError struct {
	Kind FailureKind
	URL  string
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis of %s failed (%s): %v", e.URL, e.Kind, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or "" if err is not an
// AnalysisError.
func KindOf(err error) FailureKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
