package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTaskFailed   = errors.New("task failed")
)

// CatalogLoadError reports a malformed reference catalog. It is fatal at task
// creation: no task is registered when it is returned.
type CatalogLoadError struct {
	Reason string
	Cause  error
}

func (e *CatalogLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("catalog load: %s: %v", e.Reason, e.Cause)
	}
	return "catalog load: " + e.Reason
}

func (e *CatalogLoadError) Unwrap() error {
	return e.Cause
}

// ExtractionError reports a single page whose text could not be obtained.
// The pipeline treats it as recoverable: the page contributes no tokens and
// the task continues.
type ExtractionError struct {
	Page  int // 0-based page index handed to the extractor
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract page %d: %v", e.Page, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
