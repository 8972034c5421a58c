package domain

import "time"

// PageExtractor is the narrow capability the pipeline depends on for reading
// page text out of a PDF. Any concrete engine (text layer, optical
// recognition, hybrid) satisfies it; the pipeline never knows which.
type PageExtractor interface {
	// PageCount returns the number of pages in the document.
	PageCount(pdf []byte) (int, error)

	// ExtractPage returns the text of one page (0-based index). usedFallback
	// signals that the text layer was too thin to trust and a fallback engine
	// would be needed for full fidelity.
	ExtractPage(pdf []byte, pageIndex int) (text string, usedFallback bool, err error)
}

// TaskService is the operation surface consumed by the transport layer.
type TaskService interface {
	// CreateTask builds the catalog index, registers a task and starts the
	// pipeline in the background. Returns a *CatalogLoadError without
	// registering anything when the catalog is malformed.
	CreateTask(catalogRows [][]string, pdfs []PDFFile) (string, error)

	GetStatus(taskID string) (*TaskStatus, error)
	GetResults(taskID string) ([]MatchResult, error)
	GetFailures(taskID string) ([]FailureRecord, error)

	// Retry re-runs matching for one corrected token and returns ranked
	// candidate product codes. Pure read: committed results are untouched.
	Retry(taskID, token string) ([]string, error)
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetMaxFileSize() int64
	GetLogLevel() string
	GetSpecMatchThreshold() float64
	GetRetryCandidateLimit() int
	GetPageWorkers() int
	GetPageTimeout() time.Duration
}
