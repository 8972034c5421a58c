package domain

// TaskState is the lifecycle state of a matching task. Transitions are
// one-directional: Pending -> Processing -> Done | Failed. Done and Failed
// are terminal.
type TaskState string

const (
	TaskPending    TaskState = "pending"
	TaskProcessing TaskState = "processing"
	TaskDone       TaskState = "done"
	TaskFailed     TaskState = "failed"
)

// Terminal reports whether no further mutation of the task is permitted.
func (s TaskState) Terminal() bool {
	return s == TaskDone || s == TaskFailed
}

// Totals are the running counters of a task. The invariant
// Tokens == HitHinban + HitSpec + Fail holds at every committed point.
type Totals struct {
	Tokens    int `json:"tokens"`
	HitHinban int `json:"hit_hinban"`
	HitSpec   int `json:"hit_spec"`
	Fail      int `json:"fail"`
}

// PageFailure records a page whose text could not be extracted. The page
// contributed no tokens but did not abort the task.
type PageFailure struct {
	PDFName string `json:"pdf_name"`
	Page    int    `json:"page"`
	Reason  string `json:"reason"`
}

// TaskStatus is a consistent point-in-time snapshot of a task, safe to read
// while the pipeline is still running.
type TaskStatus struct {
	State        TaskState     `json:"state"`
	Progress     int           `json:"progress"` // 0-100, non-decreasing
	Totals       Totals        `json:"totals"`
	PageCount    int           `json:"pages"`
	PageFailures []PageFailure `json:"page_failures,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// PDFFile is one uploaded document handed to the pipeline.
type PDFFile struct {
	Name string
	Data []byte
}
