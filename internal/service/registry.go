package service

import (
	"sync"

	"invoice-crossref/internal/domain"
)

// task is the process-lifetime state of one matching run. All mutable fields
// are guarded by mu; the catalog index is read-only after construction and
// shared freely with concurrent matching operations.
type task struct {
	mu sync.RWMutex

	id           string
	state        domain.TaskState
	progress     int // 0-100, non-decreasing
	pageCount    int
	totals       domain.Totals
	results      []domain.MatchResult
	failures     []domain.FailureRecord
	pageFailures []domain.PageFailure
	errMsg       string

	index *CatalogIndex
}

// setState advances the lifecycle. Terminal states are frozen; a transition
// out of them is ignored.
func (t *task) setState(s domain.TaskState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return
	}
	t.state = s
}

func (t *task) setPageCount(n int) {
	t.mu.Lock()
	t.pageCount = n
	t.mu.Unlock()
}

// commit is the single entry point mutating results, failures and totals. A
// token lands in exactly one of the two sequences; a concurrent status read
// sees the counters before or fully after the commit, never in between.
func (t *task) commit(token domain.Token, outcome domain.MatchOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return
	}
	t.totals.Tokens++
	switch outcome.Kind {
	case domain.OutcomeHinban:
		t.totals.HitHinban++
		t.results = append(t.results, domain.MatchResult{
			PDFName:       token.PDFName,
			Page:          token.Page,
			Token:         token.Raw,
			MatchedType:   domain.MatchTypeHinban,
			MatchedHinban: outcome.Entry.Hinban,
			Zaiko:         outcome.Entry.Zaiko,
		})
	case domain.OutcomeSpec:
		t.totals.HitSpec++
		t.results = append(t.results, domain.MatchResult{
			PDFName:       token.PDFName,
			Page:          token.Page,
			Token:         token.Raw,
			MatchedType:   domain.MatchTypeSpec,
			MatchedHinban: outcome.Entry.Hinban,
			Zaiko:         outcome.Entry.Zaiko,
		})
	default:
		t.totals.Fail++
		t.failures = append(t.failures, domain.FailureRecord{
			PDFName: token.PDFName,
			Page:    token.Page,
			Token:   token.Raw,
		})
	}
}

// recordPageFailure notes a page whose extraction failed. The page still
// counts toward progress.
func (t *task) recordPageFailure(pdfName string, page int, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return
	}
	t.pageFailures = append(t.pageFailures, domain.PageFailure{
		PDFName: pdfName,
		Page:    page,
		Reason:  reason,
	})
}

// pageDone recomputes progress after one more page has been committed.
// Progress never decreases and reaches 100 only through finish or fail.
func (t *task) pageDone(committedPages int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() || t.pageCount == 0 {
		return
	}
	p := committedPages * 100 / t.pageCount
	if p > 99 {
		p = 99
	}
	if p > t.progress {
		t.progress = p
	}
}

// finish moves the task to Done with final totals.
func (t *task) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return
	}
	t.state = domain.TaskDone
	t.progress = 100
}

// fail moves the task to Failed. Committed results are dropped, matching the
// all-or-nothing contract of a failed run.
func (t *task) fail(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return
	}
	t.state = domain.TaskFailed
	t.progress = 100
	t.errMsg = msg
	t.results = nil
	t.failures = nil
}

func (t *task) snapshotStatus() *domain.TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	status := &domain.TaskStatus{
		State:     t.state,
		Progress:  t.progress,
		Totals:    t.totals,
		PageCount: t.pageCount,
		Error:     t.errMsg,
	}
	if len(t.pageFailures) > 0 {
		status.PageFailures = append([]domain.PageFailure(nil), t.pageFailures...)
	}
	return status
}

func (t *task) snapshotResults() []domain.MatchResult {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]domain.MatchResult(nil), t.results...)
}

func (t *task) snapshotFailures() []domain.FailureRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]domain.FailureRecord(nil), t.failures...)
}

// TaskRegistry is the process-wide store of task state. The map is the only
// mutable structure shared across tasks; all access goes through its lock.
// Entries live until process shutdown.
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]*task
}

// NewTaskRegistry creates an empty registry.
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: make(map[string]*task)}
}

func (r *TaskRegistry) add(t *task) {
	r.mu.Lock()
	r.tasks[t.id] = t
	r.mu.Unlock()
}

func (r *TaskRegistry) get(id string) (*task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return t, nil
}

// Len returns the number of registered tasks.
func (r *TaskRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
