package service

import (
	"fmt"

	"github.com/google/uuid"

	"invoice-crossref/internal/domain"
)

// TaskManager owns the task registry and drives the per-task pipeline:
// extraction, tokenization, matching and aggregation across all pages of all
// uploaded PDFs. Implements domain.TaskService.
type TaskManager struct {
	registry   *TaskRegistry
	matcher    *Matcher
	extractor  domain.PageExtractor
	logger     domain.Logger
	workers    int
	retryLimit int
}

// NewTaskManager wires the pipeline dependencies. workers bounds page
// parallelism within a task; retryLimit caps the candidate list returned by
// Retry.
func NewTaskManager(registry *TaskRegistry, matcher *Matcher, extractor domain.PageExtractor, logger domain.Logger, workers, retryLimit int) *TaskManager {
	if workers < 1 {
		workers = 1
	}
	return &TaskManager{
		registry:   registry,
		matcher:    matcher,
		extractor:  extractor,
		logger:     logger,
		workers:    workers,
		retryLimit: retryLimit,
	}
}

// CreateTask builds the catalog index, registers a new task and starts the
// pipeline in the background. A malformed catalog surfaces synchronously as a
// *domain.CatalogLoadError and no task is registered.
func (s *TaskManager) CreateTask(catalogRows [][]string, pdfs []domain.PDFFile) (string, error) {
	index, err := BuildCatalogIndex(catalogRows)
	if err != nil {
		return "", err
	}

	t := &task{
		id:    uuid.New().String(),
		state: domain.TaskPending,
		index: index,
	}
	s.registry.add(t)
	s.logger.Info("task created", "task_id", t.id, "catalog_entries", index.Len(), "pdfs", len(pdfs))

	go s.run(t, pdfs)
	return t.id, nil
}

// pageJob is one unit of work for the page workers. seq is the global page
// sequence across all PDFs in upload order.
type pageJob struct {
	seq     int
	pdfName string
	pdfData []byte
	page    int // 1-based within the PDF
	broken  bool
}

// pageOutcome carries a processed page back to the committing loop. Tokens
// and outcomes are parallel slices in discovery order.
type pageOutcome struct {
	seq        int
	pdfName    string
	page       int
	tokens     []domain.Token
	outcomes   []domain.MatchOutcome
	extractErr error
}

// run executes the pipeline for one task. Pages are processed by a bounded
// worker pool for throughput, then committed strictly in upload/page order
// through a reorder buffer, so the observable result and failure sequences
// stay deterministic.
func (s *TaskManager) run(t *task, pdfs []domain.PDFFile) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task pipeline panicked", fmt.Errorf("%v", r), "task_id", t.id)
			t.fail(fmt.Sprintf("internal pipeline error: %v", r))
		}
	}()

	t.setState(domain.TaskProcessing)

	jobs := s.planPages(pdfs)
	t.setPageCount(len(jobs))
	if len(jobs) == 0 {
		t.finish()
		return
	}

	jobCh := make(chan pageJob)
	outCh := make(chan pageOutcome)

	workers := s.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for i := 0; i < workers; i++ {
		go func() {
			for job := range jobCh {
				outCh <- s.safeProcessPage(t, job)
			}
		}()
	}
	go func() {
		for _, job := range jobs {
			jobCh <- job
		}
		close(jobCh)
	}()

	// Reorder buffer: workers may finish out of order, commits may not.
	pending := make(map[int]pageOutcome)
	next := 0
	for completed := 0; completed < len(jobs); completed++ {
		out := <-outCh
		pending[out.seq] = out
		for {
			o, ready := pending[next]
			if !ready {
				break
			}
			delete(pending, next)
			next++
			s.commitPage(t, o, next)
		}
	}

	t.finish()
	status := t.snapshotStatus()
	s.logger.Info("task done", "task_id", t.id,
		"tokens", status.Totals.Tokens,
		"hit_hinban", status.Totals.HitHinban,
		"hit_spec", status.Totals.HitSpec,
		"fail", status.Totals.Fail,
		"page_failures", len(status.PageFailures))
}

// planPages enumerates every page of every PDF in upload order. A document
// whose page count cannot be read contributes a single broken page, so the
// upload stays visible in progress and diagnostics.
func (s *TaskManager) planPages(pdfs []domain.PDFFile) []pageJob {
	var jobs []pageJob
	seq := 0
	for _, pdf := range pdfs {
		count, err := s.extractor.PageCount(pdf.Data)
		if err != nil || count == 0 {
			if err != nil {
				s.logger.Warn("unreadable PDF", "pdf", pdf.Name, "error", err)
			}
			jobs = append(jobs, pageJob{seq: seq, pdfName: pdf.Name, page: 1, broken: true})
			seq++
			continue
		}
		for p := 1; p <= count; p++ {
			jobs = append(jobs, pageJob{seq: seq, pdfName: pdf.Name, pdfData: pdf.Data, page: p})
			seq++
		}
	}
	return jobs
}

// safeProcessPage shields the worker pool from a panicking extractor: the
// page degrades to an extraction failure instead of killing the task.
func (s *TaskManager) safeProcessPage(t *task, job pageJob) (out pageOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = pageOutcome{
				seq:        job.seq,
				pdfName:    job.pdfName,
				page:       job.page,
				extractErr: fmt.Errorf("page processing panicked: %v", r),
			}
		}
	}()
	return s.processPage(t, job)
}

// processPage extracts and classifies one page. Runs on a worker goroutine;
// touches only the read-only catalog index, never the task's mutable state.
func (s *TaskManager) processPage(t *task, job pageJob) pageOutcome {
	out := pageOutcome{seq: job.seq, pdfName: job.pdfName, page: job.page}
	if job.broken {
		out.extractErr = fmt.Errorf("document could not be opened")
		return out
	}

	text, usedFallback, err := s.extractor.ExtractPage(job.pdfData, job.page-1)
	if err != nil {
		out.extractErr = err
		return out
	}
	if usedFallback {
		s.logger.Warn("thin text layer, OCR fallback advised", "pdf", job.pdfName, "page", job.page)
	}

	out.tokens = ExtractTokens(text, job.pdfName, job.page)
	out.outcomes = make([]domain.MatchOutcome, len(out.tokens))
	for i, token := range out.tokens {
		out.outcomes[i] = s.matcher.Classify(token, t.index)
	}
	return out
}

// commitPage commits one page's outcomes in order and advances progress.
// Extraction failures are absorbed here: the page contributes zero tokens,
// is recorded in the diagnostics, and the task continues.
func (s *TaskManager) commitPage(t *task, out pageOutcome, committedPages int) {
	if out.extractErr != nil {
		s.logger.Warn("page extraction failed", "task_id", t.id, "pdf", out.pdfName, "page", out.page, "error", out.extractErr)
		t.recordPageFailure(out.pdfName, out.page, out.extractErr.Error())
	}
	for i, token := range out.tokens {
		t.commit(token, out.outcomes[i])
	}
	t.pageDone(committedPages)
}

// GetStatus returns a consistent snapshot of progress, totals, page count and
// per-page diagnostics.
func (s *TaskManager) GetStatus(taskID string) (*domain.TaskStatus, error) {
	t, err := s.registry.get(taskID)
	if err != nil {
		return nil, err
	}
	return t.snapshotStatus(), nil
}

// GetResults returns the committed result sequence in discovery order.
func (s *TaskManager) GetResults(taskID string) ([]domain.MatchResult, error) {
	t, err := s.registry.get(taskID)
	if err != nil {
		return nil, err
	}
	if t.snapshotStatus().State == domain.TaskFailed {
		return nil, domain.ErrTaskFailed
	}
	return t.snapshotResults(), nil
}

// GetFailures returns the committed failure sequence in discovery order.
func (s *TaskManager) GetFailures(taskID string) ([]domain.FailureRecord, error) {
	t, err := s.registry.get(taskID)
	if err != nil {
		return nil, err
	}
	if t.snapshotStatus().State == domain.TaskFailed {
		return nil, domain.ErrTaskFailed
	}
	return t.snapshotFailures(), nil
}

// Retry re-runs matching for one corrected token in candidate mode against
// the task's catalog index. Idempotent and a pure read: committed results are
// never touched.
func (s *TaskManager) Retry(taskID, token string) ([]string, error) {
	t, err := s.registry.get(taskID)
	if err != nil {
		return nil, err
	}
	return s.matcher.Candidates(Normalize(token), t.index, s.retryLimit), nil
}
