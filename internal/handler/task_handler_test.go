package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"invoice-crossref/internal/domain"
	"invoice-crossref/internal/service"
)

// Mock implementations for handler testing
type MockTaskService struct {
	statuses  map[string]*domain.TaskStatus
	results   map[string][]domain.MatchResult
	failures  map[string][]domain.FailureRecord
	createErr error
	lastRows  [][]string
	lastPDFs  []domain.PDFFile
}

func NewMockTaskService() *MockTaskService {
	return &MockTaskService{
		statuses: make(map[string]*domain.TaskStatus),
		results:  make(map[string][]domain.MatchResult),
		failures: make(map[string][]domain.FailureRecord),
	}
}

func (m *MockTaskService) CreateTask(rows [][]string, pdfs []domain.PDFFile) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.lastRows = rows
	m.lastPDFs = pdfs
	return "task-1", nil
}

func (m *MockTaskService) GetStatus(taskID string) (*domain.TaskStatus, error) {
	if s, exists := m.statuses[taskID]; exists {
		return s, nil
	}
	return nil, domain.ErrTaskNotFound
}

func (m *MockTaskService) GetResults(taskID string) ([]domain.MatchResult, error) {
	if _, exists := m.statuses[taskID]; !exists {
		return nil, domain.ErrTaskNotFound
	}
	return m.results[taskID], nil
}

func (m *MockTaskService) GetFailures(taskID string) ([]domain.FailureRecord, error) {
	if _, exists := m.statuses[taskID]; !exists {
		return nil, domain.ErrTaskNotFound
	}
	return m.failures[taskID], nil
}

func (m *MockTaskService) Retry(taskID, token string) ([]string, error) {
	if _, exists := m.statuses[taskID]; !exists {
		return nil, domain.ErrTaskNotFound
	}
	if token == "AB-1234" {
		return []string{"AB-1234", "CD-5678"}, nil
	}
	return nil, nil
}

func newTestHandler(mock *MockTaskService) *TaskHandler {
	return NewTaskHandler(mock, service.NewExporter(), NewMockHandlerLogger(), 4*1024*1024)
}

// buildUpload assembles a multipart body with one catalog file and the given
// PDF names.
func buildUpload(t *testing.T, catalogName, catalogBody string, pdfNames []string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if catalogName != "" {
		fw, err := w.CreateFormFile("catalog", catalogName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(fw, catalogBody); err != nil {
			t.Fatalf("write catalog: %v", err)
		}
	}
	for _, name := range pdfNames {
		fw, err := w.CreateFormFile("pdfs", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(fw, "%PDF-1.4 fake"); err != nil {
			t.Fatalf("write pdf: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestCreateTask_Success(t *testing.T) {
	mock := NewMockTaskService()
	h := newTestHandler(mock)

	body, contentType := buildUpload(t, "catalog.csv", "hinban,spec\nAB-1234,Widget Type A\n", []string{"one.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CreateTask(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["task_id"] != "task-1" {
		t.Fatalf("expected task id, got %v", resp)
	}
	if len(mock.lastRows) != 2 || mock.lastRows[0][0] != "hinban" {
		t.Fatalf("catalog rows not forwarded: %v", mock.lastRows)
	}
	if len(mock.lastPDFs) != 1 || mock.lastPDFs[0].Name != "one.pdf" {
		t.Fatalf("pdfs not forwarded: %v", mock.lastPDFs)
	}
}

func TestCreateTask_MissingCatalog(t *testing.T) {
	h := newTestHandler(NewMockTaskService())

	body, contentType := buildUpload(t, "", "", []string{"one.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CreateTask(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateTask_WrongCatalogExtension(t *testing.T) {
	h := newTestHandler(NewMockTaskService())

	body, contentType := buildUpload(t, "catalog.xlsx", "whatever", []string{"one.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CreateTask(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateTask_NoPDFs(t *testing.T) {
	h := newTestHandler(NewMockTaskService())

	body, contentType := buildUpload(t, "catalog.csv", "hinban\nAB-1234\n", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CreateTask(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateTask_CatalogLoadErrorMapsTo400(t *testing.T) {
	mock := NewMockTaskService()
	mock.createErr = &domain.CatalogLoadError{Reason: "required column 'hinban' is missing"}
	h := newTestHandler(mock)

	body, contentType := buildUpload(t, "catalog.csv", "code\nAB-1234\n", []string{"one.pdf"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.CreateTask(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "hinban") {
		t.Fatalf("error message should name the missing column: %s", rec.Body.String())
	}
}

func TestGetStatus_KnownTask(t *testing.T) {
	mock := NewMockTaskService()
	mock.statuses["task-1"] = &domain.TaskStatus{
		State:     domain.TaskProcessing,
		Progress:  50,
		Totals:    domain.Totals{Tokens: 3, HitHinban: 1, HitSpec: 1, Fail: 1},
		PageCount: 2,
	}
	h := newTestHandler(mock)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/v1/tasks/task-1/status", nil), map[string]string{"id": "task-1"})
	rec := httptest.NewRecorder()

	h.GetStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status domain.TaskStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status.Progress != 50 || status.Totals.Tokens != 3 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestGetStatus_UnknownTask(t *testing.T) {
	h := newTestHandler(NewMockTaskService())

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/v1/tasks/nope/status", nil), map[string]string{"id": "nope"})
	rec := httptest.NewRecorder()

	h.GetStatus(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetResults_ReturnsRows(t *testing.T) {
	mock := NewMockTaskService()
	mock.statuses["task-1"] = &domain.TaskStatus{State: domain.TaskDone, Progress: 100}
	mock.results["task-1"] = []domain.MatchResult{
		{PDFName: "one.pdf", Page: 1, Token: "AB-1234", MatchedType: domain.MatchTypeHinban, MatchedHinban: "AB-1234"},
	}
	h := newTestHandler(mock)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/v1/tasks/task-1/results", nil), map[string]string{"id": "task-1"})
	rec := httptest.NewRecorder()

	h.GetResults(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Rows []domain.MatchResult `json:"rows"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Rows) != 1 || resp.Rows[0].MatchedHinban != "AB-1234" {
		t.Fatalf("unexpected rows: %+v", resp.Rows)
	}
}

func TestGetResults_EmptyIsArrayNotNull(t *testing.T) {
	mock := NewMockTaskService()
	mock.statuses["task-1"] = &domain.TaskStatus{State: domain.TaskDone, Progress: 100}
	h := newTestHandler(mock)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/v1/tasks/task-1/results", nil), map[string]string{"id": "task-1"})
	rec := httptest.NewRecorder()

	h.GetResults(rec, req)

	if !strings.Contains(rec.Body.String(), `"rows":[]`) {
		t.Fatalf("expected empty array, got %s", rec.Body.String())
	}
}

func TestRetry_ReturnsCandidates(t *testing.T) {
	mock := NewMockTaskService()
	mock.statuses["task-1"] = &domain.TaskStatus{State: domain.TaskDone, Progress: 100}
	h := newTestHandler(mock)

	body := strings.NewReader(`{"token":"AB-1234"}`)
	req := mux.SetURLVars(httptest.NewRequest(http.MethodPost, "/api/v1/tasks/task-1/retry", body), map[string]string{"id": "task-1"})
	rec := httptest.NewRecorder()

	h.Retry(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Candidates []string `json:"candidates"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Candidates) != 2 || resp.Candidates[0] != "AB-1234" {
		t.Fatalf("unexpected candidates: %v", resp.Candidates)
	}
}

func TestRetry_EmptyTokenRejected(t *testing.T) {
	mock := NewMockTaskService()
	mock.statuses["task-1"] = &domain.TaskStatus{State: domain.TaskDone, Progress: 100}
	h := newTestHandler(mock)

	body := strings.NewReader(`{"token":"  "}`)
	req := mux.SetURLVars(httptest.NewRequest(http.MethodPost, "/api/v1/tasks/task-1/retry", body), map[string]string{"id": "task-1"})
	rec := httptest.NewRecorder()

	h.Retry(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestExport_ResultsCSV(t *testing.T) {
	mock := NewMockTaskService()
	mock.statuses["task-1"] = &domain.TaskStatus{State: domain.TaskDone, Progress: 100}
	mock.results["task-1"] = []domain.MatchResult{
		{PDFName: "one.pdf", Page: 1, Token: "AB-1234", MatchedType: domain.MatchTypeHinban, MatchedHinban: "AB-1234"},
	}
	h := newTestHandler(mock)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/v1/tasks/task-1/export?type=results", nil), map[string]string{"id": "task-1"})
	rec := httptest.NewRecorder()

	h.Export(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv, got %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "AB-1234") {
		t.Fatalf("expected row in CSV, got %s", rec.Body.String())
	}
}

func TestExport_InvalidType(t *testing.T) {
	mock := NewMockTaskService()
	mock.statuses["task-1"] = &domain.TaskStatus{State: domain.TaskDone, Progress: 100}
	h := newTestHandler(mock)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/v1/tasks/task-1/export?type=everything", nil), map[string]string{"id": "task-1"})
	rec := httptest.NewRecorder()

	h.Export(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
