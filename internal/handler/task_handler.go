// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"invoice-crossref/internal/domain"
	"invoice-crossref/internal/service"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	tasks       domain.TaskService
	exporter    *service.Exporter
	logger      domain.Logger
	maxFileSize int64
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks domain.TaskService, exporter *service.Exporter, logger domain.Logger, maxFileSize int64) *TaskHandler {
	return &TaskHandler{
		tasks:       tasks,
		exporter:    exporter,
		logger:      logger,
		maxFileSize: maxFileSize,
	}
}

// CreateTask handles the batch upload: one catalog CSV plus at least one PDF.
// The pipeline is started in the background; the response carries the task id
// for status polling.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	catalogHeaders := r.MultipartForm.File["catalog"]
	if len(catalogHeaders) != 1 {
		writeError(w, http.StatusBadRequest, "exactly one catalog CSV file is required")
		return
	}
	if !strings.EqualFold(filepath.Ext(catalogHeaders[0].Filename), ".csv") {
		writeError(w, http.StatusBadRequest, "catalog must be a .csv file")
		return
	}

	pdfHeaders := r.MultipartForm.File["pdfs"]
	if len(pdfHeaders) == 0 {
		writeError(w, http.StatusBadRequest, "at least one PDF file is required")
		return
	}

	rows, err := readCatalog(catalogHeaders[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse catalog CSV: %v", err))
		return
	}

	pdfs := make([]domain.PDFFile, 0, len(pdfHeaders))
	for _, fh := range pdfHeaders {
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("only PDF files are supported: %s", fh.Filename))
			return
		}
		data, err := readUpload(fh)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read upload: %s", fh.Filename))
			return
		}
		pdfs = append(pdfs, domain.PDFFile{Name: fh.Filename, Data: data})
	}

	taskID, err := h.tasks.CreateTask(rows, pdfs)
	if err != nil {
		h.logger.Error("failed to create task", err)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

// GetStatus handles status polling for a running or finished task.
func (h *TaskHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	status, err := h.tasks.GetStatus(taskID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// GetResults returns the committed match results in discovery order.
func (h *TaskHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	results, err := h.tasks.GetResults(taskID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if results == nil {
		results = make([]domain.MatchResult, 0)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": results})
}

// GetFailures returns the committed failure records in discovery order.
func (h *TaskHandler) GetFailures(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	failures, err := h.tasks.GetFailures(taskID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if failures == nil {
		failures = make([]domain.FailureRecord, 0)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"rows": failures})
}

// retryRequest is the body of a retry call.
type retryRequest struct {
	Token string `json:"token"`
}

// Retry re-runs matching for one corrected token and returns ranked
// candidate product codes. Committed results are not touched.
func (h *TaskHandler) Retry(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	var req retryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	candidates, err := h.tasks.Retry(taskID, req.Token)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if candidates == nil {
		candidates = make([]string, 0)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"candidates": candidates})
}

// Export streams the result or failure sequence as a tabular file.
// Query parameters: type=results|failures, format=csv|xlsx (default csv).
func (h *TaskHandler) Export(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	kind := r.URL.Query().Get("type")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		writeError(w, http.StatusBadRequest, "format must be csv or xlsx")
		return
	}

	var write func(io.Writer) error
	var basename string
	switch kind {
	case "results":
		results, err := h.tasks.GetResults(taskID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		basename = "results"
		if format == "csv" {
			write = func(w io.Writer) error { return h.exporter.WriteResultsCSV(w, results) }
		} else {
			write = func(w io.Writer) error { return h.exporter.WriteResultsXLSX(w, results) }
		}
	case "failures":
		failures, err := h.tasks.GetFailures(taskID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		basename = "failure"
		if format == "csv" {
			write = func(w io.Writer) error { return h.exporter.WriteFailuresCSV(w, failures) }
		} else {
			write = func(w io.Writer) error { return h.exporter.WriteFailuresXLSX(w, failures) }
		}
	default:
		writeError(w, http.StatusBadRequest, "type must be results or failures")
		return
	}

	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", basename, format))
	if err := write(w); err != nil {
		h.logger.Error("export failed", err, "task_id", taskID, "type", kind, "format", format)
	}
}

func readCatalog(fh *multipart.FileHeader) ([][]string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
