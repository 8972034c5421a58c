package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"invoice-crossref/internal/domain"
	apperrors "invoice-crossref/pkg/errors"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeDomainError maps a domain error onto an AppError and writes it.
func writeDomainError(w http.ResponseWriter, err error) {
	appErr := toAppError(err)
	writeError(w, apperrors.GetStatusCode(appErr), appErr.Message)
}

func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	var catalogErr *domain.CatalogLoadError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, domain.ErrTaskNotFound):
		return apperrors.NewNotFoundError(err.Error())
	case errors.As(err, &catalogErr):
		return apperrors.NewValidationError(catalogErr.Error())
	case errors.Is(err, domain.ErrTaskFailed):
		return apperrors.NewProcessingError("task failed during processing", err)
	default:
		return apperrors.NewInternalError("unexpected error", err)
	}
}
