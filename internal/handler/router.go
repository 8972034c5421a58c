package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"invoice-crossref/internal/config"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(container *config.Container) http.Handler {
	router := mux.NewRouter()

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"invoice-crossref"}`))
	}).Methods("GET")

	// Initialize handlers
	taskHandler := NewTaskHandler(
		container.TaskService,
		container.Exporter,
		container.Logger,
		container.Config.GetMaxFileSize(),
	)

	api.Use(Recovery(container.Logger))
	api.Use(RequestLogging(container.Logger))

	// Task routes
	api.HandleFunc("/tasks", taskHandler.CreateTask).Methods("POST")
	api.HandleFunc("/tasks/{id}/status", taskHandler.GetStatus).Methods("GET")
	api.HandleFunc("/tasks/{id}/results", taskHandler.GetResults).Methods("GET")
	api.HandleFunc("/tasks/{id}/failures", taskHandler.GetFailures).Methods("GET")
	api.HandleFunc("/tasks/{id}/retry", taskHandler.Retry).Methods("POST")
	api.HandleFunc("/tasks/{id}/export", taskHandler.Export).Methods("GET")

	// Configure CORS. The UI polls status from a local dev server.
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		MaxAge: 300,
	})

	return c.Handler(router)
}
