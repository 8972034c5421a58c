package config

import (
	"os"
	"strconv"
	"time"

	"invoice-crossref/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort          string
	MaxFileSize         int64
	LogLevel            string
	SpecMatchThreshold  float64
	RetryCandidateLimit int
	PageWorkers         int
	PageTimeout         time.Duration
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:          getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		MaxFileSize:         getEnvInt64OrDefault("MAX_FILE_SIZE", 50*1024*1024), // 50MB default
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		SpecMatchThreshold:  getEnvFloatOrDefault("SPEC_MATCH_THRESHOLD", 0.6),
		RetryCandidateLimit: getEnvIntOrDefault("RETRY_CANDIDATE_LIMIT", 5),
		PageWorkers:         getEnvIntOrDefault("PAGE_WORKERS", 4),
		PageTimeout:         time.Duration(getEnvIntOrDefault("PAGE_TIMEOUT_SEC", 90)) * time.Second,
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetMaxFileSize returns the maximum allowed upload size per file
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetSpecMatchThreshold returns the minimum specification score a fallback
// match must reach
func (c *AppConfig) GetSpecMatchThreshold() float64 {
	return c.SpecMatchThreshold
}

// GetRetryCandidateLimit returns the maximum number of candidates a retry returns
func (c *AppConfig) GetRetryCandidateLimit() int {
	return c.RetryCandidateLimit
}

// GetPageWorkers returns the page worker pool size per task
func (c *AppConfig) GetPageWorkers() int {
	return c.PageWorkers
}

// GetPageTimeout returns the per-page extraction timeout
func (c *AppConfig) GetPageTimeout() time.Duration {
	return c.PageTimeout
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
