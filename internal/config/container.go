package config

import (
	"invoice-crossref/internal/domain"
	"invoice-crossref/internal/service"
	"invoice-crossref/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config      domain.Config
	Logger      domain.Logger
	Registry    *service.TaskRegistry
	Extractor   domain.PageExtractor
	TaskService domain.TaskService
	Exporter    *service.Exporter
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	config := NewConfig()
	appLogger := logger.NewLogger(config.GetLogLevel())

	registry := service.NewTaskRegistry()
	extractor := service.NewFitzExtractor(appLogger, config.GetPageTimeout())
	matcher := service.NewMatcher(config.GetSpecMatchThreshold())
	taskService := service.NewTaskManager(
		registry,
		matcher,
		extractor,
		appLogger,
		config.GetPageWorkers(),
		config.GetRetryCandidateLimit(),
	)

	return &Container{
		Config:      config,
		Logger:      appLogger,
		Registry:    registry,
		Extractor:   extractor,
		TaskService: taskService,
		Exporter:    service.NewExporter(),
	}
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetTaskService returns the task service instance
func (c *Container) GetTaskService() domain.TaskService {
	return c.TaskService
}
