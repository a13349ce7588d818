package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/invenio/internal/common"
	"github.com/ternarybob/invenio/internal/handlers"
	"github.com/ternarybob/invenio/internal/interfaces"
	"github.com/ternarybob/invenio/internal/services/analytics"
	"github.com/ternarybob/invenio/internal/services/documents"
	"github.com/ternarybob/invenio/internal/services/events"
	"github.com/ternarybob/invenio/internal/services/index"
	"github.com/ternarybob/invenio/internal/services/nlp"
	"github.com/ternarybob/invenio/internal/services/scheduler"
	"github.com/ternarybob/invenio/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Core services
	EventService     interfaces.EventService
	SearchService    interfaces.SearchService
	QueryProcessor   interfaces.QueryProcessor
	AnalyticsService interfaces.AnalyticsService
	DocumentService  interfaces.DocumentService
	Maintenance      *scheduler.Service

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	WSHandler        *handlers.WebSocketHandler
	SearchHandler    *handlers.SearchHandler
	DocumentHandler  *handlers.DocumentHandler
	AnalyticsHandler *handlers.AnalyticsHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	// Start maintenance scheduler AFTER all services are wired
	if err := app.Maintenance.Start(); err != nil {
		return nil, fmt.Errorf("failed to start maintenance scheduler: %w", err)
	}

	logger.Info().
		Str("storage", cfg.Storage.Type).
		Bool("maintenance_enabled", cfg.Maintenance.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().Str("path", a.Config.Storage.Badger.Path).Msg("Storage initialized")
	return nil
}

// initServices initializes all application services
func (a *App) initServices() error {
	a.EventService = events.NewService(a.Logger)

	a.SearchService = index.NewService(a.Logger, a.StorageManager.IndexStateStore(), &a.Config.Search)
	a.QueryProcessor = nlp.NewProcessor(a.Logger, &a.Config.Parser)
	a.AnalyticsService = analytics.NewEngine(a.Logger, a.StorageManager.AnalyticsStateStore(), &a.Config.Analytics, &a.Config.Suggestions)
	a.DocumentService = documents.NewService(a.Logger, a.SearchService, a.EventService)

	a.Maintenance = scheduler.NewService(a.Logger, a.AnalyticsService, a.StorageManager, a.Config)

	a.Logger.Debug().Msg("Services initialized")
	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() error {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, a.Logger)
	a.SearchHandler = handlers.NewSearchHandler(a.SearchService, a.QueryProcessor, a.AnalyticsService, a.EventService, a.Logger)
	a.DocumentHandler = handlers.NewDocumentHandler(a.DocumentService, a.SearchService, a.EventService, a.Logger)
	a.AnalyticsHandler = handlers.NewAnalyticsHandler(a.AnalyticsService, a.Logger)

	a.Logger.Debug().Msg("Handlers initialized")
	return nil
}

// Close gracefully shuts down all application components
func (a *App) Close() error {
	// Stop maintenance scheduler
	if a.Maintenance != nil {
		a.Maintenance.Stop()
	}

	// Disconnect websocket clients
	if a.WSHandler != nil {
		a.WSHandler.Close()
	}

	// Close event service
	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	// Close storage last so services can persist on the way down
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage manager")
			return err
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
	return nil
}
