package container

import (
	"context"
	"fmt"

	"trustdebt/adapters/postgres"
	"trustdebt/app"
	"trustdebt/internal"
	"trustdebt/internal/api"
	"trustdebt/internal/config"
	"trustdebt/internal/metrics"
	"trustdebt/internal/migration"
	"trustdebt/ports"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB      *sqlx.DB
	History ports.HistoryRepository
	Metrics *metrics.Recorder

	// Services
	Settings    app.Settings
	Assessments *app.AssessmentService
	Batch       *app.BatchService
	Handlers    *api.Handlers
}

// SettingsFrom converts the engine configuration into run settings
func SettingsFrom(engine config.EngineConfig) (app.Settings, error) {
	boundaries, err := engine.Boundaries()
	if err != nil {
		return app.Settings{}, err
	}
	return app.Settings{
		Balancer:        engine.Balancer(),
		Matrix:          engine.Matrix(),
		Boundaries:      boundaries,
		TrajectoryNoise: engine.TrajectoryNoise,
		VisibilityScale: engine.VisibilityScale,
	}, nil
}

// New creates a new dependency injection container. Run history stays
// disabled until InitWithDatabase is called.
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	settings, err := SettingsFrom(cfg.Engine)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics.NewRecorder(),
		Settings: settings,
	}
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

// InitWithDatabase migrates the schema and enables run history
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}
	if err := migration.NewRunner(c.Logger).Run(ctx, db); err != nil {
		return err
	}

	c.DB = db
	c.History = postgres.NewHistoryRepository(db)
	if err := c.initServices(); err != nil {
		return err
	}

	c.Logger.Info("container initialized with run history")
	return nil
}

func (c *Container) initServices() error {
	opts := []app.Option{app.WithObserver(c.Metrics)}
	if c.History != nil {
		opts = append(opts, app.WithHistory(c.History))
	}

	assessments, err := app.NewAssessmentService(c.Settings, c.Logger, opts...)
	if err != nil {
		return err
	}
	c.Assessments = assessments
	c.Batch = app.NewBatchService(assessments, c.Config.Engine.BatchWorkers, c.Logger)
	c.Handlers = api.NewHandlers(c.Assessments, c.Batch, c.History, c.Logger)
	return nil
}

// Router builds the HTTP engine with the metrics endpoint mounted
func (c *Container) Router() *gin.Engine {
	gin.SetMode(c.Config.Server.GinMode)
	return api.NewRouter(c.Handlers, c.Metrics.Handler())
}

// Shutdown flushes the logger and closes the database
func (c *Container) Shutdown(ctx context.Context) error {
	c.Logger.Sync()
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
