package app

import (
	"context"
	"fmt"
	"time"

	"github.com/drujensen/datamodels/internal/domain/interfaces"
	"github.com/drujensen/datamodels/internal/domain/services"
	"github.com/drujensen/datamodels/internal/impl/config"
	"github.com/drujensen/datamodels/internal/impl/database"
	"github.com/drujensen/datamodels/internal/impl/integrations/thingsboard"
	"github.com/drujensen/datamodels/internal/impl/metrics"
	repositoriesAttribute "github.com/drujensen/datamodels/internal/impl/repositories/attribute"
	repositoriesJson "github.com/drujensen/datamodels/internal/impl/repositories/json"
	repositoriesMongo "github.com/drujensen/datamodels/internal/impl/repositories/mongo"

	"go.uber.org/zap"
)

const backendTimeout = 30 * time.Second

// App holds the wired services shared by every run mode.
type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	Backend      *thingsboard.Client
	Metrics      *metrics.Registry
	ModelService services.ModelService

	closers []func()
}

// New connects the backend client, the configured model store and the domain
// services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}
	if !cfg.HasCredentials() {
		return nil, fmt.Errorf("BACKEND_TOKEN or BACKEND_USERNAME and BACKEND_PASSWORD are required")
	}

	a := &App{Config: cfg, Logger: logger}
	a.Backend = thingsboard.NewClient(thingsboard.Options{
		BaseURL:  cfg.BackendURL,
		Username: cfg.BackendUsername,
		Password: cfg.BackendPassword,
		Token:    cfg.BackendToken,
		Timeout:  backendTimeout,
	}, logger)

	modelRepo, err := a.modelRepository(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Metrics = metrics.DefaultRegistry()
	a.Metrics.Subscribe()
	a.closers = append(a.closers, a.Metrics.Close)

	sequencer := services.NewSequencer(cfg.GenerationConcurrency, a.Metrics, logger)
	generator := services.NewGeneratorService(a.Backend, sequencer, logger)
	loader := services.NewRealTreeLoader(a.Backend, logger)
	planner := services.NewDashboardPlanner(logger)
	a.ModelService = services.NewModelService(modelRepo, a.Backend, generator, loader, planner, logger)

	logger.Debug("Application wired",
		zap.String("backend", cfg.BackendURL),
		zap.String("storage", cfg.Storage),
		zap.Int("concurrency", cfg.GenerationConcurrency))
	return a, nil
}

func (a *App) modelRepository(ctx context.Context) (interfaces.ModelRepository, error) {
	switch a.Config.Storage {
	case config.StorageMongo:
		db, err := database.NewMongoDB(ctx, a.Config.MongoURI, a.Config.MongoDatabase, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		a.closers = append(a.closers, func() {
			db.Disconnect(context.Background())
		})
		return repositoriesMongo.NewMongoModelRepository(db.Collection(database.SavedModelsCollection)), nil
	case config.StorageFile:
		repo, err := repositoriesJson.NewJSONModelRepository(a.Config.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize model repository: %w", err)
		}
		return repo, nil
	default:
		return repositoriesAttribute.NewAttributeModelRepository(a.Backend, a.Logger), nil
	}
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
