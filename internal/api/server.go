package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	apicontrollers "github.com/drujensen/datamodels/internal/api/controllers"
	apimiddleware "github.com/drujensen/datamodels/internal/api/middleware"
	"github.com/drujensen/datamodels/internal/api/websocket"
	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/services"
	"github.com/drujensen/datamodels/internal/impl/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// NewServer builds the HTTP API. The hub must be running for /ws clients to
// receive anything.
func NewServer(logger *zap.Logger, registry *metrics.Registry, modelService services.ModelService, hub *websocket.ProgressHub, settings entities.AutoGeneratingSettings) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(apimiddleware.Logger(logger))
	e.Use(apimiddleware.Metrics(registry))

	// API Routes
	api := e.Group("/api")
	apicontrollers.NewModelController(logger, modelService).RegisterRoutes(api)
	apicontrollers.NewGenerationController(logger, modelService, settings).RegisterRoutes(api)
	apicontrollers.NewDashboardController(logger, modelService).RegisterRoutes(api)

	e.GET("/metrics", echo.WrapHandler(registry.Handler()))
	e.GET("/ws", echo.WrapHandler(hub.Handler()))

	return e
}

const shutdownTimeout = 10 * time.Second

// Serve runs e on addr until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, e *echo.Echo, addr string, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
