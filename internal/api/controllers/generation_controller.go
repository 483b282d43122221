package apicontrollers

import (
	"net/http"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/errs"
	"github.com/drujensen/datamodels/internal/domain/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type GenerationController struct {
	logger       *zap.Logger
	modelService services.ModelService
	defaults     entities.AutoGeneratingSettings
}

func NewGenerationController(logger *zap.Logger, modelService services.ModelService, defaults entities.AutoGeneratingSettings) *GenerationController {
	return &GenerationController{
		logger:       logger,
		modelService: modelService,
		defaults:     defaults,
	}
}

// RegisterRoutes registers all generation-related routes with Echo
func (c *GenerationController) RegisterRoutes(e *echo.Group) {
	e.POST("/generation", c.Generate)
	e.GET("/generation/entities", c.ListGenerated)
	e.DELETE("/generation", c.DeleteGenerated)
	e.GET("/generation/real-tree", c.RealTree)
}

type generationResponse struct {
	Tree   *entities.HierarchyTree    `json:"tree"`
	Report *entities.GenerationReport `json:"report"`
	Error  string                     `json:"error,omitempty"`
}

// Generate runs a generation for the saved model. Settings left out of the
// body fall back to the configured defaults. A run with failed calls still
// answers 200 with its report and the error text. The run stops dispatching
// when the client disconnects, and entities created up to then stay on the
// backend until DELETE /api/generation removes them.
func (c *GenerationController) Generate(ctx echo.Context) error {
	settings := c.defaults
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&settings); err != nil {
			return handleError(ctx, c.logger, errors.ValidationErrorf("invalid request body"))
		}
	}

	tree, report, err := c.modelService.AutoFill(ctx.Request().Context(), settings)
	if report == nil {
		if err == nil {
			err = errors.InternalErrorf("generation returned no report")
		}
		return handleError(ctx, c.logger, err)
	}

	resp := generationResponse{Tree: tree, Report: report}
	if err != nil {
		c.logger.Warn("Generation finished with errors", zap.String("run_id", report.RunID), zap.Error(err))
		resp.Error = err.Error()
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (c *GenerationController) ListGenerated(ctx echo.Context) error {
	state, err := c.modelService.GetModel(ctx.Request().Context())
	if err != nil {
		return handleError(ctx, c.logger, err)
	}
	refs := state.GeneratedEntities
	if refs == nil {
		refs = []entities.EntityRef{}
	}
	return ctx.JSON(http.StatusOK, refs)
}

func (c *GenerationController) DeleteGenerated(ctx echo.Context) error {
	deleted, err := c.modelService.DeleteGenerated(ctx.Request().Context())
	if err != nil {
		return handleError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, map[string]int{"deleted": deleted})
}

// RealTree loads the entities that currently exist on the backend for the
// saved hierarchy.
func (c *GenerationController) RealTree(ctx echo.Context) error {
	tree, err := c.modelService.LoadRealTree(ctx.Request().Context())
	if err != nil {
		return handleError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, tree)
}
