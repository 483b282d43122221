package apicontrollers

import (
	"net/http"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/errs"
	"github.com/drujensen/datamodels/internal/domain/services"
	"github.com/drujensen/datamodels/internal/impl/defaults"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ModelController struct {
	logger       *zap.Logger
	modelService services.ModelService
}

func NewModelController(logger *zap.Logger, modelService services.ModelService) *ModelController {
	return &ModelController{
		logger:       logger,
		modelService: modelService,
	}
}

// RegisterRoutes registers all model-related routes with Echo
func (c *ModelController) RegisterRoutes(e *echo.Group) {
	e.GET("/model", c.GetModel)
	e.PUT("/model", c.SaveModel)
	e.DELETE("/model", c.ResetModel)
	e.GET("/model/tree", c.GetTree)
	e.GET("/model/palette", c.GetPalette)
	e.POST("/model/edges/validate", c.ValidateEdge)
}

// GetModel returns the saved model of the current tenant along with its
// generated entities.
func (c *ModelController) GetModel(ctx echo.Context) error {
	state, err := c.modelService.GetModel(ctx.Request().Context())
	if err != nil {
		return handleError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, state)
}

func (c *ModelController) SaveModel(ctx echo.Context) error {
	var model entities.DataModel
	if err := ctx.Bind(&model); err != nil {
		return handleError(ctx, c.logger, errors.ValidationErrorf("invalid request body"))
	}
	if model.Edges == nil {
		model.Edges = []entities.GraphEdge{}
	}

	if err := c.modelService.SaveModel(ctx.Request().Context(), &model); err != nil {
		return handleError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, model)
}

// ResetModel replaces the saved model with the default one.
func (c *ModelController) ResetModel(ctx echo.Context) error {
	model, err := c.modelService.ResetModel(ctx.Request().Context())
	if err != nil {
		return handleError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, model)
}

func (c *ModelController) GetTree(ctx echo.Context) error {
	tree, err := c.modelService.GetTree(ctx.Request().Context())
	if err != nil {
		return handleError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, tree)
}

func (c *ModelController) GetPalette(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, defaults.NodePalette())
}

// ValidateEdge checks a candidate edge against the saved model. A valid edge
// answers 204.
func (c *ModelController) ValidateEdge(ctx echo.Context) error {
	var edge entities.GraphEdge
	if err := ctx.Bind(&edge); err != nil {
		return handleError(ctx, c.logger, errors.ValidationErrorf("invalid request body"))
	}

	if err := c.modelService.ValidateEdge(ctx.Request().Context(), edge); err != nil {
		return handleError(ctx, c.logger, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}
