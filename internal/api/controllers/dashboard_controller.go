package apicontrollers

import (
	"net/http"

	"github.com/drujensen/datamodels/internal/domain/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type DashboardController struct {
	logger       *zap.Logger
	modelService services.ModelService
}

func NewDashboardController(logger *zap.Logger, modelService services.ModelService) *DashboardController {
	return &DashboardController{
		logger:       logger,
		modelService: modelService,
	}
}

func (c *DashboardController) RegisterRoutes(e *echo.Group) {
	e.POST("/dashboard", c.PlanDashboard)
}

func (c *DashboardController) PlanDashboard(ctx echo.Context) error {
	plan, err := c.modelService.PlanDashboard(ctx.Request().Context())
	if err != nil {
		return handleError(ctx, c.logger, err)
	}
	return ctx.JSON(http.StatusOK, plan)
}
