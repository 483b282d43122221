package interfaces

import (
	"context"

	"github.com/drujensen/datamodels/internal/domain/entities"
)

type DashboardGenerator interface {
	Generate(ctx context.Context, tree *entities.HierarchyTree, previousID *string) (*entities.DashboardPlan, error)
}
