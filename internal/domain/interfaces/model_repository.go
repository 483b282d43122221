package interfaces

import (
	"context"

	"github.com/drujensen/datamodels/internal/domain/entities"
)

// ModelRepository stores one SavedModel per tenant. GetSavedModel returns a
// *errors.NotFoundError when the tenant has never saved a model.
type ModelRepository interface {
	GetSavedModel(ctx context.Context, tenantID string) (*entities.SavedModel, error)
	SaveSavedModel(ctx context.Context, tenantID string, model *entities.SavedModel) error
}
