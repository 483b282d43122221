package repositories_attribute

import (
	"context"
	"encoding/json"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/errs"
	"github.com/drujensen/datamodels/internal/domain/interfaces"

	"go.uber.org/zap"
)

// AttributeModelRepository keeps the saved model in a server-side attribute of
// the tenant itself, so the backend is the only store.
type AttributeModelRepository struct {
	telemetry interfaces.TelemetryIntegration
	logger    *zap.Logger
}

func NewAttributeModelRepository(telemetry interfaces.TelemetryIntegration, logger *zap.Logger) *AttributeModelRepository {
	return &AttributeModelRepository{
		telemetry: telemetry,
		logger:    logger,
	}
}

func tenantRef(tenantID string) entities.EntityRef {
	return entities.EntityRef{ID: tenantID, EntityType: entities.EntityTenant}
}

func (r *AttributeModelRepository) GetSavedModel(ctx context.Context, tenantID string) (*entities.SavedModel, error) {
	kvs, err := r.telemetry.GetAttributes(ctx, tenantRef(tenantID), entities.ScopeServer, []string{entities.SavedModelAttributeKey})
	if err != nil {
		return nil, errors.InternalErrorf("failed to read %s attribute: %v", entities.SavedModelAttributeKey, err)
	}

	for _, kv := range kvs {
		if kv.Key != entities.SavedModelAttributeKey {
			continue
		}
		saved, err := decodeSavedModel(kv.Value)
		if err != nil {
			return nil, errors.InternalErrorf("failed to decode %s attribute: %v", entities.SavedModelAttributeKey, err)
		}
		return saved, nil
	}
	return nil, errors.NotFoundErrorf("no saved model for tenant %s", tenantID)
}

// decodeSavedModel accepts the attribute either as a JSON object or as a
// string holding one.
func decodeSavedModel(value any) (*entities.SavedModel, error) {
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}

	var saved entities.SavedModel
	if err := json.Unmarshal(raw, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *AttributeModelRepository) SaveSavedModel(ctx context.Context, tenantID string, model *entities.SavedModel) error {
	if tenantID == "" {
		return errors.ValidationErrorf("tenant id is required")
	}
	if model == nil {
		return errors.ValidationErrorf("saved model is required")
	}

	err := r.telemetry.SaveAttributes(ctx, tenantRef(tenantID), entities.ScopeServer, []entities.AttributeKV{
		{Key: entities.SavedModelAttributeKey, Value: model},
	})
	if err != nil {
		return errors.InternalErrorf("failed to save %s attribute: %v", entities.SavedModelAttributeKey, err)
	}
	r.logger.Debug("Saved model attribute", zap.String("tenant_id", tenantID))
	return nil
}

var _ interfaces.ModelRepository = (*AttributeModelRepository)(nil)
