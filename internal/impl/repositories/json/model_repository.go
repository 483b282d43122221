package repositories_json

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/errs"
	"github.com/drujensen/datamodels/internal/domain/interfaces"

	"github.com/google/uuid"
)

// savedModelRecord is one tenant's entry in models.json.
type savedModelRecord struct {
	ID        string              `json:"id"`
	TenantID  string              `json:"tenant_id"`
	Saved     entities.SavedModel `json:"saved"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type JsonModelRepository struct {
	filePath string
	mu       sync.Mutex
	data     []*savedModelRecord
}

func NewJSONModelRepository(dataDir string) (*JsonModelRepository, error) {
	filePath := filepath.Join(dataDir, ".datamodels", "models.json")
	repo := &JsonModelRepository{
		filePath: filePath,
		data:     []*savedModelRecord{},
	}

	if err := repo.load(); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *JsonModelRepository) load() error {
	data, err := os.ReadFile(r.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.InternalErrorf("failed to read models.json: %v", err)
	}

	var records []*savedModelRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return errors.InternalErrorf("failed to unmarshal models.json: %v", err)
	}

	for _, record := range records {
		if record.ID == "" {
			return errors.InternalErrorf("saved model is missing an ID")
		}
		if _, err := uuid.Parse(record.ID); err != nil {
			return errors.InternalErrorf("saved model has an invalid UUID: %v", err)
		}
		if record.TenantID == "" {
			return errors.InternalErrorf("saved model %s is missing a tenant", record.ID)
		}
	}

	r.data = records
	return nil
}

func (r *JsonModelRepository) save() error {
	data, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return errors.InternalErrorf("failed to marshal saved models: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.filePath), 0755); err != nil {
		return errors.InternalErrorf("failed to create directory: %v", err)
	}

	// models.json is replaced, never rewritten in place
	tmp := r.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.InternalErrorf("failed to write models.json: %v", err)
	}
	if err := os.Rename(tmp, r.filePath); err != nil {
		return errors.InternalErrorf("failed to replace models.json: %v", err)
	}

	return nil
}

func (r *JsonModelRepository) GetSavedModel(ctx context.Context, tenantID string) (*entities.SavedModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range r.data {
		if record.TenantID == tenantID {
			return copySavedModel(&record.Saved), nil
		}
	}
	return nil, errors.NotFoundErrorf("no saved model for tenant %s", tenantID)
}

func (r *JsonModelRepository) SaveSavedModel(ctx context.Context, tenantID string, model *entities.SavedModel) error {
	if tenantID == "" {
		return errors.ValidationErrorf("tenant id is required")
	}
	if model == nil {
		return errors.ValidationErrorf("saved model is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, record := range r.data {
		if record.TenantID == tenantID {
			record.Saved = *copySavedModel(model)
			record.UpdatedAt = now
			return r.save()
		}
	}

	r.data = append(r.data, &savedModelRecord{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Saved:     *copySavedModel(model),
		CreatedAt: now,
		UpdatedAt: now,
	})
	return r.save()
}

func copySavedModel(m *entities.SavedModel) *entities.SavedModel {
	copied := *m
	if m.GeneratedDashboardID != nil {
		id := *m.GeneratedDashboardID
		copied.GeneratedDashboardID = &id
	}
	return &copied
}

var _ interfaces.ModelRepository = (*JsonModelRepository)(nil)
