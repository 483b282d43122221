package repositories_attribute

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockTelemetry struct {
	mock.Mock
}

func (m *mockTelemetry) SaveAttributes(ctx context.Context, ref entities.EntityRef, scope entities.AttributeScope, attributes []entities.AttributeKV) error {
	args := m.Called(ctx, ref, scope, attributes)
	return args.Error(0)
}

func (m *mockTelemetry) SaveTimeseries(ctx context.Context, ref entities.EntityRef, scope entities.AttributeScope, points []entities.TimeseriesPoint) error {
	args := m.Called(ctx, ref, scope, points)
	return args.Error(0)
}

func (m *mockTelemetry) GetAttributes(ctx context.Context, ref entities.EntityRef, scope entities.AttributeScope, keys []string) ([]entities.AttributeKV, error) {
	args := m.Called(ctx, ref, scope, keys)
	if args.Get(0) != nil {
		return args.Get(0).([]entities.AttributeKV), args.Error(1)
	}
	return nil, args.Error(1)
}

var tenant = entities.EntityRef{ID: "tenant-1", EntityType: entities.EntityTenant}

func TestAttributeModelRepository_GetSavedModel(t *testing.T) {
	ctx := context.Background()
	keys := []string{entities.SavedModelAttributeKey}
	saved, err := entities.NewSavedModel(entities.NewDefaultDataModel(), nil, nil)
	require.NoError(t, err)

	encoded, err := json.Marshal(saved)
	require.NoError(t, err)
	var asObject map[string]any
	require.NoError(t, json.Unmarshal(encoded, &asObject))

	tests := []struct {
		name    string
		kvs     []entities.AttributeKV
		err     error
		want    *entities.SavedModel
		wantErr any
	}{
		{name: "stored as object", kvs: []entities.AttributeKV{{Key: entities.SavedModelAttributeKey, Value: asObject}}, want: saved},
		{name: "stored as string", kvs: []entities.AttributeKV{{Key: entities.SavedModelAttributeKey, Value: string(encoded)}}, want: saved},
		{name: "missing", kvs: []entities.AttributeKV{}, wantErr: &errors.NotFoundError{}},
		{name: "garbage", kvs: []entities.AttributeKV{{Key: entities.SavedModelAttributeKey, Value: "{"}}, wantErr: &errors.InternalError{}},
		{name: "backend failure", err: fmt.Errorf("timeout"), wantErr: &errors.InternalError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			telemetry := new(mockTelemetry)
			telemetry.On("GetAttributes", ctx, tenant, entities.ScopeServer, keys).Return(tt.kvs, tt.err)
			repo := NewAttributeModelRepository(telemetry, zap.NewNop())

			got, err := repo.GetSavedModel(ctx, "tenant-1")

			if tt.wantErr != nil {
				assert.IsType(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			telemetry.AssertExpectations(t)
		})
	}
}

func TestAttributeModelRepository_SaveSavedModel(t *testing.T) {
	ctx := context.Background()
	saved := &entities.SavedModel{Model: "{}", GeneratedEntities: "[]"}

	telemetry := new(mockTelemetry)
	telemetry.On("SaveAttributes", ctx, tenant, entities.ScopeServer, []entities.AttributeKV{
		{Key: entities.SavedModelAttributeKey, Value: saved},
	}).Return(nil).Once()
	repo := NewAttributeModelRepository(telemetry, zap.NewNop())

	require.NoError(t, repo.SaveSavedModel(ctx, "tenant-1", saved))
	telemetry.AssertExpectations(t)

	assert.IsType(t, &errors.ValidationError{}, repo.SaveSavedModel(ctx, "", saved))

	failing := new(mockTelemetry)
	failing.On("SaveAttributes", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(fmt.Errorf("forbidden"))
	err := NewAttributeModelRepository(failing, zap.NewNop()).SaveSavedModel(ctx, "tenant-1", saved)
	assert.IsType(t, &errors.InternalError{}, err)
}
