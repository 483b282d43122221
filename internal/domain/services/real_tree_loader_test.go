package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/drujensen/datamodels/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func info(id string, t entities.EntityType, name string) entities.RelationInfo {
	return entities.RelationInfo{To: entities.EntityRef{ID: id, EntityType: t}, ToName: name}
}

func TestRealTreeLoader_LoadRealTree(t *testing.T) {
	ctx := context.Background()

	t.Run("follows relations level by level", func(t *testing.T) {
		backend := newFakeBackend()
		backend.relations["tenant-1/hasRegion"] = []entities.RelationInfo{
			info("c1", entities.EntityCustomer, "North"),
			info("c2", entities.EntityCustomer, "South"),
		}
		backend.relations["c1/hasSensor"] = []entities.RelationInfo{info("d1", entities.EntityDevice, "S1")}
		backend.relations["c2/hasSensor"] = []entities.RelationInfo{
			info("d2", entities.EntityDevice, "S2"),
			info("d3", entities.EntityDevice, "S3"),
		}
		loader := NewRealTreeLoader(backend, zap.NewNop())

		display, err := loader.LoadRealTree(ctx, BuildTree(exampleModel()), backend.tenant)

		require.NoError(t, err)
		require.Len(t, display.Nodes, 5)
		assert.Equal(t, entities.DisplayNode{
			ID:         "c1",
			Text:       "Customer: North",
			Entity:     entities.EntityRef{ID: "c1", EntityType: entities.EntityCustomer},
			Parent:     entities.DisplayRootParent,
			TreeNodeID: "2",
		}, display.Nodes[0])
		assert.Equal(t, "Device: S1", display.Nodes[2].Text)
		assert.Equal(t, "c1", display.Nodes[2].Parent)
		assert.Equal(t, "c2", display.Nodes[4].Parent)

		require.Len(t, backend.queries, 3)
		first := backend.queries[0]
		assert.Equal(t, "tenant-1", first.RootID)
		assert.Equal(t, entities.EntityTenant, first.RootType)
		assert.Equal(t, entities.DirectionFrom, first.Direction)
		assert.Equal(t, 1, first.MaxLevel)
		assert.Equal(t, []entities.EntityType{entities.EntityCustomer}, first.TargetTypes)
		assert.Equal(t, []entities.EntityType{entities.EntityDevice}, backend.queries[1].TargetTypes)
	})

	t.Run("an entity reached twice is listed once", func(t *testing.T) {
		backend := newFakeBackend()
		backend.relations["tenant-1/hasRegion"] = []entities.RelationInfo{
			info("c1", entities.EntityCustomer, "North"),
			info("c2", entities.EntityCustomer, "South"),
		}
		shared := []entities.RelationInfo{info("d1", entities.EntityDevice, "Shared")}
		backend.relations["c1/hasSensor"] = shared
		backend.relations["c2/hasSensor"] = shared
		loader := NewRealTreeLoader(backend, zap.NewNop())

		display, err := loader.LoadRealTree(ctx, BuildTree(exampleModel()), backend.tenant)

		require.NoError(t, err)
		assert.Len(t, display.Nodes, 3)
	})

	t.Run("no entities yields an empty tree", func(t *testing.T) {
		backend := newFakeBackend()
		loader := NewRealTreeLoader(backend, zap.NewNop())

		display, err := loader.LoadRealTree(ctx, BuildTree(exampleModel()), backend.tenant)

		require.NoError(t, err)
		assert.True(t, display.Empty())
		// nothing under the tenant, so the sensor level is never queried
		assert.Len(t, backend.queries, 1)
	})

	t.Run("query failure is returned", func(t *testing.T) {
		backend := newFakeBackend()
		backend.failOn["FindInfoByQuery"] = fmt.Errorf("unauthorized")
		loader := NewRealTreeLoader(backend, zap.NewNop())

		_, err := loader.LoadRealTree(ctx, BuildTree(exampleModel()), backend.tenant)

		assert.ErrorContains(t, err, "unauthorized")
	})

	t.Run("nil tree", func(t *testing.T) {
		loader := NewRealTreeLoader(newFakeBackend(), zap.NewNop())

		display, err := loader.LoadRealTree(ctx, nil, entities.EntityRef{})

		require.NoError(t, err)
		assert.True(t, display.Empty())
	})
}

func TestDisplayFromGenerated(t *testing.T) {
	backend := newFakeBackend()
	service := newTestGenerator(backend)

	populated, _, err := service.AutoGenerateHierarchyData(context.Background(), BuildTree(exampleModel()), backend.tenant,
		entities.AutoGeneratingSettings{Count: 2})
	require.NoError(t, err)

	display := DisplayFromGenerated(populated, backend.tenant)

	require.Len(t, display.Nodes, 3)
	customer := display.Nodes[0]
	assert.Equal(t, entities.DisplayRootParent, customer.Parent)
	assert.Equal(t, "Customer: Region (1)", customer.Text)
	for _, device := range display.Nodes[1:] {
		assert.Equal(t, customer.ID, device.Parent)
		assert.Equal(t, "3", device.TreeNodeID)
	}
}
