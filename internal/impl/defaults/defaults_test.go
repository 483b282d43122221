package defaults

import (
	"testing"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodePalette(t *testing.T) {
	palette := NodePalette()

	require.Len(t, palette, 3)
	assert.Equal(t, entities.ElementCustomer, palette[0].Type)
	assert.Equal(t, "5", palette[2].InputConnector())
	assert.Equal(t, "6", palette[2].OutputConnector())
	assert.Equal(t, float64(300), palette[2].Y)
}

func TestPlaceNode(t *testing.T) {
	model := entities.NewDefaultDataModel()

	node := PlaceNode(model, "Pump", entities.ElementAsset, 10, 20)

	assert.Equal(t, "3", node.ID)
	assert.Equal(t, "4", node.InputConnector())
	assert.Equal(t, "5", node.OutputConnector())
	assert.Equal(t, 6, model.NextElementID())
}

func TestSampleModel(t *testing.T) {
	model := SampleModel()

	require.NoError(t, services.NewRelationValidator().ValidateModel(model))

	tree := services.BuildTree(model)
	require.Len(t, tree.Roots, 1)
	assert.Equal(t, 3, tree.MaxLevel)

	building := tree.Tenant().Children[0].Children[0]
	assert.Equal(t, "Building", building.Name)
	assert.Equal(t, "hasBuilding", building.Data.RelationType)
	require.Len(t, building.Children, 2)
	assert.Equal(t, "Thermostat", building.Children[0].Name)
	assert.Equal(t, "Energy Meter", building.Children[1].Name)
}
