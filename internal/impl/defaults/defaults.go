package defaults

import (
	"strconv"

	"github.com/drujensen/datamodels/internal/domain/entities"
)

// NodePalette returns the node templates offered when building a model. The
// tenant is not part of the palette since every model already has one.
func NodePalette() []entities.GraphNode {
	types := []struct {
		name string
		kind entities.ElementType
	}{
		{name: "Customer", kind: entities.ElementCustomer},
		{name: "Asset", kind: entities.ElementAsset},
		{name: "Device", kind: entities.ElementDevice},
	}

	palette := make([]entities.GraphNode, 0, len(types))
	for i, t := range types {
		palette = append(palette, entities.GraphNode{
			ID:   strconv.Itoa(i + 1),
			Name: t.name,
			Type: t.kind,
			X:    50,
			Y:    float64(100 * (i + 1)),
			Connectors: []entities.Connector{
				{ID: strconv.Itoa(i*2 + 1), Type: entities.ConnectorInput},
				{ID: strconv.Itoa(i*2 + 2), Type: entities.ConnectorOutput},
			},
			AdditionalFields: emptyFields(),
		})
	}
	return palette
}

func emptyFields() entities.AdditionalFields {
	return entities.AdditionalFields{
		entities.FieldAttributes:  {},
		entities.FieldTelemetries: {},
		entities.FieldRoles:       {},
	}
}

// PlaceNode appends a node with fresh node and connector ids and returns it.
func PlaceNode(model *entities.DataModel, name string, kind entities.ElementType, x, y float64) *entities.GraphNode {
	next := model.NextElementID()
	node := entities.GraphNode{
		ID:    strconv.Itoa(next),
		Name:  name,
		Type:  kind,
		Added: true,
		X:     x,
		Y:     y,
		Connectors: []entities.Connector{
			{ID: strconv.Itoa(next + 1), Type: entities.ConnectorInput},
			{ID: strconv.Itoa(next + 2), Type: entities.ConnectorOutput},
		},
		AdditionalFields: emptyFields(),
	}
	model.Nodes = append(model.Nodes, node)
	return &model.Nodes[len(model.Nodes)-1]
}

// Connect links the output of from to the input of to.
func Connect(model *entities.DataModel, from, to *entities.GraphNode, label string) {
	model.Edges = append(model.Edges, entities.GraphEdge{
		Source:      from.OutputConnector(),
		Destination: to.InputConnector(),
		Label:       label,
	})
}

// SampleModel is a small building-management hierarchy used to seed new
// installations and demos.
func SampleModel() *entities.DataModel {
	model := entities.NewDefaultDataModel()
	tenant := model.Tenant().ID

	owner := PlaceNode(model, "Building Owner", entities.ElementCustomer, 260, 40)
	owner.AdditionalFields[entities.FieldAttributes] = []entities.ModelAdditionalField{
		{Name: "contractNumber", Type: entities.ValueString, IsRequired: true},
	}
	ownerID := owner.ID

	building := PlaceNode(model, "Building", entities.ElementAsset, 480, 40)
	building.AdditionalFields[entities.FieldAttributes] = []entities.ModelAdditionalField{
		{Name: "floors", Type: entities.ValueInteger},
		{Name: "area", Type: entities.ValueDouble},
		{Name: "category", Type: entities.ValueString, IsEnum: true, EnumOptions: []string{"office", "residential", "retail"}},
		{Name: "photo", Type: entities.ValueImage},
	}
	buildingID := building.ID

	thermostat := PlaceNode(model, "Thermostat", entities.ElementDevice, 700, 0)
	thermostat.AdditionalFields[entities.FieldAttributes] = []entities.ModelAdditionalField{
		{Name: "firmware", Type: entities.ValueString},
		{Name: "active", Type: entities.ValueBoolean},
	}
	thermostat.AdditionalFields[entities.FieldTelemetries] = []entities.ModelAdditionalField{
		{Name: "temperature"},
		{Name: "humidity"},
	}
	thermostatID := thermostat.ID

	meter := PlaceNode(model, "Energy Meter", entities.ElementDevice, 700, 120)
	meter.AdditionalFields[entities.FieldAttributes] = []entities.ModelAdditionalField{
		{Name: "config", Type: entities.ValueJSON},
	}
	meter.AdditionalFields[entities.FieldTelemetries] = []entities.ModelAdditionalField{
		{Name: "power"},
	}
	meterID := meter.ID

	// PlaceNode appends, so look nodes up again once the slice is final
	Connect(model, model.NodeByID(tenant), model.NodeByID(ownerID), "hasOwner")
	Connect(model, model.NodeByID(ownerID), model.NodeByID(buildingID), "hasBuilding")
	Connect(model, model.NodeByID(buildingID), model.NodeByID(thermostatID), "hasThermostat")
	Connect(model, model.NodeByID(buildingID), model.NodeByID(meterID), "hasMeter")
	return model
}
