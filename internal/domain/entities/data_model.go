package entities

import (
	"encoding/json"
	"strconv"
)

type ElementType string

const (
	ElementTenant   ElementType = "TENANT"
	ElementCustomer ElementType = "CUSTOMER"
	ElementAsset    ElementType = "ASSET"
	ElementDevice   ElementType = "DEVICE"
)

func (t ElementType) Valid() bool {
	switch t {
	case ElementTenant, ElementCustomer, ElementAsset, ElementDevice:
		return true
	}
	return false
}

// EntityType maps a model element onto the backend entity kind it creates.
func (t ElementType) EntityType() EntityType {
	return EntityType(t)
}

type ConnectorType string

const (
	ConnectorInput  ConnectorType = "leftConnector"
	ConnectorOutput ConnectorType = "rightConnector"
)

type Connector struct {
	ID   string        `json:"id" yaml:"id" bson:"id"`
	Type ConnectorType `json:"type" yaml:"type" bson:"type"`
}

type GraphNode struct {
	ID                     string           `json:"id" yaml:"id" bson:"id"`
	Name                   string           `json:"name" yaml:"name" bson:"name"`
	Type                   ElementType      `json:"type" yaml:"type" bson:"type"`
	Readonly               bool             `json:"readonly,omitempty" yaml:"readonly,omitempty" bson:"readonly,omitempty"`
	Added                  bool             `json:"added,omitempty" yaml:"added,omitempty" bson:"added,omitempty"`
	X                      float64          `json:"x" yaml:"x" bson:"x"`
	Y                      float64          `json:"y" yaml:"y" bson:"y"`
	Connectors             []Connector      `json:"connectors" yaml:"connectors" bson:"connectors"`
	AdditionalFields       AdditionalFields `json:"additionalFields,omitempty" yaml:"additionalFields,omitempty" bson:"additionalFields,omitempty"`
	UserRoles              []string         `json:"userRoles,omitempty" yaml:"userRoles,omitempty" bson:"userRoles,omitempty"`
	IsUserSelfRegistration bool             `json:"isUserSelfRegistration,omitempty" yaml:"isUserSelfRegistration,omitempty" bson:"isUserSelfRegistration,omitempty"`
}

func (n *GraphNode) connector(t ConnectorType) string {
	for _, c := range n.Connectors {
		if c.Type == t {
			return c.ID
		}
	}
	return ""
}

// InputConnector returns the id of the left connector, or "" when the node has none.
func (n *GraphNode) InputConnector() string {
	return n.connector(ConnectorInput)
}

// OutputConnector returns the id of the right connector, or "" when the node has none.
func (n *GraphNode) OutputConnector() string {
	return n.connector(ConnectorOutput)
}

func (n *GraphNode) Fields(category FieldCategory) []ModelAdditionalField {
	if n.AdditionalFields == nil {
		return nil
	}
	return n.AdditionalFields[category]
}

type GraphEdge struct {
	Source      string `json:"source" yaml:"source" bson:"source"`
	Destination string `json:"destination" yaml:"destination" bson:"destination"`
	Label       string `json:"label" yaml:"label" bson:"label"`
	Active      bool   `json:"active,omitempty" yaml:"active,omitempty" bson:"active,omitempty"`
}

type DataModel struct {
	Nodes []GraphNode `json:"nodes" yaml:"nodes" bson:"nodes"`
	Edges []GraphEdge `json:"edges" yaml:"edges" bson:"edges"`
}

// NodeByConnector finds the node owning the given connector id.
func (m *DataModel) NodeByConnector(connectorID string) *GraphNode {
	if connectorID == "" {
		return nil
	}
	for i := range m.Nodes {
		for _, c := range m.Nodes[i].Connectors {
			if c.ID == connectorID {
				return &m.Nodes[i]
			}
		}
	}
	return nil
}

func (m *DataModel) NodeByID(id string) *GraphNode {
	for i := range m.Nodes {
		if m.Nodes[i].ID == id {
			return &m.Nodes[i]
		}
	}
	return nil
}

func (m *DataModel) Tenant() *GraphNode {
	for i := range m.Nodes {
		if m.Nodes[i].Type == ElementTenant {
			return &m.Nodes[i]
		}
	}
	return nil
}

// Clone returns a deep copy through the JSON encoding, the same shape the model
// is persisted in.
func (m *DataModel) Clone() *DataModel {
	data, err := json.Marshal(m)
	if err != nil {
		return &DataModel{}
	}
	var clone DataModel
	if err := json.Unmarshal(data, &clone); err != nil {
		return &DataModel{}
	}
	return &clone
}

// NextElementID returns one past the largest numeric node or connector id.
// Editors use it to hand out ids for newly placed nodes.
func (m *DataModel) NextElementID() int {
	highest := 0
	bump := func(id string) {
		if n, err := strconv.Atoi(id); err == nil && n > highest {
			highest = n
		}
	}
	for _, node := range m.Nodes {
		bump(node.ID)
		for _, c := range node.Connectors {
			bump(c.ID)
		}
	}
	return highest + 1
}

const (
	DefaultTenantNodeID      = "1"
	DefaultTenantConnectorID = "2"
)

// NewDefaultDataModel returns the model every tenant starts with: a lone,
// read-only tenant node.
func NewDefaultDataModel() *DataModel {
	return &DataModel{
		Nodes: []GraphNode{
			{
				ID:       DefaultTenantNodeID,
				Name:     "Tenant",
				Type:     ElementTenant,
				Readonly: true,
				X:        40,
				Y:        40,
				Connectors: []Connector{
					{ID: DefaultTenantConnectorID, Type: ConnectorOutput},
				},
			},
		},
		Edges: []GraphEdge{},
	}
}
