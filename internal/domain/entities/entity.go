package entities

type EntityType string

const (
	EntityTenant   EntityType = "TENANT"
	EntityCustomer EntityType = "CUSTOMER"
	EntityAsset    EntityType = "ASSET"
	EntityDevice   EntityType = "DEVICE"
)

// EntityRef identifies an entity on the backend.
type EntityRef struct {
	ID         string     `json:"id" yaml:"id" bson:"id"`
	EntityType EntityType `json:"entityType" yaml:"entityType" bson:"entityType"`
}

func (r EntityRef) IsZero() bool {
	return r.ID == ""
}

// EntityDraft is the payload sent when creating a customer, asset or device.
// Customers use Name as their title.
type EntityDraft struct {
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Label string `json:"label,omitempty"`
	Email string `json:"email,omitempty"`
}

// CreatedEntity is an entity produced by a generation run. Parent is the
// entity it was related to, or nil when it was left unpaired.
type CreatedEntity struct {
	Ref    EntityRef  `json:"ref" yaml:"ref"`
	Name   string     `json:"name" yaml:"name"`
	Parent *EntityRef `json:"parent,omitempty" yaml:"parent,omitempty"`
}

// AutoGeneratingSettings controls the size and naming of a generation run.
type AutoGeneratingSettings struct {
	Count  int    `json:"count" yaml:"count" validate:"min=1,max=100"`
	Prefix string `json:"prefix" yaml:"prefix" validate:"max=64"`
}
