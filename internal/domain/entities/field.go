package entities

type FieldCategory string

const (
	FieldAttributes  FieldCategory = "attributes"
	FieldTelemetries FieldCategory = "telemetries"
	FieldRoles       FieldCategory = "roles"
)

type ValueType string

const (
	ValueString  ValueType = "STRING"
	ValueInteger ValueType = "INTEGER"
	ValueDouble  ValueType = "DOUBLE"
	ValueBoolean ValueType = "BOOLEAN"
	ValueJSON    ValueType = "JSON"
	ValueImage   ValueType = "IMAGE"
)

// ModelAdditionalField describes one attribute, telemetry key or role attached
// to a model node. Telemetry and role fields only carry a name.
type ModelAdditionalField struct {
	Name        string    `json:"name" yaml:"name" bson:"name" validate:"required,notblank,max=255"`
	Type        ValueType `json:"type,omitempty" yaml:"type,omitempty" bson:"type,omitempty" validate:"omitempty,oneof=STRING INTEGER DOUBLE BOOLEAN JSON IMAGE"`
	IsEnum      bool      `json:"isEnum,omitempty" yaml:"isEnum,omitempty" bson:"isEnum,omitempty"`
	EnumOptions []string  `json:"enumOptions,omitempty" yaml:"enumOptions,omitempty" bson:"enumOptions,omitempty" validate:"dive,required"`
	IsRequired  bool      `json:"isRequired,omitempty" yaml:"isRequired,omitempty" bson:"isRequired,omitempty"`
	UserRole    string    `json:"userRole,omitempty" yaml:"userRole,omitempty" bson:"userRole,omitempty"`
}

type AdditionalFields map[FieldCategory][]ModelAdditionalField

func (f AdditionalFields) Clone() AdditionalFields {
	if f == nil {
		return nil
	}
	clone := make(AdditionalFields, len(f))
	for category, fields := range f {
		copied := make([]ModelAdditionalField, len(fields))
		for i, field := range fields {
			copied[i] = field
			copied[i].EnumOptions = append([]string(nil), field.EnumOptions...)
		}
		clone[category] = copied
	}
	return clone
}
