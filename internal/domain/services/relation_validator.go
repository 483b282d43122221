package services

import (
	"fmt"
	"strings"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/errs"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const (
	DoubleInputEdgeTitle   = "You cannot create more than one input edge"
	DoubleInputEdgeMessage = "Each node can have only one input edge and an unlimited number of output ones."
	CustomerSourceTitle    = "You cannot connect a customer with this type"
	CustomerSourceMessage  = "A customer can only be placed after a tenant or another customer"
)

// validate is shared by every validator in the package
var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

type labelInput struct {
	Label string `validate:"required,notblank,max=255"`
}

type nameInput struct {
	Name string `validate:"required,notblank,max=255"`
}

type RelationValidator struct{}

func NewRelationValidator() *RelationValidator {
	return &RelationValidator{}
}

// CanConnect checks the structural rules for adding edge to model, which must
// not contain edge yet. A declined edge yields a *errors.RejectedError.
func (v *RelationValidator) CanConnect(edge entities.GraphEdge, model *entities.DataModel) error {
	source := model.NodeByConnector(edge.Source)
	destination := model.NodeByConnector(edge.Destination)
	if source == nil || destination == nil {
		return errors.ValidationErrorf("edge %s -> %s references an unknown connector", edge.Source, edge.Destination)
	}
	if source.OutputConnector() != edge.Source {
		return errors.ValidationErrorf("edge must start at the output connector of %s", source.Name)
	}
	if destination.InputConnector() != edge.Destination {
		return errors.ValidationErrorf("edge must end at the input connector of %s", destination.Name)
	}

	for _, existing := range model.Edges {
		if existing.Destination == edge.Destination {
			return errors.RejectedErrorf(DoubleInputEdgeTitle, DoubleInputEdgeMessage)
		}
	}

	if (source.Type == entities.ElementAsset || source.Type == entities.ElementDevice) &&
		destination.Type == entities.ElementCustomer {
		return errors.RejectedErrorf(CustomerSourceTitle, CustomerSourceMessage)
	}

	return nil
}

// ValidateEdgeLabel checks the relation type of edge. Labels must be unique
// among the edges leaving the same node towards nodes of the same type, so a
// relation type and target type always identify a single child.
func (v *RelationValidator) ValidateEdgeLabel(edge entities.GraphEdge, model *entities.DataModel) error {
	if err := validate.Struct(labelInput{Label: edge.Label}); err != nil {
		return formatValidationError("label", err)
	}

	destination := model.NodeByConnector(edge.Destination)
	if destination == nil {
		return nil
	}
	label := strings.TrimSpace(edge.Label)
	for _, other := range model.Edges {
		if other.Source != edge.Source || other.Destination == edge.Destination {
			continue
		}
		otherDestination := model.NodeByConnector(other.Destination)
		if otherDestination == nil || otherDestination.Type != destination.Type {
			continue
		}
		if strings.TrimSpace(other.Label) == label {
			return errors.DuplicateErrorf("relation type %q is already used by a sibling %s", label, strings.ToLower(string(destination.Type)))
		}
	}
	return nil
}

// ValidateNodeName checks a node name against the names of the other nodes.
func (v *RelationValidator) ValidateNodeName(name string, others []string) error {
	if err := validate.Struct(nameInput{Name: name}); err != nil {
		return formatValidationError("name", err)
	}
	for _, other := range others {
		if strings.TrimSpace(other) == strings.TrimSpace(name) {
			return errors.DuplicateErrorf("node name %q is already used", name)
		}
	}
	return nil
}

// ValidateFields checks a field list of one category.
func (v *RelationValidator) ValidateFields(category entities.FieldCategory, fields []entities.ModelAdditionalField) error {
	seen := make(map[string]bool, len(fields))
	for _, field := range fields {
		if err := validate.Struct(field); err != nil {
			return formatValidationError(string(category), err)
		}
		if field.IsEnum && len(field.EnumOptions) == 0 {
			return errors.ValidationErrorf("%s: enum field %s needs at least one option", category, field.Name)
		}
		key := strings.TrimSpace(field.Name)
		if seen[key] {
			return errors.DuplicateErrorf("%s: field %q is defined twice", category, key)
		}
		seen[key] = true
	}
	return nil
}

// ValidateModel checks a whole model before it is persisted.
func (v *RelationValidator) ValidateModel(model *entities.DataModel) error {
	tenants := 0
	names := make([]string, 0, len(model.Nodes))
	for i := range model.Nodes {
		node := &model.Nodes[i]
		if !node.Type.Valid() {
			return errors.ValidationErrorf("node %s has unknown type %q", node.ID, node.Type)
		}
		if node.Type == entities.ElementTenant {
			tenants++
			if node.InputConnector() != "" {
				return errors.ValidationErrorf("the tenant node cannot have an input connector")
			}
		}
		if err := v.ValidateNodeName(node.Name, names); err != nil {
			return err
		}
		names = append(names, node.Name)
		for category, fields := range node.AdditionalFields {
			if err := v.ValidateFields(category, fields); err != nil {
				return err
			}
		}
	}
	if tenants != 1 {
		return errors.ValidationErrorf("a model needs exactly one tenant node, found %d", tenants)
	}

	accepted := &entities.DataModel{Nodes: model.Nodes}
	for _, edge := range model.Edges {
		if err := v.CanConnect(edge, accepted); err != nil {
			return err
		}
		if err := v.ValidateEdgeLabel(edge, accepted); err != nil {
			return err
		}
		accepted.Edges = append(accepted.Edges, edge)
	}
	return nil
}

// ValidateSettings checks the generation settings.
func ValidateSettings(settings entities.AutoGeneratingSettings) error {
	if err := validate.Struct(settings); err != nil {
		return formatValidationError("settings", err)
	}
	return nil
}

func formatValidationError(subject string, err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ValidationErrorf("%s: %v", subject, err)
	}

	for _, e := range validationErrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required", "notblank":
			return errors.ValidationErrorf("%s: %s is required", subject, field)
		case "max":
			return errors.ValidationErrorf("%s: %s must not exceed %s", subject, field, e.Param())
		case "min":
			return errors.ValidationErrorf("%s: %s must be at least %s", subject, field, e.Param())
		case "oneof":
			return errors.ValidationErrorf("%s: %s must be one of %s", subject, field, e.Param())
		default:
			return errors.ValidationErrorf("%s: %s failed %s", subject, field, e.Tag())
		}
	}
	return errors.ValidationErrorf("%s: %s", subject, fmt.Sprint(err))
}
