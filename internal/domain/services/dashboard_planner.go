package services

import (
	"context"
	"strings"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/errs"
	"github.com/drujensen/datamodels/internal/domain/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DashboardPlanner struct {
	logger *zap.Logger
}

func NewDashboardPlanner(logger *zap.Logger) *DashboardPlanner {
	return &DashboardPlanner{logger: logger}
}

// StateID is the dashboard state that shows the entity selected at node.
func StateID(node *entities.HierarchyTreeNode) string {
	return "selected" + strings.ReplaceAll(node.Name, " ", "")
}

// WidgetSpan is the column span of a widget sharing a row with siblings-1
// other widgets.
func WidgetSpan(siblings int) int {
	switch siblings {
	case 2:
		return 12
	case 3:
		return 8
	default:
		return 24
	}
}

// Generate lays out one state per non-tenant node. previousID is reused so a
// regenerated dashboard replaces the old one.
func (p *DashboardPlanner) Generate(ctx context.Context, tree *entities.HierarchyTree, previousID *string) (*entities.DashboardPlan, error) {
	if tree == nil || tree.Tenant() == nil {
		return nil, errors.ValidationErrorf("a hierarchy with a tenant root is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.CanceledErrorf("dashboard generation canceled: %v", err)
	}

	plan := &entities.DashboardPlan{
		Title:  tree.Tenant().Name + " hierarchy",
		States: []entities.DashboardState{},
	}
	if previousID != nil && *previousID != "" {
		plan.ID = *previousID
	} else {
		plan.ID = uuid.New().String()
	}

	tree.Walk(func(node, parent *entities.HierarchyTreeNode) bool {
		if node.IsTenant() {
			return true
		}
		siblings := 1
		if parent != nil {
			siblings = len(parent.Children)
		}
		state := entities.DashboardState{
			ID:         StateID(node),
			Name:       node.Name + " Details",
			TreeNodeID: node.ID,
			Level:      node.Level,
			EntityType: node.Type.EntityType(),
			WidgetSpan: WidgetSpan(siblings),
			Alias: entities.DashboardAlias{
				Name:         node.Name,
				Direction:    entities.DirectionFrom,
				MaxLevel:     1,
				RelationType: node.Data.RelationType,
				EntityTypes:  []entities.EntityType{node.Type.EntityType()},
			},
		}
		if parent == nil || parent.IsTenant() {
			state.Alias.RootIsTenant = true
		} else {
			state.Alias.Name = string(parent.Type) + " " + node.Name
			state.Alias.RootStateID = StateID(parent)
		}
		for _, f := range node.Data.Attributes {
			state.Attributes = append(state.Attributes, f.Name)
		}
		for _, f := range node.Data.Telemetries {
			state.Telemetries = append(state.Telemetries, f.Name)
		}
		for _, child := range node.Children {
			state.ChildStates = append(state.ChildStates, StateID(child))
		}
		plan.States = append(plan.States, state)
		return true
	})

	p.logger.Debug("Planned dashboard", zap.String("id", plan.ID), zap.Int("states", len(plan.States)))
	return plan, nil
}

var _ interfaces.DashboardGenerator = &DashboardPlanner{}
