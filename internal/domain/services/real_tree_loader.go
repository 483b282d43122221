package services

import (
	"context"
	"fmt"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/interfaces"

	"go.uber.org/zap"
)

// RealTreeLoader rebuilds the display tree of existing entities by following
// live relations along the saved hierarchy.
type RealTreeLoader struct {
	relations interfaces.RelationIntegration
	logger    *zap.Logger
}

func NewRealTreeLoader(relations interfaces.RelationIntegration, logger *zap.Logger) *RealTreeLoader {
	return &RealTreeLoader{
		relations: relations,
		logger:    logger,
	}
}

type displayAccumulator struct {
	tree *entities.DisplayTree
	seen map[string]bool
}

func newDisplayAccumulator() *displayAccumulator {
	return &displayAccumulator{
		tree: &entities.DisplayTree{Nodes: []entities.DisplayNode{}},
		seen: make(map[string]bool),
	}
}

// add records an entity once for the whole traversal and reports whether it
// was new.
func (a *displayAccumulator) add(ref entities.EntityRef, name, parent, treeNodeID string) bool {
	if a.seen[ref.ID] {
		return false
	}
	a.seen[ref.ID] = true
	a.tree.Nodes = append(a.tree.Nodes, entities.NewDisplayNode(ref, name, parent, treeNodeID))
	return true
}

// LoadRealTree walks tree depth-first. Children of the tenant are looked up
// from the tenant, deeper nodes once per entity resolved for their parent.
// An empty display tree means no demo data exists yet.
func (l *RealTreeLoader) LoadRealTree(ctx context.Context, tree *entities.HierarchyTree, tenant entities.EntityRef) (*entities.DisplayTree, error) {
	acc := newDisplayAccumulator()
	if tree == nil {
		return acc.tree, nil
	}

	var visit func(node *entities.HierarchyTreeNode, parents []entities.EntityRef) error
	visit = func(node *entities.HierarchyTreeNode, parents []entities.EntityRef) error {
		var resolved []entities.EntityRef
		for _, parent := range parents {
			infos, err := l.relations.FindInfoByQuery(ctx, entities.RelationsQuery{
				RootID:       parent.ID,
				RootType:     parent.EntityType,
				Direction:    entities.DirectionFrom,
				MaxLevel:     1,
				RelationType: node.Data.RelationType,
				TargetTypes:  []entities.EntityType{node.Type.EntityType()},
			})
			if err != nil {
				return fmt.Errorf("failed to query %s relations of %s %s: %w", node.Data.RelationType, parent.EntityType, parent.ID, err)
			}
			displayParent := parent.ID
			if parent.EntityType == entities.EntityTenant {
				displayParent = entities.DisplayRootParent
			}
			for _, info := range infos {
				if acc.add(info.To, info.ToName, displayParent, node.ID) {
					resolved = append(resolved, info.To)
				}
			}
		}
		if len(resolved) == 0 {
			return nil
		}
		for _, child := range node.Children {
			if err := visit(child, resolved); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range tree.Roots {
		if !root.IsTenant() {
			continue
		}
		for _, child := range root.Children {
			if err := visit(child, []entities.EntityRef{tenant}); err != nil {
				return nil, err
			}
		}
	}

	l.logger.Debug("Loaded real tree", zap.Int("entities", len(acc.tree.Nodes)))
	return acc.tree, nil
}

// DisplayFromGenerated builds the display tree straight from a tree returned by
// a generation run, placing each entity under the parent it was paired with.
func DisplayFromGenerated(tree *entities.HierarchyTree, tenant entities.EntityRef) *entities.DisplayTree {
	acc := newDisplayAccumulator()
	if tree == nil {
		return acc.tree
	}

	parentOf := make(map[string]string)
	for _, p := range distribute(tree, tenant) {
		if p.parent.EntityType == entities.EntityTenant {
			parentOf[p.child.ID] = entities.DisplayRootParent
		} else {
			parentOf[p.child.ID] = p.parent.ID
		}
	}

	tree.Walk(func(node, _ *entities.HierarchyTreeNode) bool {
		for _, entity := range node.Entities {
			parent, ok := parentOf[entity.Ref.ID]
			if !ok {
				parent = entities.DisplayRootParent
			}
			acc.add(entity.Ref, entity.Name, parent, node.ID)
		}
		return true
	})
	return acc.tree
}
