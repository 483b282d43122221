package services

import (
	"math"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/errs"
)

// MaxGeneratedEntities caps the number of entities one generation run may
// create across the whole tree.
const MaxGeneratedEntities = 10000

// BuildTree derives the leveled hierarchy from a graph model. The model is not
// modified and every call returns a freshly built tree.
//
// A node's parent is the node whose output connector an edge starts from, and
// the edge label becomes the node's relation type. Edges that point at unknown
// connectors are skipped. Nodes without an inbound edge become roots: the
// tenant sits at level 0 with its children at level 1, any other root is
// level 1 itself.
func BuildTree(model *entities.DataModel) *entities.HierarchyTree {
	tree := &entities.HierarchyTree{Roots: []*entities.HierarchyTreeNode{}}
	if model == nil {
		return tree
	}

	nodes := make([]*entities.HierarchyTreeNode, len(model.Nodes))
	byInput := make(map[string]int)
	byOutput := make(map[string]int)
	for i := range model.Nodes {
		graphNode := &model.Nodes[i]
		fields := graphNode.AdditionalFields.Clone()
		nodes[i] = &entities.HierarchyTreeNode{
			ID:   graphNode.ID,
			Name: graphNode.Name,
			Type: graphNode.Type,
			Data: entities.NodeData{
				Attributes:  fields[entities.FieldAttributes],
				Telemetries: fields[entities.FieldTelemetries],
				Roles:       fields[entities.FieldRoles],
			},
			Children: []*entities.HierarchyTreeNode{},
		}
		if in := graphNode.InputConnector(); in != "" {
			byInput[in] = i
		}
		if out := graphNode.OutputConnector(); out != "" {
			byOutput[out] = i
		}
	}

	for _, edge := range model.Edges {
		dst, ok := byInput[edge.Destination]
		if !ok {
			continue
		}
		src, ok := byOutput[edge.Source]
		if !ok || src == dst {
			continue
		}
		// the first inbound edge wins; later ones would make it a graph
		if nodes[dst].Parent != nil {
			continue
		}
		parentID := nodes[src].ID
		nodes[dst].Parent = &parentID
		nodes[dst].Data.RelationType = edge.Label
	}

	children := make(map[string][]*entities.HierarchyTreeNode)
	for _, node := range nodes {
		if node.Parent != nil {
			children[*node.Parent] = append(children[*node.Parent], node)
		}
	}

	attached := make(map[*entities.HierarchyTreeNode]bool, len(nodes))
	var attach func(node *entities.HierarchyTreeNode)
	attach = func(node *entities.HierarchyTreeNode) {
		attached[node] = true
		if node.Level > tree.MaxLevel {
			tree.MaxLevel = node.Level
		}
		for _, child := range children[node.ID] {
			if attached[child] {
				continue
			}
			child.Level = node.Level + 1
			node.Children = append(node.Children, child)
			attach(child)
		}
	}
	addRoot := func(node *entities.HierarchyTreeNode) {
		node.Parent = nil
		node.Data.RelationType = ""
		if node.IsTenant() {
			node.Level = 0
		} else {
			node.Level = 1
		}
		tree.Roots = append(tree.Roots, node)
		attach(node)
	}

	for _, node := range nodes {
		if node.Parent == nil {
			addRoot(node)
		}
	}
	// nodes only reachable through a cycle: break it at the first node seen
	for _, node := range nodes {
		if !attached[node] {
			addRoot(node)
		}
	}

	return tree
}

// FanOut is the number of entities generated for a node at the given level:
// count^(level-1), so level 1 always yields exactly one entity. Results that
// do not fit in an int saturate at math.MaxInt.
func FanOut(count, level int) int {
	n, ok := checkedFanOut(count, level)
	if !ok {
		return math.MaxInt
	}
	return n
}

func checkedFanOut(count, level int) (int, bool) {
	if level <= 1 || count <= 0 {
		return 1, true
	}
	total := 1
	for i := 1; i < level; i++ {
		if total > math.MaxInt/count {
			return 0, false
		}
		total *= count
	}
	return total, true
}

// PlannedEntities is the number of entities a run with the given count
// creates for tree. Trees that would exceed MaxGeneratedEntities are rejected
// with a ValidationError.
func PlannedEntities(tree *entities.HierarchyTree, count int) (int, error) {
	total := 0
	var err error
	tree.Walk(func(node, _ *entities.HierarchyTreeNode) bool {
		if err != nil {
			return false
		}
		if node.IsTenant() {
			return true
		}
		n, ok := checkedFanOut(count, node.Level)
		if !ok || n > MaxGeneratedEntities-total {
			err = errors.ValidationErrorf("count %d at depth %d creates more than %d entities", count, tree.MaxLevel, MaxGeneratedEntities)
			return false
		}
		total += n
		return true
	})
	return total, err
}
