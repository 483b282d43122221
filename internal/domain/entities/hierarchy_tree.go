package entities

// NodeData is the kind-specific payload of a tree node. A TENANT root carries
// no relation type.
type NodeData struct {
	RelationType string                 `json:"relationType,omitempty" yaml:"relationType,omitempty"`
	Attributes   []ModelAdditionalField `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Telemetries  []ModelAdditionalField `json:"telemetries,omitempty" yaml:"telemetries,omitempty"`
	Roles        []ModelAdditionalField `json:"roles,omitempty" yaml:"roles,omitempty"`
}

// HierarchyTreeNode is one level of the hierarchy derived from a GraphNode.
// Type is the tag that selects how the generator treats the node.
type HierarchyTreeNode struct {
	ID       string               `json:"id" yaml:"id"`
	Name     string               `json:"name" yaml:"name"`
	Type     ElementType          `json:"type" yaml:"type"`
	Data     NodeData             `json:"data" yaml:"data"`
	Parent   *string              `json:"parent" yaml:"parent"`
	Children []*HierarchyTreeNode `json:"children" yaml:"children"`
	Level    int                  `json:"level" yaml:"level"`
	Entities []CreatedEntity      `json:"entities,omitempty" yaml:"entities,omitempty"`
}

func (n *HierarchyTreeNode) IsTenant() bool {
	return n.Type == ElementTenant
}

// EntityRefs returns the refs of the entities generated for this node, in
// creation order.
func (n *HierarchyTreeNode) EntityRefs() []EntityRef {
	refs := make([]EntityRef, 0, len(n.Entities))
	for _, e := range n.Entities {
		refs = append(refs, e.Ref)
	}
	return refs
}

func (n *HierarchyTreeNode) clone(parent *string) *HierarchyTreeNode {
	c := &HierarchyTreeNode{
		ID:    n.ID,
		Name:  n.Name,
		Type:  n.Type,
		Level: n.Level,
		Data: NodeData{
			RelationType: n.Data.RelationType,
			Attributes:   append([]ModelAdditionalField(nil), n.Data.Attributes...),
			Telemetries:  append([]ModelAdditionalField(nil), n.Data.Telemetries...),
			Roles:        append([]ModelAdditionalField(nil), n.Data.Roles...),
		},
		Entities: append([]CreatedEntity(nil), n.Entities...),
		Children: make([]*HierarchyTreeNode, 0, len(n.Children)),
	}
	if parent != nil {
		p := *parent
		c.Parent = &p
	}
	for _, child := range n.Children {
		c.Children = append(c.Children, child.clone(&c.ID))
	}
	return c
}

// HierarchyTree is the synthetic container above the root-level nodes.
type HierarchyTree struct {
	Roots    []*HierarchyTreeNode `json:"roots" yaml:"roots"`
	MaxLevel int                  `json:"maxLevel" yaml:"maxLevel"`
}

// Walk visits every node depth-first, parents before children, in child order.
// Returning false from fn skips the node's subtree.
func (t *HierarchyTree) Walk(fn func(node, parent *HierarchyTreeNode) bool) {
	var visit func(node, parent *HierarchyTreeNode)
	visit = func(node, parent *HierarchyTreeNode) {
		if !fn(node, parent) {
			return
		}
		for _, child := range node.Children {
			visit(child, node)
		}
	}
	for _, root := range t.Roots {
		visit(root, nil)
	}
}

func (t *HierarchyTree) Find(id string) *HierarchyTreeNode {
	var found *HierarchyTreeNode
	t.Walk(func(node, _ *HierarchyTreeNode) bool {
		if found != nil {
			return false
		}
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}

func (t *HierarchyTree) Tenant() *HierarchyTreeNode {
	for _, root := range t.Roots {
		if root.IsTenant() {
			return root
		}
	}
	return nil
}

// Nodes flattens the tree in walk order.
func (t *HierarchyTree) Nodes() []*HierarchyTreeNode {
	var nodes []*HierarchyTreeNode
	t.Walk(func(node, _ *HierarchyTreeNode) bool {
		nodes = append(nodes, node)
		return true
	})
	return nodes
}

func (t *HierarchyTree) Clone() *HierarchyTree {
	clone := &HierarchyTree{MaxLevel: t.MaxLevel, Roots: make([]*HierarchyTreeNode, 0, len(t.Roots))}
	for _, root := range t.Roots {
		clone.Roots = append(clone.Roots, root.clone(root.Parent))
	}
	return clone
}
