package entities

import "fmt"

// DisplayRootParent marks display nodes that hang directly under the tenant.
const DisplayRootParent = "#"

type DisplayNode struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Entity     EntityRef `json:"entity"`
	Parent     string    `json:"parent"`
	TreeNodeID string    `json:"treeNodeId"`
}

type DisplayTree struct {
	Nodes []DisplayNode `json:"nodes"`
}

func (d *DisplayTree) Empty() bool {
	return len(d.Nodes) == 0
}

func NewDisplayNode(ref EntityRef, name, parent, treeNodeID string) DisplayNode {
	return DisplayNode{
		ID:         ref.ID,
		Text:       fmt.Sprintf("%s: %s", displayKind(ref.EntityType), name),
		Entity:     ref,
		Parent:     parent,
		TreeNodeID: treeNodeID,
	}
}

func displayKind(t EntityType) string {
	switch t {
	case EntityCustomer:
		return "Customer"
	case EntityAsset:
		return "Asset"
	case EntityDevice:
		return "Device"
	case EntityTenant:
		return "Tenant"
	}
	return string(t)
}
