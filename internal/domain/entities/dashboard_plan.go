package entities

// DashboardPlan is the structural outline handed to a dashboard generator:
// which states exist, how each state resolves its entities and how wide its
// widgets are. It carries no widget content.
type DashboardPlan struct {
	ID     string           `json:"id"`
	Title  string           `json:"title"`
	States []DashboardState `json:"states"`
}

type DashboardState struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	TreeNodeID  string         `json:"treeNodeId"`
	Level       int            `json:"level"`
	EntityType  EntityType     `json:"entityType"`
	Alias       DashboardAlias `json:"alias"`
	WidgetSpan  int            `json:"widgetSpan"`
	Attributes  []string       `json:"attributes,omitempty"`
	Telemetries []string       `json:"telemetries,omitempty"`
	ChildStates []string       `json:"childStates,omitempty"`
}

// DashboardAlias resolves a state's entities with a relations query rooted at
// the current tenant, or at the entity selected in the parent state.
type DashboardAlias struct {
	Name         string          `json:"name"`
	RootIsTenant bool            `json:"rootIsTenant"`
	RootStateID  string          `json:"rootStateId,omitempty"`
	Direction    SearchDirection `json:"direction"`
	MaxLevel     int             `json:"maxLevel"`
	RelationType string          `json:"relationType"`
	EntityTypes  []EntityType    `json:"entityTypes"`
}
