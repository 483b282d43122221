package entities

const RelationTypeGroupCommon = "COMMON"

type SearchDirection string

const (
	DirectionFrom SearchDirection = "FROM"
	DirectionTo   SearchDirection = "TO"
)

type Relation struct {
	From      EntityRef `json:"from"`
	To        EntityRef `json:"to"`
	Type      string    `json:"type"`
	TypeGroup string    `json:"typeGroup"`
}

func NewRelation(from, to EntityRef, relationType string) Relation {
	return Relation{From: from, To: to, Type: relationType, TypeGroup: RelationTypeGroupCommon}
}

type RelationsQuery struct {
	RootID       string          `json:"rootId"`
	RootType     EntityType      `json:"rootType"`
	Direction    SearchDirection `json:"direction"`
	MaxLevel     int             `json:"maxLevel"`
	RelationType string          `json:"relationType"`
	TargetTypes  []EntityType    `json:"targetTypes"`
}

type RelationInfo struct {
	To     EntityRef `json:"to"`
	ToName string    `json:"toName"`
}

type AttributeScope string

const (
	ScopeServer AttributeScope = "SERVER_SCOPE"
	ScopeShared AttributeScope = "SHARED_SCOPE"
	ScopeAny    AttributeScope = "ANY"
)

type AttributeKV struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type TimeseriesPoint struct {
	Ts    int64  `json:"ts"`
	Key   string `json:"key"`
	Value any    `json:"value"`
}
