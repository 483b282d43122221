package thingsboard

import (
	"context"
	"net/http"

	"github.com/drujensen/datamodels/internal/domain/entities"
)

type relationRequest struct {
	From      entityID `json:"from"`
	To        entityID `json:"to"`
	Type      string   `json:"type"`
	TypeGroup string   `json:"typeGroup"`
}

func (c *Client) SaveRelation(ctx context.Context, relation entities.Relation) error {
	return c.do(ctx, http.MethodPost, "/api/relation", relationRequest{
		From:      toEntityID(relation.From),
		To:        toEntityID(relation.To),
		Type:      relation.Type,
		TypeGroup: relation.TypeGroup,
	}, nil)
}

type relationsSearchParameters struct {
	RootID    string `json:"rootId"`
	RootType  string `json:"rootType"`
	Direction string `json:"direction"`
	MaxLevel  int    `json:"maxLevel"`
}

type relationEntityTypeFilter struct {
	RelationType string   `json:"relationType"`
	EntityTypes  []string `json:"entityTypes"`
}

type relationsQueryRequest struct {
	Parameters relationsSearchParameters  `json:"parameters"`
	Filters    []relationEntityTypeFilter `json:"filters"`
}

type relationInfoResponse struct {
	From     entityID `json:"from"`
	To       entityID `json:"to"`
	Type     string   `json:"type"`
	FromName string   `json:"fromName"`
	ToName   string   `json:"toName"`
}

func (c *Client) FindInfoByQuery(ctx context.Context, query entities.RelationsQuery) ([]entities.RelationInfo, error) {
	filter := relationEntityTypeFilter{RelationType: query.RelationType, EntityTypes: []string{}}
	for _, t := range query.TargetTypes {
		filter.EntityTypes = append(filter.EntityTypes, string(t))
	}
	body := relationsQueryRequest{
		Parameters: relationsSearchParameters{
			RootID:    query.RootID,
			RootType:  string(query.RootType),
			Direction: string(query.Direction),
			MaxLevel:  query.MaxLevel,
		},
		Filters: []relationEntityTypeFilter{filter},
	}

	var found []relationInfoResponse
	if err := c.do(ctx, http.MethodPost, "/api/relations/info", body, &found); err != nil {
		return nil, err
	}
	infos := make([]entities.RelationInfo, 0, len(found))
	for _, f := range found {
		infos = append(infos, entities.RelationInfo{To: f.To.ref(), ToName: f.ToName})
	}
	return infos, nil
}
