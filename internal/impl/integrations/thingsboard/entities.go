package thingsboard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/drujensen/datamodels/internal/domain/entities"

	"go.uber.org/zap"
)

type customerRequest struct {
	Title string `json:"title"`
	Email string `json:"email,omitempty"`
}

type namedEntityRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
}

type savedEntity struct {
	ID entityID `json:"id"`
}

func (c *Client) CreateCustomer(ctx context.Context, draft entities.EntityDraft) (entities.EntityRef, error) {
	return c.create(ctx, "/api/customer", entities.EntityCustomer, customerRequest{Title: draft.Name, Email: draft.Email})
}

func (c *Client) CreateAsset(ctx context.Context, draft entities.EntityDraft) (entities.EntityRef, error) {
	return c.create(ctx, "/api/asset", entities.EntityAsset, namedEntityRequest{Name: draft.Name, Type: draft.Type, Label: draft.Label})
}

func (c *Client) CreateDevice(ctx context.Context, draft entities.EntityDraft) (entities.EntityRef, error) {
	return c.create(ctx, "/api/device", entities.EntityDevice, namedEntityRequest{Name: draft.Name, Type: draft.Type, Label: draft.Label})
}

func (c *Client) create(ctx context.Context, path string, t entities.EntityType, body any) (entities.EntityRef, error) {
	var saved savedEntity
	if err := c.do(ctx, http.MethodPost, path, body, &saved); err != nil {
		return entities.EntityRef{}, err
	}
	if saved.ID.ID == "" {
		return entities.EntityRef{}, fmt.Errorf("backend returned no id for new %s", t)
	}
	ref := saved.ID.ref()
	if ref.EntityType == "" {
		ref.EntityType = t
	}
	c.logger.Debug("Created entity", zap.String("entity_type", string(t)), zap.String("id", ref.ID))
	return ref, nil
}

func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/customer/"+url.PathEscape(id), nil, nil)
}

func (c *Client) DeleteAsset(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/asset/"+url.PathEscape(id), nil, nil)
}

func (c *Client) DeleteDevice(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/device/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ChangeOwner(ctx context.Context, owner, entity entities.EntityRef) error {
	path := fmt.Sprintf("/api/owner/%s/%s/%s/%s",
		owner.EntityType, url.PathEscape(owner.ID), entity.EntityType, url.PathEscape(entity.ID))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}
