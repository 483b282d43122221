package interfaces

import (
	"context"

	"github.com/drujensen/datamodels/internal/domain/entities"
)

type EntityIntegration interface {
	CreateCustomer(ctx context.Context, draft entities.EntityDraft) (entities.EntityRef, error)
	CreateAsset(ctx context.Context, draft entities.EntityDraft) (entities.EntityRef, error)
	CreateDevice(ctx context.Context, draft entities.EntityDraft) (entities.EntityRef, error)
	DeleteCustomer(ctx context.Context, id string) error
	DeleteAsset(ctx context.Context, id string) error
	DeleteDevice(ctx context.Context, id string) error
	// ChangeOwner moves entity into the ownership scope of owner.
	ChangeOwner(ctx context.Context, owner, entity entities.EntityRef) error
}

type TelemetryIntegration interface {
	SaveAttributes(ctx context.Context, ref entities.EntityRef, scope entities.AttributeScope, attributes []entities.AttributeKV) error
	SaveTimeseries(ctx context.Context, ref entities.EntityRef, scope entities.AttributeScope, points []entities.TimeseriesPoint) error
	GetAttributes(ctx context.Context, ref entities.EntityRef, scope entities.AttributeScope, keys []string) ([]entities.AttributeKV, error)
}

type RelationIntegration interface {
	SaveRelation(ctx context.Context, relation entities.Relation) error
	FindInfoByQuery(ctx context.Context, query entities.RelationsQuery) ([]entities.RelationInfo, error)
}

type TenantProvider interface {
	CurrentTenantID(ctx context.Context) (entities.EntityRef, error)
}

// BackendIntegration is everything the generator and loader need from the
// platform holding the entities.
type BackendIntegration interface {
	EntityIntegration
	TelemetryIntegration
	RelationIntegration
	TenantProvider
}
