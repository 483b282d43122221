package repositories_mongo

import (
	"context"
	"time"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/errs"
	"github.com/drujensen/datamodels/internal/domain/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// savedModelDocument stores one tenant's saved model keyed by tenant id.
type savedModelDocument struct {
	TenantID             string    `bson:"_id"`
	GeneratedDashboardID *string   `bson:"generated_dashboard_id,omitempty"`
	Model                string    `bson:"model"`
	GeneratedEntities    string    `bson:"generated_entities"`
	UpdatedAt            time.Time `bson:"updated_at"`
}

type MongoModelRepository struct {
	collection *mongo.Collection
}

func NewMongoModelRepository(collection *mongo.Collection) *MongoModelRepository {
	return &MongoModelRepository{
		collection: collection,
	}
}

func (r *MongoModelRepository) GetSavedModel(ctx context.Context, tenantID string) (*entities.SavedModel, error) {
	var doc savedModelDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": tenantID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.NotFoundErrorf("no saved model for tenant %s", tenantID)
	}
	if err != nil {
		return nil, errors.InternalErrorf("failed to get saved model: %v", err)
	}

	return &entities.SavedModel{
		GeneratedDashboardID: doc.GeneratedDashboardID,
		Model:                doc.Model,
		GeneratedEntities:    doc.GeneratedEntities,
	}, nil
}

func (r *MongoModelRepository) SaveSavedModel(ctx context.Context, tenantID string, model *entities.SavedModel) error {
	if tenantID == "" {
		return errors.ValidationErrorf("tenant id is required")
	}
	if model == nil {
		return errors.ValidationErrorf("saved model is required")
	}

	doc := savedModelDocument{
		TenantID:             tenantID,
		GeneratedDashboardID: model.GeneratedDashboardID,
		Model:                model.Model,
		GeneratedEntities:    model.GeneratedEntities,
		UpdatedAt:            time.Now(),
	}
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": tenantID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.InternalErrorf("failed to save model: %v", err)
	}
	return nil
}

var _ interfaces.ModelRepository = (*MongoModelRepository)(nil)
