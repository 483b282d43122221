package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// SavedModelsCollection holds one document per tenant.
const SavedModelsCollection = "saved_models"

const connectTimeout = 10 * time.Second

// MongoDB holds the client and the database handle shared by the mongo
// repositories.
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewMongoDB connects to uri and pings the server before returning.
//
// Parameters:
// - ctx: bounds the connect and ping, together with a 10 second timeout.
// - uri: the connection string, e.g. "mongodb://localhost:27017".
// - dbName: the database holding the saved models, e.g. "datamodels".
func NewMongoDB(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", zap.Error(err))
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		logger.Error("Failed to ping MongoDB", zap.Error(err))
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("Successfully connected to MongoDB", zap.String("database", dbName))

	return &MongoDB{
		client:   client,
		database: client.Database(dbName),
	}, nil
}

func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Disconnect closes the client. Call it on shutdown.
func (m *MongoDB) Disconnect(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
