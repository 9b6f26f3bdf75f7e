package mongodb

import (
	"context"
	"time"

	"github.com/raffleworks/raffle-backend/internal/models"
	"github.com/raffleworks/raffle-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RaffleEventRepository implements the repositories.RaffleEventRepository interface
type RaffleEventRepository struct {
	collection *mongo.Collection
}

// NewRaffleEventRepository creates a new RaffleEventRepository
func NewRaffleEventRepository(db *mongo.Database) repositories.RaffleEventRepository {
	return &RaffleEventRepository{collection: db.Collection("raffle_events")}
}

// Create creates a new raffle event
func (r *RaffleEventRepository) Create(ctx context.Context, event *models.RaffleEvent) error {
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		event.ID = id
	}
	return nil
}

// FindByID finds a raffle event by ID
func (r *RaffleEventRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.RaffleEvent, error) {
	var event models.RaffleEvent
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// FindByOrg finds all raffle events of an organization, newest first
func (r *RaffleEventRepository) FindByOrg(ctx context.Context, orgID primitive.ObjectID) ([]*models.RaffleEvent, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"orgId": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*models.RaffleEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
