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

// RaffleLogRepository implements the repositories.RaffleLogRepository
// interface. The collection is append-only; there is deliberately no update
// or delete method.
type RaffleLogRepository struct {
	collection *mongo.Collection
}

// NewRaffleLogRepository creates a new RaffleLogRepository
func NewRaffleLogRepository(db *mongo.Database) repositories.RaffleLogRepository {
	return &RaffleLogRepository{collection: db.Collection("raffle_logs")}
}

// Create appends a log entry
func (r *RaffleLogRepository) Create(ctx context.Context, entry *models.RaffleLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// FindByRaffleEvent finds log entries for a raffle event, newest first
func (r *RaffleLogRepository) FindByRaffleEvent(ctx context.Context, raffleEventID primitive.ObjectID) ([]*models.RaffleLog, error) {
	opts := options.Find().SetSort(bson.M{"timestamp": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"raffleEventId": raffleEventID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*models.RaffleLog
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
