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

// WinnerRepository implements the repositories.WinnerRepository interface
type WinnerRepository struct {
	collection *mongo.Collection
}

// NewWinnerRepository creates a new WinnerRepository and ensures the unique
// (prizeId, participantId) index that backs commit idempotency. Uniqueness
// must live at the storage layer because commits may be retried concurrently.
func NewWinnerRepository(db *mongo.Database) repositories.WinnerRepository {
	collection := db.Collection("winner_records")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "prizeId", Value: 1}, {Key: "participantId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &WinnerRepository{collection: collection}
}

// Upsert inserts the winner record if no record exists for the same prize and
// participant. $setOnInsert keeps a retried commit from touching the original
// record; UpsertedCount tells the caller whether this call created it.
func (r *WinnerRepository) Upsert(ctx context.Context, record *models.WinnerRecord) (bool, error) {
	if record.SelectedAt.IsZero() {
		record.SelectedAt = time.Now()
	}
	filter := bson.M{"prizeId": record.PrizeID, "participantId": record.ParticipantID}
	update := bson.M{"$setOnInsert": bson.M{
		"prizeId":       record.PrizeID,
		"raffleEventId": record.RaffleEventID,
		"participantId": record.ParticipantID,
		"seedValue":     record.SeedValue,
		"selectedAt":    record.SelectedAt,
	}}
	res, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// A concurrent upsert for the same pair can race past the filter
		// check and trip the unique index instead; that is the same
		// "already exists" outcome.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// FindByPrize finds winner records for a prize in selection order
func (r *WinnerRepository) FindByPrize(ctx context.Context, prizeID primitive.ObjectID) ([]*models.WinnerRecord, error) {
	return r.find(ctx, bson.M{"prizeId": prizeID})
}

// FindByRaffleEvent finds all winner records within a raffle event
func (r *WinnerRepository) FindByRaffleEvent(ctx context.Context, raffleEventID primitive.ObjectID) ([]*models.WinnerRecord, error) {
	return r.find(ctx, bson.M{"raffleEventId": raffleEventID})
}

func (r *WinnerRepository) find(ctx context.Context, filter bson.M) ([]*models.WinnerRecord, error) {
	opts := options.Find().SetSort(bson.M{"selectedAt": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*models.WinnerRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CountByPrize counts winner records for a prize
func (r *WinnerRepository) CountByPrize(ctx context.Context, prizeID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"prizeId": prizeID})
}

// DeleteByPrize deletes all winner records for a prize
func (r *WinnerRepository) DeleteByPrize(ctx context.Context, prizeID primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"prizeId": prizeID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByRaffleEvent deletes all winner records within a raffle event
func (r *WinnerRepository) DeleteByRaffleEvent(ctx context.Context, raffleEventID primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"raffleEventId": raffleEventID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByPrizeAndParticipants deletes the records a rolled-back commit created
func (r *WinnerRepository) DeleteByPrizeAndParticipants(ctx context.Context, prizeID primitive.ObjectID, participantIDs []primitive.ObjectID) error {
	if len(participantIDs) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{
		"prizeId":       prizeID,
		"participantId": bson.M{"$in": participantIDs},
	})
	return err
}

// FindParticipantIDsWithRecords returns which of the given participants still
// hold at least one winner record anywhere.
func (r *WinnerRepository) FindParticipantIDsWithRecords(ctx context.Context, participantIDs []primitive.ObjectID) (map[primitive.ObjectID]struct{}, error) {
	held := make(map[primitive.ObjectID]struct{})
	if len(participantIDs) == 0 {
		return held, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"participantId": bson.M{"$in": participantIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*models.WinnerRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	for _, record := range records {
		held[record.ParticipantID] = struct{}{}
	}
	return held, nil
}
