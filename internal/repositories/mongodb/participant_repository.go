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

// ParticipantRepository implements the repositories.ParticipantRepository interface
type ParticipantRepository struct {
	collection *mongo.Collection
}

// NewParticipantRepository creates a new ParticipantRepository
func NewParticipantRepository(db *mongo.Database) repositories.ParticipantRepository {
	return &ParticipantRepository{collection: db.Collection("participants")}
}

// CreateMany inserts a batch of participants
func (r *ParticipantRepository) CreateMany(ctx context.Context, participants []*models.Participant) error {
	if len(participants) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(participants))
	now := time.Now()
	for _, p := range participants {
		p.CreatedAt = now
		p.UpdatedAt = now
		docs = append(docs, p)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// FindByIDs finds participants by their ids
func (r *ParticipantRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Participant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// FindByIDsInEvent finds participants by id restricted to one org and event
func (r *ParticipantRepository) FindByIDsInEvent(ctx context.Context, ids []primitive.ObjectID, orgID, eventID primitive.ObjectID) ([]*models.Participant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{
		"_id":     bson.M{"$in": ids},
		"orgId":   orgID,
		"eventId": eventID,
	})
}

// FindEligibleByEvent returns the current eligible pool for an event. The
// result is sorted by _id so the same snapshot always yields the same order,
// which the seeded sampling depends on.
func (r *ParticipantRepository) FindEligibleByEvent(ctx context.Context, orgID, eventID primitive.ObjectID) ([]*models.Participant, error) {
	return r.find(ctx, bson.M{
		"orgId":            orgID,
		"eventId":          eventID,
		"isRaffleEligible": true,
	})
}

func (r *ParticipantRepository) find(ctx context.Context, filter bson.M) ([]*models.Participant, error) {
	opts := options.Find().SetSort(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var participants []*models.Participant
	if err := cursor.All(ctx, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

// CountByEvent counts all participants of an event, eligible or not
func (r *ParticipantRepository) CountByEvent(ctx context.Context, orgID, eventID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"orgId": orgID, "eventId": eventID})
}

// DisableEligibility flips isRaffleEligible to false participant by
// participant, each update conditional on the flag still being true, and
// returns the ids this call actually flipped. Two commits racing over an
// overlapping pool therefore cannot both claim the same participant: the
// loser sees a shortfall and fails instead of double-awarding.
func (r *ParticipantRepository) DisableEligibility(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	disabled := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		res, err := r.collection.UpdateOne(ctx,
			bson.M{"_id": id, "isRaffleEligible": true},
			bson.M{"$set": bson.M{"isRaffleEligible": false, "updatedAt": time.Now()}},
		)
		if err != nil {
			return disabled, err
		}
		if res.ModifiedCount > 0 {
			disabled = append(disabled, id)
		}
	}
	return disabled, nil
}

// RestoreEligibility flips isRaffleEligible back to true as one batch
func (r *ParticipantRepository) RestoreEligibility(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"isRaffleEligible": true, "updatedAt": time.Now()}},
	)
	return err
}
