package mongodb

import (
	"context"

	"github.com/raffleworks/raffle-backend/internal/models"
	"github.com/raffleworks/raffle-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TeamMemberRepository implements the repositories.TeamMemberRepository interface
type TeamMemberRepository struct {
	collection *mongo.Collection
}

// NewTeamMemberRepository creates a new TeamMemberRepository
func NewTeamMemberRepository(db *mongo.Database) repositories.TeamMemberRepository {
	return &TeamMemberRepository{collection: db.Collection("team_members")}
}

// FindParticipantIDsByTeams returns the participant ids that belong to one of
// the given teams for the given event. Membership is scoped to the event so a
// team roster from another event never leaks into the pool.
func (r *TeamMemberRepository) FindParticipantIDsByTeams(ctx context.Context, teamIDs []primitive.ObjectID, eventID primitive.ObjectID) (map[primitive.ObjectID]struct{}, error) {
	members := make(map[primitive.ObjectID]struct{})
	if len(teamIDs) == 0 {
		return members, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{
		"teamId":  bson.M{"$in": teamIDs},
		"eventId": eventID,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []*models.TeamMember
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		members[row.ParticipantID] = struct{}{}
	}
	return members, nil
}
