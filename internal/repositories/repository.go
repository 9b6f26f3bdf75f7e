package repositories

import (
	"context"

	"github.com/raffleworks/raffle-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleEventRepository defines the interface for raffle event data operations
type RaffleEventRepository interface {
	Create(ctx context.Context, event *models.RaffleEvent) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.RaffleEvent, error)
	FindByOrg(ctx context.Context, orgID primitive.ObjectID) ([]*models.RaffleEvent, error)
}

// PrizeRepository defines the interface for prize data operations
type PrizeRepository interface {
	Create(ctx context.Context, prize *models.Prize) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Prize, error)
	FindByRaffleEvent(ctx context.Context, raffleEventID primitive.ObjectID) ([]*models.Prize, error)
}

// ParticipantRepository defines the interface for participant eligibility
// operations. It is the only component that mutates durable participant
// state, and only ever the isRaffleEligible flag.
type ParticipantRepository interface {
	CreateMany(ctx context.Context, participants []*models.Participant) error
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.Participant, error)
	// FindByIDsInEvent returns only those of ids that belong to the given
	// org and event; commit validation compares lengths.
	FindByIDsInEvent(ctx context.Context, ids []primitive.ObjectID, orgID, eventID primitive.ObjectID) ([]*models.Participant, error)
	// FindEligibleByEvent is the point-in-time eligible pool snapshot,
	// ordered by _id so a replayed seed walks an identical list.
	FindEligibleByEvent(ctx context.Context, orgID, eventID primitive.ObjectID) ([]*models.Participant, error)
	CountByEvent(ctx context.Context, orgID, eventID primitive.ObjectID) (int64, error)
	// DisableEligibility conditionally flips isRaffleEligible to false and
	// returns exactly the ids this call flipped. An id whose flag was
	// already false is not returned; callers treat a shortfall as a
	// concurrent-modification signal when exclusion rules apply.
	DisableEligibility(ctx context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error)
	RestoreEligibility(ctx context.Context, ids []primitive.ObjectID) error
}

// TeamMemberRepository defines the interface for team membership lookups
type TeamMemberRepository interface {
	// FindParticipantIDsByTeams returns participants who belong to one of
	// the teams for the given event only.
	FindParticipantIDsByTeams(ctx context.Context, teamIDs []primitive.ObjectID, eventID primitive.ObjectID) (map[primitive.ObjectID]struct{}, error)
}

// WinnerRepository defines the interface for winner record operations
type WinnerRepository interface {
	// Upsert inserts the record unless (prizeId, participantId) already
	// exists and reports whether this call created it.
	Upsert(ctx context.Context, record *models.WinnerRecord) (created bool, err error)
	FindByPrize(ctx context.Context, prizeID primitive.ObjectID) ([]*models.WinnerRecord, error)
	FindByRaffleEvent(ctx context.Context, raffleEventID primitive.ObjectID) ([]*models.WinnerRecord, error)
	CountByPrize(ctx context.Context, prizeID primitive.ObjectID) (int64, error)
	DeleteByPrize(ctx context.Context, prizeID primitive.ObjectID) (int64, error)
	DeleteByRaffleEvent(ctx context.Context, raffleEventID primitive.ObjectID) (int64, error)
	// DeleteByPrizeAndParticipants removes records created by a commit that
	// has to roll back.
	DeleteByPrizeAndParticipants(ctx context.Context, prizeID primitive.ObjectID, participantIDs []primitive.ObjectID) error
	// FindParticipantIDsWithRecords returns the subset of participantIDs
	// that still hold any winner record; reset restores eligibility for
	// the rest.
	FindParticipantIDsWithRecords(ctx context.Context, participantIDs []primitive.ObjectID) (map[primitive.ObjectID]struct{}, error)
}

// RaffleLogRepository defines the interface for the append-only draw log
type RaffleLogRepository interface {
	Create(ctx context.Context, entry *models.RaffleLog) error
	FindByRaffleEvent(ctx context.Context, raffleEventID primitive.ObjectID) ([]*models.RaffleLog, error)
}

// AuditLogRepository defines the interface for audit log persistence
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// OperatorRepository defines the interface for operator account operations
type OperatorRepository interface {
	Create(ctx context.Context, operator *models.Operator) error
	FindByEmail(ctx context.Context, email string) (*models.Operator, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Operator, error)
}
