package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleEvent is one live drawing session tied to an organization's event.
type RaffleEvent struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OrgID         primitive.ObjectID `bson:"orgId" json:"orgId"`
	EventID       primitive.ObjectID `bson:"eventId" json:"eventId"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Rules         RuleSet            `bson:"rules" json:"rules"`
	NoRepeatPrize bool               `bson:"noRepeatPrize" json:"noRepeatPrize"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Prize is a single awardable round within a raffle event.
// (raffleEventId, roundNumber, name) is unique at the storage layer.
type Prize struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RaffleEventID primitive.ObjectID `bson:"raffleEventId" json:"raffleEventId"`
	RoundNumber   int                `bson:"roundNumber" json:"roundNumber"`
	Name          string             `bson:"name" json:"name"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	Rules         RuleSet            `bson:"rules" json:"rules"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`

	// SelectedCount is computed from winner records, never stored.
	SelectedCount int `bson:"-" json:"selectedCount"`
}

// WinnerRecord links one prize to one participant. (prizeId, participantId)
// carries a unique index so a retried commit cannot double-award.
type WinnerRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	PrizeID       primitive.ObjectID `bson:"prizeId" json:"prizeId"`
	RaffleEventID primitive.ObjectID `bson:"raffleEventId" json:"raffleEventId"`
	ParticipantID primitive.ObjectID `bson:"participantId" json:"participantId"`
	SeedValue     string             `bson:"seedValue" json:"seedValue"`
	SelectedAt    time.Time          `bson:"selectedAt" json:"selectedAt"`
}

// RaffleLog is the immutable per-commit audit record. Entries are only
// appended by a successful commit and never updated or deleted.
type RaffleLog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	RaffleEventID primitive.ObjectID `bson:"raffleEventId" json:"raffleEventId"`
	PrizeID       primitive.ObjectID `bson:"prizeId" json:"prizeId"`
	Seed          string             `bson:"seed" json:"seed"`
	RuleSnapshot  RuleSnapshot       `bson:"ruleSnapshot" json:"ruleSnapshot"`
	Result        DrawResult         `bson:"result" json:"result"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
}

// DrawResult summarizes one commit for the log entry and the API response.
type DrawResult struct {
	SelectedCount        int                  `bson:"selectedCount" json:"selectedCount"`
	EligibleCount        int                  `bson:"eligibleCount" json:"eligibleCount"`
	TotalParticipants    int                  `bson:"totalParticipants" json:"totalParticipants"`
	SelectedParticipants []primitive.ObjectID `bson:"selectedParticipants,omitempty" json:"selectedParticipants,omitempty"`
}

// WinnerView is the participant shape broadcast to displays and returned by
// the selection endpoints.
type WinnerView struct {
	ID         primitive.ObjectID `json:"id"`
	Name       string             `json:"name"`
	Department string             `json:"department,omitempty"`
}
