package services

import (
	"context"
	"time"

	"github.com/raffleworks/raffle-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SelectionResponse is returned by a preview. It goes to the requesting
// client only; nothing is persisted or broadcast until the payload comes
// back through SaveWinners.
type SelectionResponse struct {
	Success      bool                `json:"success"`
	Winners      []models.WinnerView `json:"winners"`
	Seed         string              `json:"seed"`
	RuleSnapshot models.RuleSnapshot `json:"rule_snapshot"`
	Result       models.DrawResult   `json:"result"`
}

// SaveWinnersInput is the previewed payload handed back for commit. The
// caller supplies it verbatim rather than re-deriving, because the display
// already animated this exact outcome.
type SaveWinnersInput struct {
	ParticipantIDs []primitive.ObjectID
	Seed           string
	RuleSnapshot   models.RuleSnapshot
	Result         models.DrawResult
	ActorID        string
}

// CommitResponse reports a commit or manual add. CreatedCount counts only
// records newly created by this call; a retried commit reports zero.
type CommitResponse struct {
	Success      bool                `json:"success"`
	CreatedCount int                 `json:"created_count"`
	Participants []models.WinnerView `json:"participants"`
}

// ResetResponse reports how much a reset removed.
type ResetResponse struct {
	Success        bool `json:"success"`
	DeletedCount   int  `json:"deleted_count"`
	PrizesAffected int  `json:"prizes_affected"`
}

// WinnerDetail joins a winner record with its prize and participant for list
// views.
type WinnerDetail struct {
	ID          primitive.ObjectID `json:"id"`
	PrizeID     primitive.ObjectID `json:"prizeId"`
	PrizeName   string             `json:"prizeName"`
	RoundNumber int                `json:"roundNumber"`
	Participant models.WinnerView  `json:"participant"`
	SelectedAt  time.Time          `json:"selectedAt"`
	Seed        string             `json:"seed"`
}

// ReportRow is one flattened line of the raffle report export.
type ReportRow struct {
	RaffleEvent string    `json:"raffle_event"`
	Round       int       `json:"round"`
	Prize       string    `json:"prize"`
	Participant string    `json:"participant"`
	Department  string    `json:"department"`
	SelectedAt  time.Time `json:"selected_at"`
	Seed        string    `json:"seed"`
}

// DrawService owns the two-phase draw flow: non-destructive preview, durable
// commit, the manual award path and the reset paths.
type DrawService interface {
	PreviewWinners(ctx context.Context, prizeID primitive.ObjectID, quantity int, rules *models.RuleSet) (*SelectionResponse, error)
	SaveWinners(ctx context.Context, prizeID primitive.ObjectID, input SaveWinnersInput) (*CommitResponse, error)
	AddParticipants(ctx context.Context, prizeID primitive.ObjectID, participantIDs []primitive.ObjectID, actorID string) (*CommitResponse, error)
	ResetPrize(ctx context.Context, prizeID primitive.ObjectID, reason, actorID string) (*ResetResponse, error)
	ResetRaffleEvent(ctx context.Context, raffleEventID primitive.ObjectID, reason, actorID string) (*ResetResponse, error)
}

// RaffleService serves the read side: event info, prize lists, winner lists,
// the draw log and the report export. Reconnecting realtime clients use these
// to pull current truth instead of relying on stream replay.
type RaffleService interface {
	GetRaffleEvent(ctx context.Context, id primitive.ObjectID) (*models.RaffleEvent, error)
	GetPrize(ctx context.Context, id primitive.ObjectID) (*models.Prize, error)
	ListPrizes(ctx context.Context, raffleEventID primitive.ObjectID) ([]*models.Prize, error)
	ListEligibleParticipants(ctx context.Context, raffleEventID primitive.ObjectID) ([]*models.Participant, error)
	ListWinners(ctx context.Context, raffleEventID primitive.ObjectID) ([]*WinnerDetail, error)
	ListLogs(ctx context.Context, raffleEventID primitive.ObjectID) ([]*models.RaffleLog, error)
	ExportReport(ctx context.Context, raffleEventID primitive.ObjectID) ([]*ReportRow, error)
}

// AuthService authenticates operator accounts and issues JWT tokens.
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (string, *models.Operator, error)
}
