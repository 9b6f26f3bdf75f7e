package services

import (
	"context"
	"fmt"

	"github.com/raffleworks/raffle-backend/internal/models"
	"github.com/raffleworks/raffle-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure RaffleServiceImpl implements RaffleService
var _ RaffleService = (*RaffleServiceImpl)(nil)

// RaffleServiceImpl serves the read-side queries for operator consoles and
// public display views.
type RaffleServiceImpl struct {
	raffleEventRepo repositories.RaffleEventRepository
	prizeRepo       repositories.PrizeRepository
	participantRepo repositories.ParticipantRepository
	winnerRepo      repositories.WinnerRepository
	raffleLogRepo   repositories.RaffleLogRepository
}

// NewRaffleService creates a new RaffleServiceImpl
func NewRaffleService(
	raffleEventRepo repositories.RaffleEventRepository,
	prizeRepo repositories.PrizeRepository,
	participantRepo repositories.ParticipantRepository,
	winnerRepo repositories.WinnerRepository,
	raffleLogRepo repositories.RaffleLogRepository,
) *RaffleServiceImpl {
	return &RaffleServiceImpl{
		raffleEventRepo: raffleEventRepo,
		prizeRepo:       prizeRepo,
		participantRepo: participantRepo,
		winnerRepo:      winnerRepo,
		raffleLogRepo:   raffleLogRepo,
	}
}

// GetRaffleEvent returns one raffle event.
func (s *RaffleServiceImpl) GetRaffleEvent(ctx context.Context, id primitive.ObjectID) (*models.RaffleEvent, error) {
	event, err := s.raffleEventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to load raffle event")
	}
	return event, nil
}

// GetPrize returns one prize with its computed selected count.
func (s *RaffleServiceImpl) GetPrize(ctx context.Context, id primitive.ObjectID) (*models.Prize, error) {
	prize, err := s.prizeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "failed to load prize")
	}
	count, err := s.winnerRepo.CountByPrize(ctx, prize.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count winners: %w", err)
	}
	prize.SelectedCount = int(count)
	return prize, nil
}

// ListPrizes returns the prizes of a raffle event in round order, selected
// counts filled in.
func (s *RaffleServiceImpl) ListPrizes(ctx context.Context, raffleEventID primitive.ObjectID) ([]*models.Prize, error) {
	if _, err := s.GetRaffleEvent(ctx, raffleEventID); err != nil {
		return nil, err
	}
	prizes, err := s.prizeRepo.FindByRaffleEvent(ctx, raffleEventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prizes: %w", err)
	}
	for _, prize := range prizes {
		count, err := s.winnerRepo.CountByPrize(ctx, prize.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count winners: %w", err)
		}
		prize.SelectedCount = int(count)
	}
	return prizes, nil
}

// ListEligibleParticipants returns every participant of the raffle's event
// who is currently eligible.
func (s *RaffleServiceImpl) ListEligibleParticipants(ctx context.Context, raffleEventID primitive.ObjectID) ([]*models.Participant, error) {
	event, err := s.GetRaffleEvent(ctx, raffleEventID)
	if err != nil {
		return nil, err
	}
	pool, err := s.participantRepo.FindEligibleByEvent(ctx, event.OrgID, event.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible participants: %w", err)
	}
	return pool, nil
}

// ListWinners joins the winner records of a raffle event with their prizes
// and participants. Reconnecting display clients call this to pull current
// truth, since the stream never replays missed events.
func (s *RaffleServiceImpl) ListWinners(ctx context.Context, raffleEventID primitive.ObjectID) ([]*WinnerDetail, error) {
	if _, err := s.GetRaffleEvent(ctx, raffleEventID); err != nil {
		return nil, err
	}

	records, err := s.winnerRepo.FindByRaffleEvent(ctx, raffleEventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list winner records: %w", err)
	}

	prizes, participants, err := s.joinRecords(ctx, raffleEventID, records)
	if err != nil {
		return nil, err
	}

	details := make([]*WinnerDetail, 0, len(records))
	for _, record := range records {
		detail := &WinnerDetail{
			ID:         record.ID,
			PrizeID:    record.PrizeID,
			SelectedAt: record.SelectedAt,
			Seed:       record.SeedValue,
		}
		if prize, ok := prizes[record.PrizeID]; ok {
			detail.PrizeName = prize.Name
			detail.RoundNumber = prize.RoundNumber
		}
		if p, ok := participants[record.ParticipantID]; ok {
			detail.Participant = p.View()
		}
		details = append(details, detail)
	}
	return details, nil
}

// ListLogs returns the append-only draw log of a raffle event, newest first.
func (s *RaffleServiceImpl) ListLogs(ctx context.Context, raffleEventID primitive.ObjectID) ([]*models.RaffleLog, error) {
	if _, err := s.GetRaffleEvent(ctx, raffleEventID); err != nil {
		return nil, err
	}
	entries, err := s.raffleLogRepo.FindByRaffleEvent(ctx, raffleEventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list raffle logs: %w", err)
	}
	return entries, nil
}

// ExportReport flattens a raffle event's winners into report rows.
func (s *RaffleServiceImpl) ExportReport(ctx context.Context, raffleEventID primitive.ObjectID) ([]*ReportRow, error) {
	event, err := s.GetRaffleEvent(ctx, raffleEventID)
	if err != nil {
		return nil, err
	}

	records, err := s.winnerRepo.FindByRaffleEvent(ctx, raffleEventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list winner records: %w", err)
	}

	prizes, participants, err := s.joinRecords(ctx, raffleEventID, records)
	if err != nil {
		return nil, err
	}

	rows := make([]*ReportRow, 0, len(records))
	for _, record := range records {
		row := &ReportRow{
			RaffleEvent: event.Name,
			SelectedAt:  record.SelectedAt,
			Seed:        record.SeedValue,
		}
		if prize, ok := prizes[record.PrizeID]; ok {
			row.Round = prize.RoundNumber
			row.Prize = prize.Name
		}
		if p, ok := participants[record.ParticipantID]; ok {
			row.Participant = p.Name
			row.Department = p.DepartmentName
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *RaffleServiceImpl) joinRecords(ctx context.Context, raffleEventID primitive.ObjectID, records []*models.WinnerRecord) (map[primitive.ObjectID]*models.Prize, map[primitive.ObjectID]*models.Participant, error) {
	prizeList, err := s.prizeRepo.FindByRaffleEvent(ctx, raffleEventID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list prizes: %w", err)
	}
	prizes := make(map[primitive.ObjectID]*models.Prize, len(prizeList))
	for _, prize := range prizeList {
		prizes[prize.ID] = prize
	}

	participantList, err := s.participantRepo.FindByIDs(ctx, recordParticipantIDs(records))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load participants: %w", err)
	}
	participants := make(map[primitive.ObjectID]*models.Participant, len(participantList))
	for _, p := range participantList {
		participants[p.ID] = p
	}
	return prizes, participants, nil
}
