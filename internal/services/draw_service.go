package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raffleworks/raffle-backend/internal/models"
	"github.com/raffleworks/raffle-backend/internal/repositories"
	"github.com/raffleworks/raffle-backend/internal/ws"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// minResetReasonLength is the shortest justification accepted by the reset
// paths.
const minResetReasonLength = 10

// Compile-time check to ensure DrawServiceImpl implements DrawService
var _ DrawService = (*DrawServiceImpl)(nil)

// DrawServiceImpl orchestrates the select-then-save flow over the
// repositories. It holds no per-draw state: a preview is stateless and
// idempotent per call, so there is nothing server-side to expire when an
// operator abandons one.
type DrawServiceImpl struct {
	raffleEventRepo repositories.RaffleEventRepository
	prizeRepo       repositories.PrizeRepository
	participantRepo repositories.ParticipantRepository
	teamMemberRepo  repositories.TeamMemberRepository
	winnerRepo      repositories.WinnerRepository
	raffleLogRepo   repositories.RaffleLogRepository
	auditLogRepo    repositories.AuditLogRepository
	broadcaster     ws.Broadcaster
}

// NewDrawService creates a new DrawServiceImpl
func NewDrawService(
	raffleEventRepo repositories.RaffleEventRepository,
	prizeRepo repositories.PrizeRepository,
	participantRepo repositories.ParticipantRepository,
	teamMemberRepo repositories.TeamMemberRepository,
	winnerRepo repositories.WinnerRepository,
	raffleLogRepo repositories.RaffleLogRepository,
	auditLogRepo repositories.AuditLogRepository,
	broadcaster ws.Broadcaster,
) *DrawServiceImpl {
	return &DrawServiceImpl{
		raffleEventRepo: raffleEventRepo,
		prizeRepo:       prizeRepo,
		participantRepo: participantRepo,
		teamMemberRepo:  teamMemberRepo,
		winnerRepo:      winnerRepo,
		raffleLogRepo:   raffleLogRepo,
		auditLogRepo:    auditLogRepo,
		broadcaster:     broadcaster,
	}
}

// PreviewWinners runs a trial selection against a fresh eligibility snapshot.
// It creates no winner records, mutates no eligibility, writes no log entry
// and broadcasts nothing: the result goes back to the requesting client only,
// so the operator can review (or re-roll) before committing.
func (s *DrawServiceImpl) PreviewWinners(ctx context.Context, prizeID primitive.ObjectID, quantity int, rules *models.RuleSet) (*SelectionResponse, error) {
	prize, event, err := s.loadPrize(ctx, prizeID)
	if err != nil {
		return nil, err
	}

	merged := event.Rules.Merge(prize.Rules)
	if rules != nil {
		merged = merged.Merge(*rules)
	}
	merged.NoRepeatPrize = merged.NoRepeatPrize || event.NoRepeatPrize

	input, err := s.buildSelectionInput(ctx, prize, event, merged)
	if err != nil {
		return nil, err
	}
	input.Quantity = quantity

	result, err := SelectWinners(*input)
	if err != nil {
		return nil, err
	}

	winners := make([]models.WinnerView, 0, len(result.Winners))
	for _, w := range result.Winners {
		winners = append(winners, w.View())
	}

	slog.Info("selection previewed",
		"prizeId", prize.ID.Hex(),
		"seed", result.Seed,
		"winners", len(winners),
		"eligible", result.EligibleCount)

	return &SelectionResponse{
		Success:      true,
		Winners:      winners,
		Seed:         result.Seed,
		RuleSnapshot: result.RuleSnapshot,
		Result: models.DrawResult{
			SelectedCount:     len(winners),
			EligibleCount:     result.EligibleCount,
			TotalParticipants: result.TotalParticipants,
		},
	}, nil
}

// buildSelectionInput snapshots everything the pure selector needs: the
// eligible pool, event-scoped team membership and the prior-winner sets.
func (s *DrawServiceImpl) buildSelectionInput(ctx context.Context, prize *models.Prize, event *models.RaffleEvent, rules models.RuleSet) (*SelectionInput, error) {
	pool, err := s.participantRepo.FindEligibleByEvent(ctx, event.OrgID, event.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot eligible pool: %w", err)
	}

	total, err := s.participantRepo.CountByEvent(ctx, event.OrgID, event.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}

	input := &SelectionInput{
		Prize:             prize,
		Rules:             rules,
		Pool:              pool,
		TotalParticipants: int(total),
	}

	if rules.FilterByTeam && len(rules.TeamIDs) > 0 {
		input.TeamMembers, err = s.teamMemberRepo.FindParticipantIDsByTeams(ctx, rules.TeamIDs, event.EventID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve team membership: %w", err)
		}
	}

	needPriorWinners := rules.NoRepeatPrize || rules.NoDuplicateParticipant || rules.NoDuplicateDepartment
	if needPriorWinners {
		records, err := s.winnerRepo.FindByRaffleEvent(ctx, event.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load prior winners: %w", err)
		}
		input.PriorWinners = make(map[primitive.ObjectID]struct{}, len(records))
		priorIDs := make([]primitive.ObjectID, 0, len(records))
		for _, record := range records {
			if _, seen := input.PriorWinners[record.ParticipantID]; !seen {
				priorIDs = append(priorIDs, record.ParticipantID)
			}
			input.PriorWinners[record.ParticipantID] = struct{}{}
		}

		if rules.NoDuplicateDepartment && len(priorIDs) > 0 {
			winners, err := s.participantRepo.FindByIDs(ctx, priorIDs)
			if err != nil {
				return nil, fmt.Errorf("failed to load prior winner departments: %w", err)
			}
			input.PriorWinnerDepartments = make(map[primitive.ObjectID]struct{})
			for _, w := range winners {
				if w.HasDepartment() {
					input.PriorWinnerDepartments[w.DepartmentID] = struct{}{}
				}
			}
		}
	}

	return input, nil
}

// SaveWinners durably commits a previewed selection. Validation happens
// before any mutation; winner-record inserts are idempotent get-or-creates so
// a double-submitted commit neither errors nor duplicates; eligibility is
// disabled only for records this call created. When an exclusion rule is in
// effect and another commit claimed one of the participants first, this
// call's writes are rolled back and ErrConcurrentModification is returned.
func (s *DrawServiceImpl) SaveWinners(ctx context.Context, prizeID primitive.ObjectID, input SaveWinnersInput) (*CommitResponse, error) {
	if len(input.ParticipantIDs) == 0 {
		return nil, &ValidationError{Message: "participant_ids is required"}
	}

	prize, event, err := s.loadPrize(ctx, prizeID)
	if err != nil {
		return nil, err
	}

	participants, err := s.validateParticipants(ctx, event, input.ParticipantIDs)
	if err != nil {
		return nil, err
	}

	exclusionApplies := input.RuleSnapshot.ExclusionApplies() || event.NoRepeatPrize
	created, err := s.awardPrize(ctx, prize, participants, input.Seed, exclusionApplies)
	if err != nil {
		return nil, err
	}

	// The log entry is the durable proof of the draw; it is appended only
	// after the winner records have persisted.
	logResult := input.Result
	logResult.SelectedParticipants = input.ParticipantIDs
	logResult.SelectedCount = len(input.ParticipantIDs)
	entry := &models.RaffleLog{
		RaffleEventID: event.ID,
		PrizeID:       prize.ID,
		Seed:          input.Seed,
		RuleSnapshot:  input.RuleSnapshot,
		Result:        logResult,
		Timestamp:     time.Now(),
	}
	if err := s.raffleLogRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append draw log entry: %w", err)
	}

	s.audit(ctx, event.OrgID, input.ActorID, "create", "WinnerRecord", prize.ID, map[string]interface{}{
		"prize_id":       prize.ID.Hex(),
		"selected_count": len(created),
		"seed":           input.Seed,
	})

	views := participantViews(participants)
	s.broadcastResult(event, prize, views, input.Seed, participants)

	slog.Info("winners committed",
		"prizeId", prize.ID.Hex(),
		"raffleEventId", event.ID.Hex(),
		"createdCount", len(created),
		"seed", input.Seed)

	return &CommitResponse{Success: true, CreatedCount: len(created), Participants: views}, nil
}

// AddParticipants is the manual award path: the operator names winners
// directly, bypassing pool filtering entirely. It shares the validation,
// idempotent-insert and eligibility-disable rules with SaveWinners, runs
// under a locally generated manual seed, and is not preceded by a preview.
func (s *DrawServiceImpl) AddParticipants(ctx context.Context, prizeID primitive.ObjectID, participantIDs []primitive.ObjectID, actorID string) (*CommitResponse, error) {
	if len(participantIDs) == 0 {
		return nil, &ValidationError{Message: "participant_ids is required"}
	}

	prize, event, err := s.loadPrize(ctx, prizeID)
	if err != nil {
		return nil, err
	}

	participants, err := s.validateParticipants(ctx, event, participantIDs)
	if err != nil {
		return nil, err
	}

	seed := GenerateManualSeed(prize.ID)
	// Exclusion rules do not apply here: manual awards may target anyone
	// in the event, eligible or not.
	created, err := s.awardPrize(ctx, prize, participants, seed, false)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, event.OrgID, actorID, "create", "WinnerRecord", prize.ID, map[string]interface{}{
		"prize_id":       prize.ID.Hex(),
		"selected_count": len(created),
		"seed":           seed,
		"manual":         true,
	})

	slog.Info("participants added manually",
		"prizeId", prize.ID.Hex(),
		"createdCount", len(created))

	return &CommitResponse{Success: true, CreatedCount: len(created), Participants: participantViews(participants)}, nil
}

// awardPrize performs the shared mutation sequence: idempotent winner-record
// upserts, then a conditional eligibility disable covering only the records
// this call created. With an exclusion rule active, a disable shortfall means
// a concurrent commit won; this call's records are removed, the participants
// it disabled are re-enabled and ErrConcurrentModification is returned.
func (s *DrawServiceImpl) awardPrize(ctx context.Context, prize *models.Prize, participants []*models.Participant, seed string, exclusionApplies bool) ([]primitive.ObjectID, error) {
	createdIDs := make([]primitive.ObjectID, 0, len(participants))
	for _, p := range participants {
		created, err := s.winnerRepo.Upsert(ctx, &models.WinnerRecord{
			PrizeID:       prize.ID,
			RaffleEventID: prize.RaffleEventID,
			ParticipantID: p.ID,
			SeedValue:     seed,
			SelectedAt:    time.Now(),
		})
		if err != nil {
			// Roll back this call's inserts so a storage failure never
			// leaves a partial winner set behind.
			s.rollbackAward(ctx, prize.ID, createdIDs, nil)
			return nil, fmt.Errorf("failed to create winner record: %w", err)
		}
		if created {
			createdIDs = append(createdIDs, p.ID)
		}
	}

	if len(createdIDs) == 0 {
		return createdIDs, nil
	}

	disabled, err := s.participantRepo.DisableEligibility(ctx, createdIDs)
	if err != nil {
		s.rollbackAward(ctx, prize.ID, createdIDs, disabled)
		return nil, fmt.Errorf("failed to disable eligibility: %w", err)
	}
	if exclusionApplies && len(disabled) < len(createdIDs) {
		s.rollbackAward(ctx, prize.ID, createdIDs, disabled)
		slog.Warn("commit lost eligibility race",
			"prizeId", prize.ID.Hex(),
			"expected", len(createdIDs),
			"disabled", len(disabled))
		return nil, ErrConcurrentModification
	}

	return createdIDs, nil
}

// rollbackAward undoes exactly what the failed call did: deletes the winner
// records it created and restores eligibility for the participants it
// disabled. Participants disabled by a competing commit are left alone.
func (s *DrawServiceImpl) rollbackAward(ctx context.Context, prizeID primitive.ObjectID, createdIDs, disabledIDs []primitive.ObjectID) {
	if err := s.winnerRepo.DeleteByPrizeAndParticipants(ctx, prizeID, createdIDs); err != nil {
		slog.Error("rollback: failed to delete winner records", "prizeId", prizeID.Hex(), "error", err)
	}
	if err := s.participantRepo.RestoreEligibility(ctx, disabledIDs); err != nil {
		slog.Error("rollback: failed to restore eligibility", "prizeId", prizeID.Hex(), "error", err)
	}
}

// ResetPrize deletes every winner record of one prize and restores
// eligibility for each affected participant who holds no other winner
// record. The justification is mandatory and recorded, together with the
// pre-deletion snapshot, before anything is removed.
func (s *DrawServiceImpl) ResetPrize(ctx context.Context, prizeID primitive.ObjectID, reason, actorID string) (*ResetResponse, error) {
	if err := validateReason(reason); err != nil {
		return nil, err
	}

	prize, event, err := s.loadPrize(ctx, prizeID)
	if err != nil {
		return nil, err
	}

	records, err := s.winnerRepo.FindByPrize(ctx, prize.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load winner records: %w", err)
	}

	participantIDs := recordParticipantIDs(records)

	// Snapshot goes into the audit trail before deletion so the reset can
	// be reconstructed even if a later step fails.
	s.audit(ctx, event.OrgID, actorID, "delete", "WinnerRecord", prize.ID, map[string]interface{}{
		"prize_id":      prize.ID.Hex(),
		"prize_name":    prize.Name,
		"deleted_count": len(records),
		"participants":  hexIDs(participantIDs),
		"reason":        strings.TrimSpace(reason),
		"reset":         true,
	})

	deleted, err := s.winnerRepo.DeleteByPrize(ctx, prize.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete winner records: %w", err)
	}

	if err := s.restoreExclusiveWinners(ctx, participantIDs); err != nil {
		return nil, err
	}

	slog.Info("prize reset", "prizeId", prize.ID.Hex(), "deleted", deleted)
	return &ResetResponse{Success: true, DeletedCount: int(deleted), PrizesAffected: 1}, nil
}

// ResetRaffleEvent resets every prize of a raffle event in one scope: all
// winner records in the event are deleted and all affected participants made
// eligible again.
func (s *DrawServiceImpl) ResetRaffleEvent(ctx context.Context, raffleEventID primitive.ObjectID, reason, actorID string) (*ResetResponse, error) {
	if err := validateReason(reason); err != nil {
		return nil, err
	}

	event, err := s.raffleEventRepo.FindByID(ctx, raffleEventID)
	if err != nil {
		return nil, notFoundOr(err, "failed to load raffle event")
	}

	records, err := s.winnerRepo.FindByRaffleEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load winner records: %w", err)
	}

	participantIDs := recordParticipantIDs(records)
	prizesAffected := make(map[primitive.ObjectID]int)
	for _, record := range records {
		prizesAffected[record.PrizeID]++
	}

	s.audit(ctx, event.OrgID, actorID, "delete", "WinnerRecord", event.ID, map[string]interface{}{
		"raffle_event_id":     event.ID.Hex(),
		"raffle_event_name":   event.Name,
		"total_deleted_count": len(records),
		"prizes_affected":     len(prizesAffected),
		"participants":        hexIDs(participantIDs),
		"reason":              strings.TrimSpace(reason),
		"reset_all":           true,
	})

	deleted, err := s.winnerRepo.DeleteByRaffleEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete winner records: %w", err)
	}

	if err := s.restoreExclusiveWinners(ctx, participantIDs); err != nil {
		return nil, err
	}

	slog.Info("raffle event reset",
		"raffleEventId", event.ID.Hex(),
		"deleted", deleted,
		"prizesAffected", len(prizesAffected))

	return &ResetResponse{Success: true, DeletedCount: int(deleted), PrizesAffected: len(prizesAffected)}, nil
}

// restoreExclusiveWinners re-enables the given participants except those who
// still hold a winner record elsewhere (a manual award on another prize, for
// example).
func (s *DrawServiceImpl) restoreExclusiveWinners(ctx context.Context, participantIDs []primitive.ObjectID) error {
	if len(participantIDs) == 0 {
		return nil
	}

	stillWinning, err := s.winnerRepo.FindParticipantIDsWithRecords(ctx, participantIDs)
	if err != nil {
		return fmt.Errorf("failed to check remaining winner records: %w", err)
	}

	restore := make([]primitive.ObjectID, 0, len(participantIDs))
	for _, id := range participantIDs {
		if _, held := stillWinning[id]; !held {
			restore = append(restore, id)
		}
	}
	if err := s.participantRepo.RestoreEligibility(ctx, restore); err != nil {
		return fmt.Errorf("failed to restore eligibility: %w", err)
	}
	return nil
}

// validateParticipants checks that every id exists and belongs to the
// prize's event and organization. No mutation happens on failure.
func (s *DrawServiceImpl) validateParticipants(ctx context.Context, event *models.RaffleEvent, ids []primitive.ObjectID) ([]*models.Participant, error) {
	unique := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	participants, err := s.participantRepo.FindByIDsInEvent(ctx, ids, event.OrgID, event.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to validate participants: %w", err)
	}
	if len(participants) != len(unique) {
		return nil, ErrInvalidParticipants
	}
	return participants, nil
}

func (s *DrawServiceImpl) loadPrize(ctx context.Context, prizeID primitive.ObjectID) (*models.Prize, *models.RaffleEvent, error) {
	prize, err := s.prizeRepo.FindByID(ctx, prizeID)
	if err != nil {
		return nil, nil, notFoundOr(err, "failed to load prize")
	}
	event, err := s.raffleEventRepo.FindByID(ctx, prize.RaffleEventID)
	if err != nil {
		return nil, nil, notFoundOr(err, "failed to load raffle event")
	}
	return prize, event, nil
}

// broadcastResult fans the committed outcome out to the raffle's room. The
// commit already persisted, so a broadcast failure is logged and swallowed:
// it must never make a successful commit look failed to the operator.
func (s *DrawServiceImpl) broadcastResult(event *models.RaffleEvent, prize *models.Prize, winners []models.WinnerView, seed string, participants []*models.Participant) {
	room := event.ID.Hex()
	s.broadcaster.Publish(room, ws.NewResultEvent(prize.ID.Hex(), winners, seed))

	entries := make([]ws.WinnersUpdateEntry, 0, len(participants))
	now := time.Now().Format(time.RFC3339)
	for _, p := range participants {
		entries = append(entries, ws.WinnersUpdateEntry{
			ID:              p.ID.Hex(),
			ParticipantName: p.Name,
			Department:      p.DepartmentName,
			SelectedAt:      now,
		})
	}
	s.broadcaster.Publish(room, ws.NewWinnersUpdateEvent(room, entries))
}

func (s *DrawServiceImpl) audit(ctx context.Context, orgID primitive.ObjectID, actorID, action, model string, objectID primitive.ObjectID, changes map[string]interface{}) {
	err := s.auditLogRepo.Create(ctx, &models.AuditLog{
		OrgID:     orgID,
		ActorID:   actorID,
		Action:    action,
		Model:     model,
		ObjectID:  objectID,
		Changes:   changes,
		Timestamp: time.Now(),
	})
	if err != nil {
		slog.Error("failed to write audit entry", "model", model, "action", action, "error", err)
	}
}

func validateReason(reason string) error {
	if len(strings.TrimSpace(reason)) < minResetReasonLength {
		return &ValidationError{Message: fmt.Sprintf("reason is required and must be at least %d characters", minResetReasonLength)}
	}
	return nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func participantViews(participants []*models.Participant) []models.WinnerView {
	views := make([]models.WinnerView, 0, len(participants))
	for _, p := range participants {
		views = append(views, p.View())
	}
	return views
}

func recordParticipantIDs(records []*models.WinnerRecord) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(records))
	ids := make([]primitive.ObjectID, 0, len(records))
	for _, record := range records {
		if _, ok := seen[record.ParticipantID]; ok {
			continue
		}
		seen[record.ParticipantID] = struct{}{}
		ids = append(ids, record.ParticipantID)
	}
	return ids
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}
