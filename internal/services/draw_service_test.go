package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/raffleworks/raffle-backend/internal/models"
	"github.com/raffleworks/raffle-backend/internal/ws"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// In-memory fakes over the repository interfaces. They mirror the semantics
// the mongo implementations promise: conditional eligibility flips, unique
// (prizeId, participantId) upserts, event-scoped lookups.

type fakeEventRepo struct {
	events map[primitive.ObjectID]*models.RaffleEvent
}

func (f *fakeEventRepo) Create(_ context.Context, event *models.RaffleEvent) error {
	f.events[event.ID] = event
	return nil
}

func (f *fakeEventRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.RaffleEvent, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return event, nil
}

func (f *fakeEventRepo) FindByOrg(_ context.Context, orgID primitive.ObjectID) ([]*models.RaffleEvent, error) {
	var out []*models.RaffleEvent
	for _, e := range f.events {
		if e.OrgID == orgID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakePrizeRepo struct {
	prizes map[primitive.ObjectID]*models.Prize
}

func (f *fakePrizeRepo) Create(_ context.Context, prize *models.Prize) error {
	f.prizes[prize.ID] = prize
	return nil
}

func (f *fakePrizeRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Prize, error) {
	prize, ok := f.prizes[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return prize, nil
}

func (f *fakePrizeRepo) FindByRaffleEvent(_ context.Context, raffleEventID primitive.ObjectID) ([]*models.Prize, error) {
	var out []*models.Prize
	for _, p := range f.prizes {
		if p.RaffleEventID == raffleEventID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeParticipantRepo struct {
	// order preserves insertion order so pool snapshots are stable.
	order        []primitive.ObjectID
	participants map[primitive.ObjectID]*models.Participant
}

func (f *fakeParticipantRepo) CreateMany(_ context.Context, participants []*models.Participant) error {
	for _, p := range participants {
		f.order = append(f.order, p.ID)
		f.participants[p.ID] = p
	}
	return nil
}

func (f *fakeParticipantRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.Participant, error) {
	var out []*models.Participant
	for _, id := range ids {
		if p, ok := f.participants[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) FindByIDsInEvent(_ context.Context, ids []primitive.ObjectID, orgID, eventID primitive.ObjectID) ([]*models.Participant, error) {
	seen := make(map[primitive.ObjectID]struct{})
	var out []*models.Participant
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := f.participants[id]; ok && p.OrgID == orgID && p.EventID == eventID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) FindEligibleByEvent(_ context.Context, orgID, eventID primitive.ObjectID) ([]*models.Participant, error) {
	var out []*models.Participant
	for _, id := range f.order {
		p := f.participants[id]
		if p.OrgID == orgID && p.EventID == eventID && p.IsRaffleEligible {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) CountByEvent(_ context.Context, orgID, eventID primitive.ObjectID) (int64, error) {
	var n int64
	for _, p := range f.participants {
		if p.OrgID == orgID && p.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (f *fakeParticipantRepo) DisableEligibility(_ context.Context, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	var flipped []primitive.ObjectID
	for _, id := range ids {
		p, ok := f.participants[id]
		if !ok || !p.IsRaffleEligible {
			continue
		}
		p.IsRaffleEligible = false
		flipped = append(flipped, id)
	}
	return flipped, nil
}

func (f *fakeParticipantRepo) RestoreEligibility(_ context.Context, ids []primitive.ObjectID) error {
	for _, id := range ids {
		if p, ok := f.participants[id]; ok {
			p.IsRaffleEligible = true
		}
	}
	return nil
}

type fakeTeamMemberRepo struct {
	members map[primitive.ObjectID]struct{}
}

func (f *fakeTeamMemberRepo) FindParticipantIDsByTeams(_ context.Context, _ []primitive.ObjectID, _ primitive.ObjectID) (map[primitive.ObjectID]struct{}, error) {
	return f.members, nil
}

type fakeWinnerRepo struct {
	records []*models.WinnerRecord
}

func (f *fakeWinnerRepo) Upsert(_ context.Context, record *models.WinnerRecord) (bool, error) {
	for _, r := range f.records {
		if r.PrizeID == record.PrizeID && r.ParticipantID == record.ParticipantID {
			return false, nil
		}
	}
	record.ID = primitive.NewObjectID()
	f.records = append(f.records, record)
	return true, nil
}

func (f *fakeWinnerRepo) FindByPrize(_ context.Context, prizeID primitive.ObjectID) ([]*models.WinnerRecord, error) {
	var out []*models.WinnerRecord
	for _, r := range f.records {
		if r.PrizeID == prizeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeWinnerRepo) FindByRaffleEvent(_ context.Context, raffleEventID primitive.ObjectID) ([]*models.WinnerRecord, error) {
	var out []*models.WinnerRecord
	for _, r := range f.records {
		if r.RaffleEventID == raffleEventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeWinnerRepo) CountByPrize(_ context.Context, prizeID primitive.ObjectID) (int64, error) {
	var n int64
	for _, r := range f.records {
		if r.PrizeID == prizeID {
			n++
		}
	}
	return n, nil
}

func (f *fakeWinnerRepo) DeleteByPrize(_ context.Context, prizeID primitive.ObjectID) (int64, error) {
	kept := f.records[:0]
	var deleted int64
	for _, r := range f.records {
		if r.PrizeID == prizeID {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	f.records = kept
	return deleted, nil
}

func (f *fakeWinnerRepo) DeleteByRaffleEvent(_ context.Context, raffleEventID primitive.ObjectID) (int64, error) {
	kept := f.records[:0]
	var deleted int64
	for _, r := range f.records {
		if r.RaffleEventID == raffleEventID {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	f.records = kept
	return deleted, nil
}

func (f *fakeWinnerRepo) DeleteByPrizeAndParticipants(_ context.Context, prizeID primitive.ObjectID, participantIDs []primitive.ObjectID) error {
	targets := make(map[primitive.ObjectID]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		targets[id] = struct{}{}
	}
	kept := f.records[:0]
	for _, r := range f.records {
		if r.PrizeID == prizeID {
			if _, ok := targets[r.ParticipantID]; ok {
				continue
			}
		}
		kept = append(kept, r)
	}
	f.records = kept
	return nil
}

func (f *fakeWinnerRepo) FindParticipantIDsWithRecords(_ context.Context, participantIDs []primitive.ObjectID) (map[primitive.ObjectID]struct{}, error) {
	targets := make(map[primitive.ObjectID]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		targets[id] = struct{}{}
	}
	out := make(map[primitive.ObjectID]struct{})
	for _, r := range f.records {
		if _, ok := targets[r.ParticipantID]; ok {
			out[r.ParticipantID] = struct{}{}
		}
	}
	return out, nil
}

type fakeRaffleLogRepo struct {
	entries []*models.RaffleLog
}

func (f *fakeRaffleLogRepo) Create(_ context.Context, entry *models.RaffleLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeRaffleLogRepo) FindByRaffleEvent(_ context.Context, raffleEventID primitive.ObjectID) ([]*models.RaffleLog, error) {
	var out []*models.RaffleLog
	for _, e := range f.entries {
		if e.RaffleEventID == raffleEventID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeAuditLogRepo struct {
	entries []*models.AuditLog
}

func (f *fakeAuditLogRepo) Create(_ context.Context, entry *models.AuditLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeBroadcaster struct {
	published []publishedEvent
}

type publishedEvent struct {
	room  string
	event interface{}
}

func (f *fakeBroadcaster) Join(string, ws.Session)  {}
func (f *fakeBroadcaster) Leave(string, ws.Session) {}

func (f *fakeBroadcaster) Publish(room string, event interface{}) {
	f.published = append(f.published, publishedEvent{room: room, event: event})
}

type fixture struct {
	svc          *DrawServiceImpl
	event        *models.RaffleEvent
	prize        *models.Prize
	participants []*models.Participant

	participantRepo *fakeParticipantRepo
	winnerRepo      *fakeWinnerRepo
	raffleLogRepo   *fakeRaffleLogRepo
	auditRepo       *fakeAuditLogRepo
	broadcaster     *fakeBroadcaster
	prizeRepo       *fakePrizeRepo
}

func newFixture(t *testing.T, poolSize int) *fixture {
	t.Helper()

	orgID := primitive.NewObjectID()
	eventID := primitive.NewObjectID()
	event := &models.RaffleEvent{
		ID:      primitive.NewObjectID(),
		OrgID:   orgID,
		EventID: eventID,
		Name:    "year end party",
	}
	prize := &models.Prize{
		ID:            primitive.NewObjectID(),
		RaffleEventID: event.ID,
		RoundNumber:   1,
		Name:          "grand prize",
		Quantity:      2,
	}

	eventRepo := &fakeEventRepo{events: map[primitive.ObjectID]*models.RaffleEvent{event.ID: event}}
	prizeRepo := &fakePrizeRepo{prizes: map[primitive.ObjectID]*models.Prize{prize.ID: prize}}
	participantRepo := &fakeParticipantRepo{participants: make(map[primitive.ObjectID]*models.Participant)}
	teamRepo := &fakeTeamMemberRepo{}
	winnerRepo := &fakeWinnerRepo{}
	raffleLogRepo := &fakeRaffleLogRepo{}
	auditRepo := &fakeAuditLogRepo{}
	broadcaster := &fakeBroadcaster{}

	participants := make([]*models.Participant, 0, poolSize)
	for i := 0; i < poolSize; i++ {
		participants = append(participants, &models.Participant{
			ID:               primitive.NewObjectID(),
			OrgID:            orgID,
			EventID:          eventID,
			Name:             "participant",
			IsRaffleEligible: true,
		})
	}
	if err := participantRepo.CreateMany(context.Background(), participants); err != nil {
		t.Fatalf("seed participants: %v", err)
	}

	svc := NewDrawService(eventRepo, prizeRepo, participantRepo, teamRepo, winnerRepo, raffleLogRepo, auditRepo, broadcaster)

	return &fixture{
		svc:             svc,
		event:           event,
		prize:           prize,
		participants:    participants,
		participantRepo: participantRepo,
		winnerRepo:      winnerRepo,
		raffleLogRepo:   raffleLogRepo,
		auditRepo:       auditRepo,
		broadcaster:     broadcaster,
		prizeRepo:       prizeRepo,
	}
}

func (f *fixture) ids(indexes ...int) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(indexes))
	for _, i := range indexes {
		ids = append(ids, f.participants[i].ID)
	}
	return ids
}

func TestPreviewWinnersIsPure(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	response, err := f.svc.PreviewWinners(ctx, f.prize.ID, 0, nil)
	if err != nil {
		t.Fatalf("PreviewWinners: %v", err)
	}
	if len(response.Winners) != f.prize.Quantity {
		t.Fatalf("expected %d winners, got %d", f.prize.Quantity, len(response.Winners))
	}
	if response.Seed == "" {
		t.Fatal("expected a seed in the preview")
	}
	if response.Result.TotalParticipants != 10 || response.Result.EligibleCount != 10 {
		t.Fatalf("unexpected counts: %+v", response.Result)
	}

	if len(f.winnerRepo.records) != 0 {
		t.Fatal("preview persisted winner records")
	}
	if len(f.raffleLogRepo.entries) != 0 {
		t.Fatal("preview appended a log entry")
	}
	if len(f.broadcaster.published) != 0 {
		t.Fatal("preview broadcast to the room")
	}
	for _, p := range f.participants {
		if !p.IsRaffleEligible {
			t.Fatal("preview mutated eligibility")
		}
	}
}

func TestPreviewWinnersUnknownPrize(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.svc.PreviewWinners(context.Background(), primitive.NewObjectID(), 0, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveWinnersCommitIsIdempotent(t *testing.T) {
	f := newFixture(t, 6)
	ctx := context.Background()

	input := SaveWinnersInput{
		ParticipantIDs: f.ids(0, 1),
		Seed:           "commit-seed",
		RuleSnapshot:   models.RuleSnapshot{NoDuplicateParticipant: true},
		Result:         models.DrawResult{EligibleCount: 6, TotalParticipants: 6},
		ActorID:        "op-1",
	}

	first, err := f.svc.SaveWinners(ctx, f.prize.ID, input)
	if err != nil {
		t.Fatalf("SaveWinners: %v", err)
	}
	if first.CreatedCount != 2 {
		t.Fatalf("expected created count 2, got %d", first.CreatedCount)
	}
	if len(f.winnerRepo.records) != 2 {
		t.Fatalf("expected 2 winner records, got %d", len(f.winnerRepo.records))
	}
	for _, i := range []int{0, 1} {
		if f.participants[i].IsRaffleEligible {
			t.Fatalf("winner %d still eligible after commit", i)
		}
	}
	if len(f.raffleLogRepo.entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(f.raffleLogRepo.entries))
	}
	// raffle_result plus winners_update
	if len(f.broadcaster.published) != 2 {
		t.Fatalf("expected 2 broadcast frames, got %d", len(f.broadcaster.published))
	}
	if f.broadcaster.published[0].room != f.event.ID.Hex() {
		t.Fatalf("broadcast went to wrong room: %s", f.broadcaster.published[0].room)
	}

	// Same payload again: no new records, created count reports zero.
	second, err := f.svc.SaveWinners(ctx, f.prize.ID, input)
	if err != nil {
		t.Fatalf("retried SaveWinners: %v", err)
	}
	if second.CreatedCount != 0 {
		t.Fatalf("retried commit created %d records", second.CreatedCount)
	}
	if len(f.winnerRepo.records) != 2 {
		t.Fatalf("retry duplicated records: %d", len(f.winnerRepo.records))
	}
}

func TestSaveWinnersConcurrentModification(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	// A competing commit already claimed participant 0.
	f.participants[0].IsRaffleEligible = false

	input := SaveWinnersInput{
		ParticipantIDs: f.ids(0, 1),
		Seed:           "race-seed",
		RuleSnapshot:   models.RuleSnapshot{NoRepeatPrize: true},
	}

	_, err := f.svc.SaveWinners(ctx, f.prize.ID, input)
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}

	if len(f.winnerRepo.records) != 0 {
		t.Fatalf("lost commit left %d winner records behind", len(f.winnerRepo.records))
	}
	// Participant 1 was disabled by this call and must be restored;
	// participant 0 stays as the competing commit left it.
	if !f.participants[1].IsRaffleEligible {
		t.Fatal("rollback did not restore participant 1")
	}
	if f.participants[0].IsRaffleEligible {
		t.Fatal("rollback touched a participant it did not disable")
	}
	if len(f.raffleLogRepo.entries) != 0 {
		t.Fatal("failed commit appended a log entry")
	}
}

func TestSaveWinnersWithoutExclusionToleratesIneligible(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	f.participants[0].IsRaffleEligible = false

	input := SaveWinnersInput{
		ParticipantIDs: f.ids(0, 1),
		Seed:           "open-seed",
	}

	response, err := f.svc.SaveWinners(ctx, f.prize.ID, input)
	if err != nil {
		t.Fatalf("SaveWinners: %v", err)
	}
	if response.CreatedCount != 2 {
		t.Fatalf("expected created count 2, got %d", response.CreatedCount)
	}
	if len(f.winnerRepo.records) != 2 {
		t.Fatalf("expected 2 winner records, got %d", len(f.winnerRepo.records))
	}
}

func TestSaveWinnersDisjointSetsBothSucceed(t *testing.T) {
	f := newFixture(t, 6)
	ctx := context.Background()

	first, err := f.svc.SaveWinners(ctx, f.prize.ID, SaveWinnersInput{
		ParticipantIDs: f.ids(0, 1),
		Seed:           "seed-a",
	})
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}

	secondPrize := &models.Prize{
		ID:            primitive.NewObjectID(),
		RaffleEventID: f.event.ID,
		RoundNumber:   2,
		Name:          "second prize",
		Quantity:      2,
	}
	f.prizeRepo.prizes[secondPrize.ID] = secondPrize

	second, err := f.svc.SaveWinners(ctx, secondPrize.ID, SaveWinnersInput{
		ParticipantIDs: f.ids(2, 3),
		Seed:           "seed-b",
	})
	if err != nil {
		t.Fatalf("second commit: %v", err)
	}

	if first.CreatedCount != 2 || second.CreatedCount != 2 {
		t.Fatalf("expected both commits to create 2 records, got %d and %d", first.CreatedCount, second.CreatedCount)
	}
	// Eligibility disabled for the union of both sets, nobody else.
	for i := 0; i < 4; i++ {
		if f.participants[i].IsRaffleEligible {
			t.Fatalf("participant %d still eligible", i)
		}
	}
	for i := 4; i < 6; i++ {
		if !f.participants[i].IsRaffleEligible {
			t.Fatalf("untouched participant %d lost eligibility", i)
		}
	}
}

func TestSaveWinnersSamePrizeDisjointSetsBothSucceed(t *testing.T) {
	f := newFixture(t, 6)
	ctx := context.Background()

	first, err := f.svc.SaveWinners(ctx, f.prize.ID, SaveWinnersInput{
		ParticipantIDs: f.ids(0, 1),
		Seed:           "seed-a",
	})
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}

	second, err := f.svc.SaveWinners(ctx, f.prize.ID, SaveWinnersInput{
		ParticipantIDs: f.ids(2, 3),
		Seed:           "seed-b",
	})
	if err != nil {
		t.Fatalf("second commit: %v", err)
	}

	if first.CreatedCount != 2 || second.CreatedCount != 2 {
		t.Fatalf("expected both commits to create 2 records, got %d and %d", first.CreatedCount, second.CreatedCount)
	}
	records, err := f.winnerRepo.FindByPrize(ctx, f.prize.ID)
	if err != nil {
		t.Fatalf("FindByPrize: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 winner records on the prize, got %d", len(records))
	}
	// Eligibility disabled for the union of both sets, nobody else.
	for i := 0; i < 4; i++ {
		if f.participants[i].IsRaffleEligible {
			t.Fatalf("participant %d still eligible", i)
		}
	}
	for i := 4; i < 6; i++ {
		if !f.participants[i].IsRaffleEligible {
			t.Fatalf("untouched participant %d lost eligibility", i)
		}
	}
}

func TestSaveWinnersRejectsUnknownParticipants(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	input := SaveWinnersInput{
		ParticipantIDs: []primitive.ObjectID{f.participants[0].ID, primitive.NewObjectID()},
		Seed:           "bad-seed",
	}

	_, err := f.svc.SaveWinners(ctx, f.prize.ID, input)
	if !errors.Is(err, ErrInvalidParticipants) {
		t.Fatalf("expected ErrInvalidParticipants, got %v", err)
	}
	if len(f.winnerRepo.records) != 0 {
		t.Fatal("rejected commit wrote winner records")
	}
	for _, p := range f.participants {
		if !p.IsRaffleEligible {
			t.Fatal("rejected commit mutated eligibility")
		}
	}
}

func TestSaveWinnersRequiresParticipants(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.svc.SaveWinners(context.Background(), f.prize.ID, SaveWinnersInput{Seed: "s"})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAddParticipantsManualPath(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	// Manual awards may target ineligible participants.
	f.participants[2].IsRaffleEligible = false

	response, err := f.svc.AddParticipants(ctx, f.prize.ID, f.ids(2, 3), "op-1")
	if err != nil {
		t.Fatalf("AddParticipants: %v", err)
	}
	if response.CreatedCount != 2 {
		t.Fatalf("expected created count 2, got %d", response.CreatedCount)
	}
	for _, r := range f.winnerRepo.records {
		if !strings.HasSuffix(r.SeedValue, "_manual") {
			t.Fatalf("manual award recorded an unmarked seed: %q", r.SeedValue)
		}
	}
	// The manual path writes no draw log and broadcasts nothing.
	if len(f.raffleLogRepo.entries) != 0 {
		t.Fatal("manual award appended a draw log entry")
	}
	if len(f.broadcaster.published) != 0 {
		t.Fatal("manual award broadcast to the room")
	}
	if len(f.auditRepo.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(f.auditRepo.entries))
	}
}

func TestResetPrizeRestoresExclusiveWinners(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	if _, err := f.svc.SaveWinners(ctx, f.prize.ID, SaveWinnersInput{
		ParticipantIDs: f.ids(0, 1),
		Seed:           "seed-a",
	}); err != nil {
		t.Fatalf("SaveWinners: %v", err)
	}

	// Participant 1 also won a second prize; the reset of prize one must not
	// make them eligible again.
	secondPrize := &models.Prize{
		ID:            primitive.NewObjectID(),
		RaffleEventID: f.event.ID,
		RoundNumber:   2,
		Name:          "second prize",
		Quantity:      1,
	}
	f.prizeRepo.prizes[secondPrize.ID] = secondPrize
	if _, err := f.svc.AddParticipants(ctx, secondPrize.ID, f.ids(1), "op-1"); err != nil {
		t.Fatalf("AddParticipants: %v", err)
	}

	response, err := f.svc.ResetPrize(ctx, f.prize.ID, "wrong rule configuration", "op-1")
	if err != nil {
		t.Fatalf("ResetPrize: %v", err)
	}
	if response.DeletedCount != 2 || response.PrizesAffected != 1 {
		t.Fatalf("unexpected reset response: %+v", response)
	}

	if !f.participants[0].IsRaffleEligible {
		t.Fatal("participant 0 not restored")
	}
	if f.participants[1].IsRaffleEligible {
		t.Fatal("participant 1 restored despite a remaining winner record")
	}
	remaining, _ := f.winnerRepo.FindByPrize(ctx, f.prize.ID)
	if len(remaining) != 0 {
		t.Fatalf("reset left %d records on the prize", len(remaining))
	}

	// The audit snapshot precedes the deletion.
	var found bool
	for _, entry := range f.auditRepo.entries {
		if entry.Changes["reset"] == true {
			found = true
			if entry.Changes["deleted_count"] != 2 {
				t.Fatalf("audit snapshot has wrong count: %v", entry.Changes["deleted_count"])
			}
		}
	}
	if !found {
		t.Fatal("reset wrote no audit snapshot")
	}
}

func TestResetPrizeRequiresReason(t *testing.T) {
	f := newFixture(t, 3)

	_, err := f.svc.ResetPrize(context.Background(), f.prize.ID, "too short", "op-1")
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	_, err = f.svc.ResetPrize(context.Background(), f.prize.ID, "   padded but short   ", "op-1")
	if err != nil {
		t.Fatalf("trimmed reason of sufficient length rejected: %v", err)
	}
}

func TestResetRaffleEventCoversAllPrizes(t *testing.T) {
	f := newFixture(t, 6)
	ctx := context.Background()

	secondPrize := &models.Prize{
		ID:            primitive.NewObjectID(),
		RaffleEventID: f.event.ID,
		RoundNumber:   2,
		Name:          "second prize",
		Quantity:      1,
	}
	f.prizeRepo.prizes[secondPrize.ID] = secondPrize

	if _, err := f.svc.SaveWinners(ctx, f.prize.ID, SaveWinnersInput{ParticipantIDs: f.ids(0, 1), Seed: "seed-a"}); err != nil {
		t.Fatalf("SaveWinners: %v", err)
	}
	if _, err := f.svc.SaveWinners(ctx, secondPrize.ID, SaveWinnersInput{ParticipantIDs: f.ids(2), Seed: "seed-b"}); err != nil {
		t.Fatalf("SaveWinners: %v", err)
	}

	response, err := f.svc.ResetRaffleEvent(ctx, f.event.ID, "restarting the whole drawing", "op-1")
	if err != nil {
		t.Fatalf("ResetRaffleEvent: %v", err)
	}
	if response.DeletedCount != 3 || response.PrizesAffected != 2 {
		t.Fatalf("unexpected reset response: %+v", response)
	}
	if len(f.winnerRepo.records) != 0 {
		t.Fatalf("event reset left %d records", len(f.winnerRepo.records))
	}
	for i := 0; i < 3; i++ {
		if !f.participants[i].IsRaffleEligible {
			t.Fatalf("participant %d not restored by event reset", i)
		}
	}
}

func TestPreviewAfterExclusionCommitShrinksPool(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	f.event.NoRepeatPrize = true

	first, err := f.svc.PreviewWinners(ctx, f.prize.ID, 2, nil)
	if err != nil {
		t.Fatalf("PreviewWinners: %v", err)
	}
	ids := make([]primitive.ObjectID, 0, len(first.Winners))
	for _, w := range first.Winners {
		ids = append(ids, w.ID)
	}
	if _, err := f.svc.SaveWinners(ctx, f.prize.ID, SaveWinnersInput{
		ParticipantIDs: ids,
		Seed:           first.Seed,
		RuleSnapshot:   first.RuleSnapshot,
		Result:         first.Result,
	}); err != nil {
		t.Fatalf("SaveWinners: %v", err)
	}

	second, err := f.svc.PreviewWinners(ctx, f.prize.ID, 2, nil)
	if err != nil {
		t.Fatalf("second PreviewWinners: %v", err)
	}
	if second.Result.EligibleCount != 2 {
		t.Fatalf("expected shrunken pool of 2, got %d", second.Result.EligibleCount)
	}
	for _, w := range second.Winners {
		for _, prior := range ids {
			if w.ID == prior {
				t.Fatalf("prior winner %s offered again", prior.Hex())
			}
		}
	}
}
