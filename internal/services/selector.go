package services

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/rand"
	"time"

	"github.com/raffleworks/raffle-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SelectionInput carries everything a selection needs. The selector itself
// performs no I/O: the caller snapshots the pool and the prior-winner sets,
// and the same input with the same seed always produces the same winners.
type SelectionInput struct {
	Prize *models.Prize
	// Rules is the fully merged rule set: raffle event defaults, prize
	// rules, request overrides and the event's noRepeatPrize flag.
	Rules models.RuleSet
	// Pool is the ordered eligible snapshot (isRaffleEligible == true,
	// same event and org as the prize).
	Pool []*models.Participant
	// TeamMembers holds event-scoped membership for Rules.TeamIDs.
	TeamMembers map[primitive.ObjectID]struct{}
	// PriorWinners and PriorWinnerDepartments describe winner records that
	// already exist anywhere in the raffle event.
	PriorWinners           map[primitive.ObjectID]struct{}
	PriorWinnerDepartments map[primitive.ObjectID]struct{}
	TotalParticipants      int
	// Quantity falls back to the prize quantity when zero.
	Quantity int
	// Seed is generated when empty.
	Seed string
}

// SelectionResult is the outcome of one selection run.
type SelectionResult struct {
	Winners           []*models.Participant
	Seed              string
	RuleSnapshot      models.RuleSnapshot
	EligibleCount     int
	TotalParticipants int
}

// SelectWinners filters the pool through the rule chain and samples the
// requested quantity with a generator seeded from the seed string. Rules are
// cumulative AND filters, applied in a fixed order: team, department,
// no-repeat exclusion, department de-duplication. The department rule also
// holds within one draw: the seeded permutation is walked in order and a
// candidate whose department is already taken by an earlier pick is skipped.
// It never partially selects: when the quantity cannot be filled,
// InsufficientCandidatesError reports how many winners were reachable.
func SelectWinners(input SelectionInput) (*SelectionResult, error) {
	quantity := input.Quantity
	if quantity <= 0 {
		quantity = input.Prize.Quantity
	}
	seed := input.Seed
	if seed == "" {
		seed = GenerateSeed(input.Prize.ID)
	}

	rules := input.Rules
	snapshot := models.RuleSnapshot{
		NoDuplicateParticipant: rules.NoDuplicateParticipant,
		NoDuplicateDepartment:  rules.NoDuplicateDepartment,
		FilterByTeam:           rules.FilterByTeam,
		FilterByDepartment:     rules.FilterByDepartment,
		NoRepeatPrize:          rules.NoRepeatPrize,
	}

	eligible := make([]*models.Participant, 0, len(input.Pool))
	departments := make(map[primitive.ObjectID]struct{}, len(rules.DepartmentIDs))
	for _, id := range rules.DepartmentIDs {
		departments[id] = struct{}{}
	}

	for _, p := range input.Pool {
		if rules.FilterByTeam && len(rules.TeamIDs) > 0 {
			if _, ok := input.TeamMembers[p.ID]; !ok {
				continue
			}
		}
		if rules.FilterByDepartment && len(departments) > 0 {
			if _, ok := departments[p.DepartmentID]; !ok {
				continue
			}
		}
		if snapshot.ExclusionApplies() {
			if _, ok := input.PriorWinners[p.ID]; ok {
				continue
			}
		}
		if rules.NoDuplicateDepartment && p.HasDepartment() {
			if _, ok := input.PriorWinnerDepartments[p.DepartmentID]; ok {
				continue
			}
		}
		eligible = append(eligible, p)
	}

	if len(eligible) < quantity {
		return nil, &InsufficientCandidatesError{Required: quantity, Available: len(eligible)}
	}

	r := rand.New(rand.NewSource(seedSource(seed)))
	winners := make([]*models.Participant, 0, quantity)
	taken := make(map[primitive.ObjectID]struct{}, quantity)
	for _, idx := range r.Perm(len(eligible)) {
		p := eligible[idx]
		if rules.NoDuplicateDepartment && p.HasDepartment() {
			if _, ok := taken[p.DepartmentID]; ok {
				continue
			}
			taken[p.DepartmentID] = struct{}{}
		}
		winners = append(winners, p)
		if len(winners) == quantity {
			break
		}
	}
	if len(winners) < quantity {
		return nil, &InsufficientCandidatesError{Required: quantity, Available: len(winners)}
	}

	return &SelectionResult{
		Winners:           winners,
		Seed:              seed,
		RuleSnapshot:      snapshot,
		EligibleCount:     len(eligible),
		TotalParticipants: input.TotalParticipants,
	}, nil
}

// GenerateSeed builds a practically unique seed for one draw attempt by
// hashing the current time, a random value and the prize id. The seed is an
// audit token, not a secret.
func GenerateSeed(prizeID primitive.ObjectID) string {
	combined := fmt.Sprintf("%s_%d_%s", time.Now().Format(time.RFC3339Nano), rand.Int63(), prizeID.Hex())
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:])
}

// GenerateManualSeed builds the seed for the manual add-participants path,
// tagged so the log distinguishes manual awards from drawn ones.
func GenerateManualSeed(prizeID primitive.ObjectID) string {
	combined := fmt.Sprintf("%s_%s_manual", time.Now().Format(time.RFC3339Nano), prizeID.Hex())
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:]) + "_manual"
}

// seedSource maps a seed string onto a deterministic PRNG source value.
func seedSource(seed string) int64 {
	sum := sha256.Sum256([]byte(seed))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}
