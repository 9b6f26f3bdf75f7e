package services

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the draw services. Handlers map these onto
// HTTP statuses; everything else is a 500.
var (
	// ErrNotFound means a referenced prize, raffle event or participant
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidParticipants means a commit payload referenced participants
	// outside the prize's event or organization. Nothing was mutated.
	ErrInvalidParticipants = errors.New("some participants not found or do not belong to this event")

	// ErrConcurrentModification means another commit disabled one of the
	// selected participants first. This commit rolled back; the caller
	// should re-run the preview and try again.
	ErrConcurrentModification = errors.New("participants were modified by a concurrent draw, re-run the selection")
)

// InsufficientCandidatesError reports a filtered pool smaller than the
// requested quantity. The selection never partially fills a prize.
type InsufficientCandidatesError struct {
	Required  int
	Available int
}

func (e *InsufficientCandidatesError) Error() string {
	return fmt.Sprintf("not enough eligible participants. Required: %d, Available: %d", e.Required, e.Available)
}

// ValidationError reports malformed operator input, such as a reset reason
// shorter than the required minimum.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
