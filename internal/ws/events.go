package ws

import (
	"time"

	"github.com/raffleworks/raffle-backend/internal/models"
)

// Event types carried in the outbound envelope. Every frame a room delivers
// has a "type" discriminator the display clients switch on.
const (
	EventTypeResult        = "raffle_result"
	EventTypeControl       = "control_action"
	EventTypeWinnersUpdate = "winners_update"
	EventTypePong          = "pong"
)

// Control actions understood by display and controller clients. The payload
// under Data is opaque to the server.
const (
	ActionSpin            = "spin"
	ActionSave            = "save"
	ActionSelectPrize     = "select_prize"
	ActionSetDisplayCount = "set_display_count"
	ActionPlaySound       = "play_sound"
	ActionSpinState       = "spin_state"
)

// ResultEvent announces committed winners for a prize to the whole room.
type ResultEvent struct {
	Type    string              `json:"type"`
	PrizeID string              `json:"prize_id"`
	Winners []models.WinnerView `json:"winners"`
	Seed    string              `json:"seed"`
}

// NewResultEvent builds a raffle_result frame.
func NewResultEvent(prizeID string, winners []models.WinnerView, seed string) ResultEvent {
	return ResultEvent{Type: EventTypeResult, PrizeID: prizeID, Winners: winners, Seed: seed}
}

// ControlEvent carries an operator control action (spin, save, ...) with its
// action-specific payload.
type ControlEvent struct {
	Type      string                 `json:"type"`
	Action    string                 `json:"action"`
	Data      map[string]interface{} `json:"data"`
	Timestamp string                 `json:"timestamp"`
}

// NewControlEvent builds a control_action frame stamped with the current time.
func NewControlEvent(action string, data map[string]interface{}) ControlEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return ControlEvent{
		Type:      EventTypeControl,
		Action:    action,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// WinnersUpdateEntry is one row of an incremental winners-list refresh.
type WinnersUpdateEntry struct {
	ID              string `json:"id"`
	ParticipantName string `json:"participant_name"`
	Department      string `json:"department,omitempty"`
	SelectedAt      string `json:"selected_at"`
}

// WinnersUpdateEvent refreshes viewer winner lists after a commit.
type WinnersUpdateEvent struct {
	Type          string               `json:"type"`
	RaffleEventID string               `json:"raffle_event_id"`
	Winners       []WinnersUpdateEntry `json:"winners"`
	Timestamp     string               `json:"timestamp"`
}

// NewWinnersUpdateEvent builds a winners_update frame.
func NewWinnersUpdateEvent(raffleEventID string, winners []WinnersUpdateEntry) WinnersUpdateEvent {
	return WinnersUpdateEvent{
		Type:          EventTypeWinnersUpdate,
		RaffleEventID: raffleEventID,
		Winners:       winners,
		Timestamp:     time.Now().Format(time.RFC3339),
	}
}
