package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/raffleworks/raffle-backend/internal/config"
	"github.com/raffleworks/raffle-backend/internal/ws"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ControlHandler relays operator control actions to a raffle's room. Control
// actions drive the display animation only; nothing here touches the
// database.
type ControlHandler struct {
	hub ws.Broadcaster
	cfg *config.Config
}

// NewControlHandler creates a new ControlHandler
func NewControlHandler(hub ws.Broadcaster, cfg *config.Config) *ControlHandler {
	return &ControlHandler{hub: hub, cfg: cfg}
}

// ControlRequest addresses a control action to one raffle's room.
type ControlRequest struct {
	RaffleEventID string                 `json:"raffle_event_id" binding:"required"`
	PrizeID       string                 `json:"prize_id"`
	Count         int                    `json:"count"`
	Data          map[string]interface{} `json:"data"`
}

func (r *ControlRequest) roomID() (string, error) {
	id, err := primitive.ObjectIDFromHex(r.RaffleEventID)
	if err != nil {
		return "", err
	}
	return id.Hex(), nil
}

// Spin handles POST /raffle/control/spin. The wheel animation on displays is
// driven by three frames: the spin action itself, a play_sound cue and
// spin_state on.
func (h *ControlHandler) Spin(c *gin.Context) {
	var request ControlRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room, err := request.roomID()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle_event_id format"})
		return
	}

	data := request.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	if request.PrizeID != "" {
		data["prize_id"] = request.PrizeID
	}

	h.hub.Publish(room, ws.NewControlEvent(ws.ActionSpin, data))
	h.hub.Publish(room, ws.NewControlEvent(ws.ActionPlaySound, map[string]interface{}{"sound": "spin"}))
	h.hub.Publish(room, ws.NewControlEvent(ws.ActionSpinState, map[string]interface{}{"spinning": true}))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Save handles POST /raffle/control/save. Signals displays to stop the
// animation; the durable commit goes through the save-winners endpoint.
func (h *ControlHandler) Save(c *gin.Context) {
	var request ControlRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room, err := request.roomID()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle_event_id format"})
		return
	}

	h.hub.Publish(room, ws.NewControlEvent(ws.ActionSave, request.Data))
	h.hub.Publish(room, ws.NewControlEvent(ws.ActionSpinState, map[string]interface{}{"spinning": false}))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SelectPrize handles POST /raffle/control/select-prize
func (h *ControlHandler) SelectPrize(c *gin.Context) {
	var request ControlRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room, err := request.roomID()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle_event_id format"})
		return
	}
	if request.PrizeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prize_id is required"})
		return
	}

	h.hub.Publish(room, ws.NewControlEvent(ws.ActionSelectPrize, map[string]interface{}{"prize_id": request.PrizeID}))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SetDisplayCount handles POST /raffle/control/set-display-count
func (h *ControlHandler) SetDisplayCount(c *gin.Context) {
	var request ControlRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room, err := request.roomID()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle_event_id format"})
		return
	}
	if request.Count < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be at least 1"})
		return
	}

	h.hub.Publish(room, ws.NewControlEvent(ws.ActionSetDisplayCount, map[string]interface{}{"count": request.Count}))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ControlURL handles GET /raffle/control/qr-code. Returns the controller URL
// for a raffle so the frontend can render it as a QR code.
func (h *ControlHandler) ControlURL(c *gin.Context) {
	raffleEventID, err := primitive.ObjectIDFromHex(c.Query("raffle_event_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle_event_id format"})
		return
	}

	url := fmt.Sprintf("%s/raffle/%s/control", h.cfg.Raffle.PublicBaseURL, raffleEventID.Hex())
	c.JSON(http.StatusOK, gin.H{"url": url})
}
