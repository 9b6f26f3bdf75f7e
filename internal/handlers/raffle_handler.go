package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/raffleworks/raffle-backend/internal/models"
	"github.com/raffleworks/raffle-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RaffleHandler handles draw operations and raffle read endpoints.
type RaffleHandler struct {
	drawService   services.DrawService
	raffleService services.RaffleService
}

// NewRaffleHandler creates a new RaffleHandler
func NewRaffleHandler(drawService services.DrawService, raffleService services.RaffleService) *RaffleHandler {
	return &RaffleHandler{
		drawService:   drawService,
		raffleService: raffleService,
	}
}

// SelectRequest is the body of POST /prizes/:id/select.
type SelectRequest struct {
	Quantity int             `json:"quantity"`
	Rules    *models.RuleSet `json:"rules"`
}

// SaveWinnersRequest hands a previewed payload back for commit.
type SaveWinnersRequest struct {
	ParticipantIDs []string            `json:"participant_ids" binding:"required"`
	Seed           string              `json:"seed" binding:"required"`
	RuleSnapshot   models.RuleSnapshot `json:"rule_snapshot"`
	Result         models.DrawResult   `json:"result"`
}

// AddParticipantsRequest is the body of the manual award path.
type AddParticipantsRequest struct {
	ParticipantIDs []string `json:"participant_ids" binding:"required"`
}

// ResetRequest carries the operator's reason for a reset.
type ResetRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// SelectWinners handles POST /prizes/:id/select. Pure preview: nothing is
// written, nothing is broadcast, the response goes to this caller only.
func (h *RaffleHandler) SelectWinners(c *gin.Context) {
	prizeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prize ID format"})
		return
	}

	var request SelectRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.drawService.PreviewWinners(c.Request.Context(), prizeID, request.Quantity, request.Rules)
	if err != nil {
		respondDrawError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// SaveWinners handles POST /prizes/:id/save-winners. Idempotent: a retried
// commit reports created_count 0.
func (h *RaffleHandler) SaveWinners(c *gin.Context) {
	prizeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prize ID format"})
		return
	}

	var request SaveWinnersRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participantIDs, err := parseObjectIDs(request.ParticipantIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid participant ID format"})
		return
	}

	input := services.SaveWinnersInput{
		ParticipantIDs: participantIDs,
		Seed:           request.Seed,
		RuleSnapshot:   request.RuleSnapshot,
		Result:         request.Result,
		ActorID:        operatorID(c),
	}
	response, err := h.drawService.SaveWinners(c.Request.Context(), prizeID, input)
	if err != nil {
		respondDrawError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// AddParticipants handles POST /prizes/:id/add-participants, the manual
// award path. Operator-chosen winners, no rule filtering.
func (h *RaffleHandler) AddParticipants(c *gin.Context) {
	prizeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prize ID format"})
		return
	}

	var request AddParticipantsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participantIDs, err := parseObjectIDs(request.ParticipantIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid participant ID format"})
		return
	}

	response, err := h.drawService.AddParticipants(c.Request.Context(), prizeID, participantIDs, operatorID(c))
	if err != nil {
		respondDrawError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ResetPrize handles POST /prizes/:id/reset.
func (h *RaffleHandler) ResetPrize(c *gin.Context) {
	prizeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prize ID format"})
		return
	}

	var request ResetRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.drawService.ResetPrize(c.Request.Context(), prizeID, request.Reason, operatorID(c))
	if err != nil {
		respondDrawError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ResetRaffleEvent handles POST /raffle-events/:id/reset-all-prizes.
func (h *RaffleHandler) ResetRaffleEvent(c *gin.Context) {
	raffleEventID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle event ID format"})
		return
	}

	var request ResetRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.drawService.ResetRaffleEvent(c.Request.Context(), raffleEventID, request.Reason, operatorID(c))
	if err != nil {
		respondDrawError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetPublicInfo handles GET /raffle-events/:id/public-info
func (h *RaffleHandler) GetPublicInfo(c *gin.Context) {
	raffleEventID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle event ID format"})
		return
	}

	event, err := h.raffleService.GetRaffleEvent(c.Request.Context(), raffleEventID)
	if err != nil {
		respondDrawError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          event.ID.Hex(),
		"name":        event.Name,
		"description": event.Description,
	})
}

// ListPublicPrizes handles GET /prizes/public-list?raffle_event=
func (h *RaffleHandler) ListPublicPrizes(c *gin.Context) {
	raffleEventID, err := primitive.ObjectIDFromHex(c.Query("raffle_event"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle_event format"})
		return
	}

	prizes, err := h.raffleService.ListPrizes(c.Request.Context(), raffleEventID)
	if err != nil {
		respondDrawError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prizes": prizes})
}

// GetPublicPrize handles GET /prizes/:id/public-detail
func (h *RaffleHandler) GetPublicPrize(c *gin.Context) {
	prizeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid prize ID format"})
		return
	}

	prize, err := h.raffleService.GetPrize(c.Request.Context(), prizeID)
	if err != nil {
		respondDrawError(c, err)
		return
	}
	c.JSON(http.StatusOK, prize)
}

// ListPublicWinners handles GET /winners/public-list?raffle_event=. This is
// what reconnecting display clients pull, since the stream never replays.
func (h *RaffleHandler) ListPublicWinners(c *gin.Context) {
	raffleEventID, err := primitive.ObjectIDFromHex(c.Query("raffle_event"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle_event format"})
		return
	}

	winners, err := h.raffleService.ListWinners(c.Request.Context(), raffleEventID)
	if err != nil {
		respondDrawError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"winners": winners})
}

// ListEligibleParticipants handles GET /raffle-events/:id/eligible-participants
func (h *RaffleHandler) ListEligibleParticipants(c *gin.Context) {
	raffleEventID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle event ID format"})
		return
	}

	participants, err := h.raffleService.ListEligibleParticipants(c.Request.Context(), raffleEventID)
	if err != nil {
		respondDrawError(c, err)
		return
	}

	views := make([]models.WinnerView, 0, len(participants))
	for _, p := range participants {
		views = append(views, p.View())
	}
	c.JSON(http.StatusOK, gin.H{"participants": views, "count": len(views)})
}

// ListLogs handles GET /raffle-logs?raffle_event=
func (h *RaffleHandler) ListLogs(c *gin.Context) {
	raffleEventID, err := primitive.ObjectIDFromHex(c.Query("raffle_event"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle_event format"})
		return
	}

	logs, err := h.raffleService.ListLogs(c.Request.Context(), raffleEventID)
	if err != nil {
		respondDrawError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// ExportLogs handles GET /raffle-logs/export?raffle_event_id=
func (h *RaffleHandler) ExportLogs(c *gin.Context) {
	raffleEventID, err := primitive.ObjectIDFromHex(c.Query("raffle_event_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raffle_event_id format"})
		return
	}

	rows, err := h.raffleService.ExportReport(c.Request.Context(), raffleEventID)
	if err != nil {
		respondDrawError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
}

// respondDrawError maps service errors onto HTTP statuses.
func respondDrawError(c *gin.Context, err error) {
	var insufficient *services.InsufficientCandidatesError
	var validation *services.ValidationError

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Not found"})
	case errors.Is(err, services.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "Winners were modified concurrently, please retry"})
	case errors.Is(err, services.ErrInvalidParticipants):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "One or more participants are unknown or out of scope"})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusBadRequest, gin.H{
			"success":        false,
			"error":          insufficient.Error(),
			"availableCount": insufficient.Available,
		})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": validation.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
	}
}

func parseObjectIDs(hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func operatorID(c *gin.Context) string {
	if v, ok := c.Get("operatorID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
