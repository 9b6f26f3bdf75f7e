package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/websocket"
)

// peer wraps one websocket connection with a write lock so concurrent room
// publishes cannot interleave frames on the wire.
type peer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newPeer(conn *websocket.Conn) *peer {
	return &peer{encoder: json.NewEncoder(conn)}
}

// Send implements Session.
func (p *peer) Send(event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(event)
}

// inboundFrame is the only message shape clients send on the stream; control
// commands travel over the authenticated HTTP surface instead.
type inboundFrame struct {
	Type string `json:"type"`
}

// pongFrame answers a liveness ping.
type pongFrame struct {
	Type string `json:"type"`
}

// Handler serves the realtime endpoint: one connection per client,
// parameterized by raffle event id.
type Handler struct {
	hub Broadcaster
}

// NewHandler creates a websocket Handler over the given broadcaster.
func NewHandler(hub Broadcaster) *Handler {
	return &Handler{hub: hub}
}

// Serve handles GET /ws/raffle/:id. Display and controller pages connect
// anonymously; everything they can do over the stream is receive events and
// ping.
func (h *Handler) Serve(c *gin.Context) {
	raffleID := c.Param("id")
	if raffleID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "raffle id is required"})
		return
	}

	server := websocket.Server{
		// The display runs on a different origin than the API, so the
		// default origin check is relaxed here; the stream is read-only.
		Handshake: func(config *websocket.Config, r *http.Request) error { return nil },
		Handler: func(conn *websocket.Conn) {
			h.handleConn(raffleID, conn)
		},
	}
	server.ServeHTTP(c.Writer, c.Request)
}

func (h *Handler) handleConn(raffleID string, conn *websocket.Conn) {
	defer conn.Close()

	session := newPeer(conn)
	h.hub.Join(raffleID, session)
	// Membership must be released on every exit path, including abnormal
	// disconnects and panics in the read loop.
	defer h.hub.Leave(raffleID, session)

	slog.Info("client joined raffle room", "raffleId", raffleID)
	defer slog.Info("client left raffle room", "raffleId", raffleID)

	decoder := json.NewDecoder(conn)
	for {
		var frame inboundFrame
		if err := decoder.Decode(&frame); err != nil {
			if err != io.EOF {
				slog.Debug("websocket read ended", "raffleId", raffleID, "error", err)
			}
			return
		}
		if frame.Type == "ping" {
			if err := session.Send(pongFrame{Type: EventTypePong}); err != nil {
				return
			}
		}
	}
}
