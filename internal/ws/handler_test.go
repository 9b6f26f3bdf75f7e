package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/websocket"
)

func waitForMembers(t *testing.T, hub *Hub, room string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.MemberCount(room) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("room %q never reached %d members (have %d)", room, want, hub.MemberCount(room))
}

func TestServeStreamsRoomEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	router := gin.New()
	router.GET("/ws/raffle/:id", NewHandler(hub).Serve)

	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/raffle/raffle-1"
	conn, err := websocket.Dial(wsURL, "", srv.URL)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitForMembers(t, hub, "raffle-1", 1)
	decoder := json.NewDecoder(conn)

	t.Run("ping pong", func(t *testing.T) {
		if _, err := conn.Write([]byte(`{"type":"ping"}`)); err != nil {
			t.Fatalf("write ping: %v", err)
		}
		var frame map[string]interface{}
		if err := decoder.Decode(&frame); err != nil {
			t.Fatalf("read pong: %v", err)
		}
		if frame["type"] != EventTypePong {
			t.Fatalf("expected pong, got %v", frame["type"])
		}
	})

	t.Run("publish reaches the client", func(t *testing.T) {
		hub.Publish("raffle-1", NewControlEvent(ActionSpin, map[string]interface{}{"prize_id": "p1"}))

		var frame map[string]interface{}
		if err := decoder.Decode(&frame); err != nil {
			t.Fatalf("read broadcast: %v", err)
		}
		if frame["type"] != EventTypeControl {
			t.Fatalf("expected control_action, got %v", frame["type"])
		}
		if frame["action"] != ActionSpin {
			t.Fatalf("expected spin action, got %v", frame["action"])
		}
	})

	t.Run("disconnect leaves the room", func(t *testing.T) {
		conn.Close()
		waitForMembers(t, hub, "raffle-1", 0)
	})
}
