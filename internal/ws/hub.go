package ws

import (
	"log/slog"
	"sync"
)

// Session is one connected client's handle: anything that can receive a
// frame. The hub never closes sessions; their lifecycle belongs to the
// connection handler that joined them.
type Session interface {
	Send(event interface{}) error
}

// Broadcaster fans typed events out to every member of a raffle's room. The
// interface exists so the in-process hub can be replaced by an external
// broadcast bus without touching the draw services.
type Broadcaster interface {
	Join(room string, s Session)
	Leave(room string, s Session)
	Publish(room string, event interface{})
}

// Hub is the in-process Broadcaster: one membership set per raffle event id.
// Rooms hold no history, so a client joining after a publish never sees it;
// late joiners pull current state over HTTP instead.
//
// The hub lock only guards the room map. Fan-out runs under the room's own
// lock, so a slow member delays publishes to its room but never to others.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*room
}

type room struct {
	mu      sync.Mutex
	members map[Session]struct{}
}

var _ Broadcaster = (*Hub)(nil)

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room)}
}

// Join adds the session to the room, creating the room on first join.
func (h *Hub) Join(roomID string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[roomID]
	if !ok {
		rm = &room{members: make(map[Session]struct{})}
		h.rooms[roomID] = rm
	}
	rm.mu.Lock()
	rm.members[s] = struct{}{}
	rm.mu.Unlock()
}

// Leave removes the session and drops the room once the last member is gone,
// so an abandoned raffle does not pin memory. Membership changes happen under
// the hub lock so a room is never dropped while a joiner holds it.
func (h *Hub) Leave(roomID string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[roomID]
	if !ok {
		return
	}
	rm.mu.Lock()
	delete(rm.members, s)
	empty := len(rm.members) == 0
	rm.mu.Unlock()
	if empty {
		delete(h.rooms, roomID)
	}
}

// Publish delivers the event to every current member of the room. The room
// lock is held across the fan-out, which linearizes publishes per room: every
// member observes the same event order as the publish order. Delivery is best
// effort; a member whose send fails is skipped and will be cleaned up by its
// own handler.
func (h *Hub) Publish(roomID string, event interface{}) {
	h.mu.Lock()
	rm, ok := h.rooms[roomID]
	h.mu.Unlock()
	if !ok {
		return
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for member := range rm.members {
		if err := member.Send(event); err != nil {
			slog.Warn("room broadcast send failed", "room", roomID, "error", err)
		}
	}
}

// MemberCount reports the current size of a room.
func (h *Hub) MemberCount(roomID string) int {
	h.mu.Lock()
	rm, ok := h.rooms[roomID]
	h.mu.Unlock()
	if !ok {
		return 0
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.members)
}
