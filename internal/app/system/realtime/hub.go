// internal/app/system/realtime/hub.go
// Package realtime implements the room membership manager and the event
// fan-out dispatcher. A Hub instance is created at startup and handed to
// whatever layer needs to emit; tests construct a fresh Hub per case.
package realtime

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/teamline/internal/domain/events"
)

// Hub tracks live connections and their room memberships, and delivers
// events to every member of a target scope. All maps are guarded by one
// mutex; per-connection ordering comes from each Conn's buffered channel.
type Hub struct {
	log *zap.Logger

	mu    sync.RWMutex
	conns map[string]*Conn                // connection id -> conn
	rooms map[string]map[string]*Conn    // scope key -> connection id -> conn
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		log:   logger,
		conns: make(map[string]*Conn),
		rooms: make(map[string]map[string]*Conn),
	}
}

// Connect registers a new connection for an authenticated user and returns
// it. The connection id is server-generated; clients learn it from the
// connected envelope and echo it on HTTP mutations for echo suppression.
// Every connection is joined to its own user room immediately so unread
// events reach it without any client-side control message.
func (h *Hub) Connect(userID primitive.ObjectID) *Conn {
	c := &Conn{
		ID:     uuid.NewString(),
		UserID: userID,
		send:   make(chan []byte, sendBuffer),
		scopes: make(map[string]struct{}),
	}
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()
	h.join(c, events.UserScope(userID))
	return c
}

// JoinTeam adds the connection to the team room. Membership is not
// validated here; every mutating operation re-checks authorization, which
// keeps joins cheap and non-blocking.
func (h *Hub) JoinTeam(c *Conn, teamID primitive.ObjectID) {
	h.join(c, events.TeamScope(teamID))
}

// LeaveTeam removes the connection from the team room.
func (h *Hub) LeaveTeam(c *Conn, teamID primitive.ObjectID) {
	h.leave(c, events.TeamScope(teamID))
}

// JoinDiscussion adds the connection to a discussion room.
func (h *Hub) JoinDiscussion(c *Conn, discussionID primitive.ObjectID) {
	h.join(c, events.DiscussionScope(discussionID))
}

// LeaveDiscussion removes the connection from a discussion room.
func (h *Hub) LeaveDiscussion(c *Conn, discussionID primitive.ObjectID) {
	h.leave(c, events.DiscussionScope(discussionID))
}

// JoinChat adds the connection to a chat room.
func (h *Hub) JoinChat(c *Conn, chatID primitive.ObjectID) {
	h.join(c, events.ChatScope(chatID))
}

// LeaveChat removes the connection from a chat room.
func (h *Hub) LeaveChat(c *Conn, chatID primitive.ObjectID) {
	h.leave(c, events.ChatScope(chatID))
}

// join is idempotent: joining a scope twice leaves membership unchanged.
func (h *Hub) join(c *Conn, scope string) {
	if c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, live := h.conns[c.ID]; !live {
		return
	}
	room := h.rooms[scope]
	if room == nil {
		room = make(map[string]*Conn)
		h.rooms[scope] = room
	}
	room[c.ID] = c
	c.scopes[scope] = struct{}{}
}

// leave is a no-op when the connection does not hold the scope.
func (h *Hub) leave(c *Conn, scope string) {
	if c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(c, scope)
}

func (h *Hub) removeFromRoom(c *Conn, scope string) {
	delete(c.scopes, scope)
	room := h.rooms[scope]
	if room == nil {
		return
	}
	delete(room, c.ID)
	if len(room) == 0 {
		delete(h.rooms, scope)
	}
}

// Release removes the connection from every scope it holds, closes its
// send channel, and returns the ids of any team rooms it was joined to so
// the caller can flip presence offline for those (user, team) pairs.
func (h *Hub) Release(c *Conn) []primitive.ObjectID {
	if c == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, live := h.conns[c.ID]; !live {
		return nil
	}
	var teamIDs []primitive.ObjectID
	for scope := range c.scopes {
		if hex, ok := strings.CutPrefix(scope, "team-"); ok {
			if id, err := primitive.ObjectIDFromHex(hex); err == nil {
				teamIDs = append(teamIDs, id)
			}
		}
		h.removeFromRoom(c, scope)
	}
	delete(h.conns, c.ID)
	close(c.send)
	return teamIDs
}

// Scopes returns a snapshot of the scopes a connection currently holds.
func (h *Hub) Scopes(c *Conn) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(c.scopes))
	for s := range c.scopes {
		out = append(out, s)
	}
	return out
}

// Emit delivers the event to every connection joined to any of its scopes,
// excluding excludeConnID when it names a live connection. It never fails:
// a nil hub (transport not initialized yet) and marshal errors drop the
// event, and a receiver with a full queue loses this event rather than
// blocking the emitter. A connection joined to several target scopes
// receives the event once.
func (h *Hub) Emit(evt events.Event, excludeConnID string) {
	if h == nil {
		return
	}
	frame, err := json.Marshal(events.Envelope{Event: evt.Channel, Data: evt.Data})
	if err != nil {
		h.log.Error("event marshal failed", zap.String("channel", evt.Channel), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := make(map[string]struct{})
	for _, scope := range evt.Scopes {
		for id, c := range h.rooms[scope] {
			if id == excludeConnID {
				continue
			}
			if _, done := delivered[id]; done {
				continue
			}
			delivered[id] = struct{}{}
			select {
			case c.send <- frame:
			default:
				h.log.Warn("dropping event for slow connection",
					zap.String("connection_id", id),
					zap.String("channel", evt.Channel))
			}
		}
	}
}

// ConnectionCount reports the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// UserIDsInScope returns the distinct user ids with at least one live
// connection in the scope. The presence sweeper uses it to reconcile the
// persisted online flags against reality.
func (h *Hub) UserIDsInScope(scope string) []primitive.ObjectID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[primitive.ObjectID]struct{})
	var out []primitive.ObjectID
	for _, c := range h.rooms[scope] {
		if _, dup := seen[c.UserID]; dup {
			continue
		}
		seen[c.UserID] = struct{}{}
		out = append(out, c.UserID)
	}
	return out
}
