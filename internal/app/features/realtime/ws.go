// internal/app/features/realtime/ws.go
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dalemusser/teamline/internal/app/policy/teampolicy"
	"github.com/dalemusser/teamline/internal/app/system/auth"
	"github.com/dalemusser/teamline/internal/app/system/realtime"
	"github.com/dalemusser/teamline/internal/app/system/timeouts"
	"github.com/dalemusser/teamline/internal/domain/events"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxControlMessageSize = 4096
)

// controlMessage is what the client sends: join/leave room commands plus
// the typing and online-status signals.
type controlMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type typingPayload struct {
	ChatID string `json:"chatId"`
	Typing bool   `json:"typing"`
}

type onlineStatusPayload struct {
	TeamID string `json:"teamId"`
	Online bool   `json:"online"`
}

// ServeWS handles GET /ws. The handshake is accepted first and the session
// checked after, so an unauthenticated client receives a proper close frame
// instead of a failed upgrade it cannot distinguish from a network error.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	su, ok := auth.CurrentUser(r)
	if !ok {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication required"),
			time.Now().Add(writeWait))
		_ = ws.Close()
		return
	}
	userID, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid session"),
			time.Now().Add(writeWait))
		_ = ws.Close()
		return
	}

	conn := h.Hub.Connect(userID)
	h.Log.Info("websocket connected",
		zap.String("conn_id", conn.ID),
		zap.String("user_id", userID.Hex()))

	// Handshake: the client echoes ConnectionID in X-Connection-ID on its
	// HTTP mutations so its own events are not reflected back.
	hello, _ := json.Marshal(events.Envelope{
		Event: events.ChannelConnected,
		Data:  events.Connected{ConnectionID: conn.ID, UserID: userID.Hex()},
	})
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteMessage(websocket.TextMessage, hello); err != nil {
		h.release(conn, userID)
		_ = ws.Close()
		return
	}

	go h.writePump(ws, conn)
	h.readLoop(ws, conn, userID)
}

// writePump moves frames from the hub to the socket and keeps the
// connection alive with pings. It exits when the hub closes the send
// channel on release.
func (h *Handler) writePump(ws *websocket.Conn, conn *realtime.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()

	for {
		select {
		case frame, ok := <-conn.Send():
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop applies the client's control messages until the socket drops,
// then releases the connection and flips presence off for every team room
// the connection still held.
func (h *Handler) readLoop(ws *websocket.Conn, conn *realtime.Conn, userID primitive.ObjectID) {
	defer h.release(conn, userID)

	ws.SetReadLimit(maxControlMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg controlMessage
		if err := ws.ReadJSON(&msg); err != nil {
			return
		}
		h.handleControl(conn, userID, msg)
	}
}

func (h *Handler) release(conn *realtime.Conn, userID primitive.ObjectID) {
	teamIDs := h.Hub.Release(conn)
	if len(teamIDs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
	defer cancel()
	for _, teamID := range teamIDs {
		h.Notify.OnlineStatusChanged(ctx, userID, teamID, false, "")
	}
}

func (h *Handler) handleControl(conn *realtime.Conn, userID primitive.ObjectID, msg controlMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()

	switch msg.Event {
	case "joinTeamRoom":
		teamID, ok := h.dataID(msg.Data)
		if !ok {
			return
		}
		if _, err := teampolicy.Resolve(ctx, h.DB, userID, teamID); err != nil {
			h.Log.Debug("joinTeamRoom denied",
				zap.String("user_id", userID.Hex()),
				zap.String("team_id", teamID.Hex()),
				zap.Error(err))
			return
		}
		h.Hub.JoinTeam(conn, teamID)

	case "leaveTeamRoom":
		if teamID, ok := h.dataID(msg.Data); ok {
			h.Hub.LeaveTeam(conn, teamID)
		}

	case "joinDiscussionRoom":
		discussionID, ok := h.dataID(msg.Data)
		if !ok {
			return
		}
		if _, err := teampolicy.ResolveDiscussion(ctx, h.DB, userID, discussionID); err != nil {
			return
		}
		h.Hub.JoinDiscussion(conn, discussionID)

	case "leaveDiscussionRoom":
		if discussionID, ok := h.dataID(msg.Data); ok {
			h.Hub.LeaveDiscussion(conn, discussionID)
		}

	case "joinChatRoom":
		chatID, ok := h.dataID(msg.Data)
		if !ok {
			return
		}
		if _, err := teampolicy.ResolveChat(ctx, h.DB, userID, chatID); err != nil {
			return
		}
		h.Hub.JoinChat(conn, chatID)

	case "leaveChatRoom":
		if chatID, ok := h.dataID(msg.Data); ok {
			h.Hub.LeaveChat(conn, chatID)
		}

	case "typing":
		var p typingPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		chatID, err := primitive.ObjectIDFromHex(p.ChatID)
		if err != nil {
			return
		}
		if _, err := teampolicy.ResolveChat(ctx, h.DB, userID, chatID); err != nil {
			return
		}
		h.Notify.Typing(userID, chatID, p.Typing, conn.ID)

	case "onlineStatus":
		var p onlineStatusPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return
		}
		teamID, err := primitive.ObjectIDFromHex(p.TeamID)
		if err != nil {
			return
		}
		if _, err := teampolicy.Resolve(ctx, h.DB, userID, teamID); err != nil {
			return
		}
		h.Notify.OnlineStatusChanged(ctx, userID, teamID, p.Online, conn.ID)

	default:
		h.Log.Debug("unknown control message",
			zap.String("event", msg.Event),
			zap.String("user_id", userID.Hex()))
	}
}

// dataID parses a control message's data field as a hex object id string.
func (h *Handler) dataID(raw json.RawMessage) (primitive.ObjectID, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
