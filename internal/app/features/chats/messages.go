// internal/app/features/chats/messages.go
package chats

import (
	"context"
	"net/http"

	"github.com/dalemusser/teamline/internal/app/features/shared"
	"github.com/dalemusser/teamline/internal/app/policy/teampolicy"
	"github.com/dalemusser/teamline/internal/app/system/apperrors"
	"github.com/dalemusser/teamline/internal/app/system/authz"
	"github.com/dalemusser/teamline/internal/app/system/htmlsanitize"
	"github.com/dalemusser/teamline/internal/app/system/timeouts"
	"github.com/dalemusser/teamline/internal/domain/events"
	"github.com/dalemusser/teamline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type messageResponse struct {
	ID          string   `json:"id"`
	ChatID      string   `json:"chatId"`
	AuthorID    string   `json:"authorId"`
	Body        string   `json:"body"`
	ParentID    string   `json:"parentId,omitempty"`
	ThreadCount int      `json:"threadCount"`
	Edited      bool     `json:"edited"`
	FileURLs    []string `json:"fileUrls,omitempty"`
}

func toMessageResponse(m models.Message) messageResponse {
	resp := messageResponse{
		ID:          m.ID.Hex(),
		ChatID:      m.ChatID.Hex(),
		AuthorID:    m.AuthorID.Hex(),
		Body:        m.Body,
		ThreadCount: m.ThreadCount,
		Edited:      m.Edited,
		FileURLs:    m.FileURLs,
	}
	if m.ParentID != nil {
		resp.ParentID = m.ParentID.Hex()
	}
	return resp
}

// ServeListMessages handles GET /chats/{chatID}/messages.
func (h *Handler) ServeListMessages(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	chatID, ok := idParam(w, r, "chatID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := teampolicy.ResolveChat(ctx, h.DB, uid, chatID); err != nil {
		shared.RespondError(w, err)
		return
	}

	list, err := h.Messages.ListByChat(ctx, chatID)
	if err != nil {
		h.Log.Error("messages: list failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}
	out := make([]messageResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMessageResponse(m))
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

// ServeAddMessage handles POST /chats/{chatID}/messages. A parentId makes
// the message a thread reply; replies to replies are rejected.
func (h *Handler) ServeAddMessage(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	chatID, ok := idParam(w, r, "chatID")
	if !ok {
		return
	}
	var req struct {
		Body     string   `json:"body"`
		ParentID string   `json:"parentId"`
		FileURLs []string `json:"fileUrls"`
	}
	if !shared.DecodeJSON(w, r, &req) {
		return
	}
	body := htmlsanitize.Sanitize(req.Body)
	if body == "" && len(req.FileURLs) == 0 {
		shared.RespondError(w, apperrors.NewData("message body is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cc, err := teampolicy.ResolveChat(ctx, h.DB, uid, chatID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}

	var parentID *primitive.ObjectID
	if req.ParentID != "" {
		pid, err := primitive.ObjectIDFromHex(req.ParentID)
		if err != nil {
			shared.RespondError(w, apperrors.NewData("invalid parent id"))
			return
		}
		parent, err := h.Messages.GetByID(ctx, pid)
		if err == mongo.ErrNoDocuments || (err == nil && parent.ChatID != chatID) {
			shared.RespondError(w, apperrors.NewNotFound("message"))
			return
		}
		if err != nil {
			shared.RespondError(w, err)
			return
		}
		if parent.ParentID != nil {
			shared.RespondError(w, apperrors.NewData("threads are one level deep"))
			return
		}
		parentID = &pid
	}

	m, err := h.Messages.Create(ctx, models.Message{
		ChatID:   chatID,
		TeamID:   cc.Team.ID,
		AuthorID: uid,
		Body:     body,
		ParentID: parentID,
		FileURLs: req.FileURLs,
	})
	if err != nil {
		h.Log.Error("messages: create failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	evt := events.Message{
		ActionType: events.ActionAdded,
		MessageID:  m.ID.Hex(),
		ChatID:     chatID.Hex(),
		TeamID:     cc.Team.ID.Hex(),
		AuthorID:   uid.Hex(),
		Body:       m.Body,
	}
	if parentID != nil {
		evt.ParentID = parentID.Hex()
	}
	h.Hub.Emit(events.Event{
		Channel: events.ChannelMessage,
		Scopes:  []string{events.ChatScope(chatID)},
		Data:    evt,
	}, authz.ConnectionID(r))

	h.Notify.MessageAdded(ctx, cc.Chat, m, authz.ConnectionID(r))

	shared.RespondJSON(w, http.StatusCreated, toMessageResponse(m))
}

// ServeEditMessage handles PATCH /chats/{chatID}/messages/{messageID}.
// Author only.
func (h *Handler) ServeEditMessage(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	chatID, ok := idParam(w, r, "chatID")
	if !ok {
		return
	}
	messageID, ok := idParam(w, r, "messageID")
	if !ok {
		return
	}
	var req struct {
		Body string `json:"body"`
	}
	if !shared.DecodeJSON(w, r, &req) {
		return
	}
	body := htmlsanitize.Sanitize(req.Body)
	if body == "" {
		shared.RespondError(w, apperrors.NewData("message body is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cc, err := teampolicy.ResolveChat(ctx, h.DB, uid, chatID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	m, err := h.Messages.GetByID(ctx, messageID)
	if err == mongo.ErrNoDocuments || (err == nil && m.ChatID != chatID) {
		shared.RespondError(w, apperrors.NewNotFound("message"))
		return
	}
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if m.AuthorID != uid {
		shared.RespondError(w, apperrors.NewPermission("only the author can edit a message"))
		return
	}

	if err := h.Messages.UpdateBody(ctx, messageID, body); err != nil {
		h.Log.Error("messages: edit failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	h.Hub.Emit(events.Event{
		Channel: events.ChannelMessage,
		Scopes:  []string{events.ChatScope(chatID)},
		Data: events.Message{
			ActionType: events.ActionEdited,
			MessageID:  messageID.Hex(),
			ChatID:     chatID.Hex(),
			TeamID:     cc.Team.ID.Hex(),
			AuthorID:   uid.Hex(),
			Body:       body,
		},
	}, authz.ConnectionID(r))

	w.WriteHeader(http.StatusNoContent)
}

// ServeDeleteMessage handles DELETE /chats/{chatID}/messages/{messageID}.
// Author or team leader. Deleting a top-level message takes its whole reply
// thread with it, and every removed id is scrubbed from unread sets.
func (h *Handler) ServeDeleteMessage(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	chatID, ok := idParam(w, r, "chatID")
	if !ok {
		return
	}
	messageID, ok := idParam(w, r, "messageID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	cc, err := teampolicy.ResolveChat(ctx, h.DB, uid, chatID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	m, err := h.Messages.GetByID(ctx, messageID)
	if err == mongo.ErrNoDocuments || (err == nil && m.ChatID != chatID) {
		shared.RespondError(w, apperrors.NewNotFound("message"))
		return
	}
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if m.AuthorID != uid && !cc.IsLeader(uid) {
		shared.RespondError(w, apperrors.NewPermission("only the author or team leader can delete a message"))
		return
	}

	deletedIDs, fileURLs, err := h.Messages.DeleteWithThread(ctx, m)
	if err != nil {
		h.Log.Error("messages: delete failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	h.Notify.MessagesDeleted(ctx, cc.Chat, deletedIDs, authz.ConnectionID(r))
	h.deleteFiles(fileURLs)

	h.Hub.Emit(events.Event{
		Channel: events.ChannelMessage,
		Scopes:  []string{events.ChatScope(chatID)},
		Data: events.Message{
			ActionType: events.ActionDeleted,
			MessageID:  messageID.Hex(),
			ChatID:     chatID.Hex(),
			TeamID:     cc.Team.ID.Hex(),
			DeletedIDs: events.HexIDs(deletedIDs),
		},
	}, authz.ConnectionID(r))

	w.WriteHeader(http.StatusNoContent)
}

// ServeSeen handles POST /chats/{chatID}/messages/seen. Clears the actor's
// unread ids and tells each message's author their message was seen.
func (h *Handler) ServeSeen(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	chatID, ok := idParam(w, r, "chatID")
	if !ok {
		return
	}
	var req struct {
		MessageIDs []string `json:"messageIds"`
	}
	if !shared.DecodeJSON(w, r, &req) {
		return
	}
	messageIDs, err := parseIDList(req.MessageIDs)
	if err != nil {
		shared.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cc, err := teampolicy.ResolveChat(ctx, h.DB, uid, chatID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}

	h.Notify.MessagesSeen(ctx, uid, cc.Chat, messageIDs, authz.ConnectionID(r))
	w.WriteHeader(http.StatusNoContent)
}
