// internal/app/features/chats/chats.go
package chats

import (
	"context"
	"net/http"

	"github.com/dalemusser/teamline/internal/app/features/shared"
	"github.com/dalemusser/teamline/internal/app/policy/teampolicy"
	"github.com/dalemusser/teamline/internal/app/system/apperrors"
	"github.com/dalemusser/teamline/internal/app/system/authz"
	"github.com/dalemusser/teamline/internal/app/system/normalize"
	"github.com/dalemusser/teamline/internal/app/system/timeouts"
	"github.com/dalemusser/teamline/internal/domain/events"
	"github.com/dalemusser/teamline/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type chatResponse struct {
	ID        string   `json:"id"`
	TeamID    string   `json:"teamId"`
	Name      string   `json:"name"`
	CreatedBy string   `json:"createdBy"`
	MemberIDs []string `json:"memberIds"`
}

func toChatResponse(c models.Chat) chatResponse {
	return chatResponse{
		ID:        c.ID.Hex(),
		TeamID:    c.TeamID.Hex(),
		Name:      c.Name,
		CreatedBy: c.CreatedBy.Hex(),
		MemberIDs: events.HexIDs(c.MemberIDs),
	}
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		shared.RespondError(w, apperrors.NewData("missing user id"))
		return primitive.NilObjectID, false
	}
	return uid, true
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(normalize.Hex(chi.URLParam(r, name)))
	if err != nil {
		shared.RespondError(w, apperrors.NewData("invalid id"))
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseIDList(raw []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(raw))
	for _, s := range raw {
		id, err := primitive.ObjectIDFromHex(normalize.Hex(s))
		if err != nil {
			return nil, apperrors.NewData("invalid id %q", s)
		}
		out = append(out, id)
	}
	return out, nil
}

// ServeListByTeam handles GET /chats/team/{teamID}.
func (h *Handler) ServeListByTeam(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	teamID, ok := idParam(w, r, "teamID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := teampolicy.Resolve(ctx, h.DB, uid, teamID); err != nil {
		shared.RespondError(w, err)
		return
	}

	list, err := h.Chats.ListByTeam(ctx, teamID)
	if err != nil {
		h.Log.Error("chats: list failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}
	out := make([]chatResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toChatResponse(c))
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

// ServeCreate handles POST /chats/team/{teamID}.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	teamID, ok := idParam(w, r, "teamID")
	if !ok {
		return
	}
	var req struct {
		Name      string   `json:"name"`
		MemberIDs []string `json:"memberIds"`
	}
	if !shared.DecodeJSON(w, r, &req) {
		return
	}
	name := normalize.Name(req.Name)
	if name == "" {
		shared.RespondError(w, apperrors.NewData("chat name is required"))
		return
	}
	memberIDs, err := parseIDList(req.MemberIDs)
	if err != nil {
		shared.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tc, err := teampolicy.Resolve(ctx, h.DB, uid, teamID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	for _, id := range memberIDs {
		if !tc.IsMember(id) {
			shared.RespondError(w, apperrors.NewData("participant %s is not a team member", id.Hex()))
			return
		}
	}

	c, err := h.Chats.Create(ctx, models.Chat{
		TeamID:    teamID,
		Name:      name,
		CreatedBy: uid,
		MemberIDs: memberIDs,
	})
	if err != nil {
		h.Log.Error("chats: create failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	h.Hub.Emit(events.Event{
		Channel: events.ChannelChat,
		Scopes:  []string{events.TeamScope(teamID)},
		Data: events.Chat{
			ActionType: events.ActionAdded,
			ChatID:     c.ID.Hex(),
			TeamID:     teamID.Hex(),
			Name:       c.Name,
			CreatedBy:  uid.Hex(),
			MemberIDs:  events.HexIDs(c.MemberIDs),
		},
	}, authz.ConnectionID(r))

	shared.RespondJSON(w, http.StatusCreated, toChatResponse(c))
}

// ServeGet handles GET /chats/{chatID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	chatID, ok := idParam(w, r, "chatID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	cc, err := teampolicy.ResolveChat(ctx, h.DB, uid, chatID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toChatResponse(cc.Chat))
}

// ServeUpdate handles PATCH /chats/{chatID}. Creator or leader.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	chatID, ok := idParam(w, r, "chatID")
	if !ok {
		return
	}
	var req struct {
		Name      string   `json:"name"`
		MemberIDs []string `json:"memberIds"`
	}
	if !shared.DecodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cc, err := teampolicy.ResolveChat(ctx, h.DB, uid, chatID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if cc.Chat.CreatedBy != uid && !cc.IsLeader(uid) {
		shared.RespondError(w, apperrors.NewPermission("only the creator or team leader can edit a chat"))
		return
	}

	name := normalize.Name(req.Name)
	var memberIDs []primitive.ObjectID
	if req.MemberIDs != nil {
		memberIDs, err = parseIDList(req.MemberIDs)
		if err != nil {
			shared.RespondError(w, err)
			return
		}
		for _, id := range memberIDs {
			if !cc.IsMember(id) {
				shared.RespondError(w, apperrors.NewData("participant %s is not a team member", id.Hex()))
				return
			}
		}
	}

	if err := h.Chats.UpdateInfo(ctx, chatID, name, memberIDs); err != nil {
		h.Log.Error("chats: update failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	h.Hub.Emit(events.Event{
		Channel: events.ChannelChat,
		Scopes:  []string{events.TeamScope(cc.Team.ID)},
		Data: events.Chat{
			ActionType: events.ActionEdited,
			ChatID:     chatID.Hex(),
			TeamID:     cc.Team.ID.Hex(),
			Name:       name,
			MemberIDs:  events.HexIDs(memberIDs),
		},
	}, authz.ConnectionID(r))

	w.WriteHeader(http.StatusNoContent)
}

// ServeClear handles POST /chats/{chatID}/clear: remove every message but
// keep the chat. Creator or leader.
func (h *Handler) ServeClear(w http.ResponseWriter, r *http.Request) {
	h.clearOrDelete(w, r, false)
}

// ServeDelete handles DELETE /chats/{chatID}. Creator or leader.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	h.clearOrDelete(w, r, true)
}

func (h *Handler) clearOrDelete(w http.ResponseWriter, r *http.Request, deleteChat bool) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	chatID, ok := idParam(w, r, "chatID")
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
	if cc.Chat.CreatedBy != uid && !cc.IsLeader(uid) {
		shared.RespondError(w, apperrors.NewPermission("only the creator or team leader can clear or delete a chat"))
		return
	}

	messageIDs, fileURLs, err := h.Messages.DeleteByChat(ctx, chatID)
	if err != nil {
		h.Log.Error("chats: message cascade failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}
	action := events.ActionCleared
	if deleteChat {
		if err := h.Chats.Delete(ctx, chatID); err != nil {
			h.Log.Error("chats: delete failed", zap.Error(err))
			shared.RespondError(w, err)
			return
		}
		action = events.ActionDeleted
	}

	h.Notify.ChatCleared(ctx, cc.Chat, messageIDs, authz.ConnectionID(r))
	h.deleteFiles(fileURLs)

	h.Hub.Emit(events.Event{
		Channel: events.ChannelChat,
		Scopes:  []string{events.TeamScope(cc.Team.ID)},
		Data: events.Chat{
			ActionType: action,
			ChatID:     chatID.Hex(),
			TeamID:     cc.Team.ID.Hex(),
		},
	}, authz.ConnectionID(r))

	w.WriteHeader(http.StatusNoContent)
}
