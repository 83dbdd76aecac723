// internal/app/features/teams/members.go
package teams

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/teamline/internal/app/features/shared"
	"github.com/dalemusser/teamline/internal/app/policy/teampolicy"
	teamstore "github.com/dalemusser/teamline/internal/app/store/teams"
	"github.com/dalemusser/teamline/internal/app/system/apperrors"
	"github.com/dalemusser/teamline/internal/app/system/authz"
	"github.com/dalemusser/teamline/internal/app/system/normalize"
	"github.com/dalemusser/teamline/internal/app/system/timeouts"
	"github.com/dalemusser/teamline/internal/domain/events"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type memberResponse struct {
	UserID   string `json:"userId"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	IsLeader bool   `json:"isLeader"`
}

// ServeMembers handles GET /teams/{teamID}/members.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	teamID, ok := teamIDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tc, err := teampolicy.Resolve(ctx, h.DB, uid, teamID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}

	out := make([]memberResponse, 0, len(tc.MemberIDs))
	for _, id := range tc.MemberIDs {
		u, err := h.Users.GetByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, memberResponse{
			UserID:   u.ID.Hex(),
			FullName: u.FullName,
			Email:    u.Email,
			IsLeader: tc.IsLeader(u.ID),
		})
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

// ServeInvite handles POST /teams/{teamID}/invitations. Leader only. The
// invitee hears about it on their user room.
func (h *Handler) ServeInvite(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	teamID, ok := teamIDParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if !shared.DecodeJSON(w, r, &req) {
		return
	}
	email := normalize.Email(req.Email)
	if email == "" {
		shared.RespondError(w, apperrors.NewData("email is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tc, err := teampolicy.Resolve(ctx, h.DB, uid, teamID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if !tc.IsLeader(uid) {
		shared.RespondError(w, apperrors.NewPermission("only the team leader can invite members"))
		return
	}

	invitee, err := h.Users.GetByEmail(ctx, email)
	if err == mongo.ErrNoDocuments {
		shared.RespondError(w, apperrors.NewNotFound("user"))
		return
	}
	if err != nil {
		h.Log.Error("teams: invitee lookup failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	if err := h.Teams.Invite(ctx, teamID, invitee.ID); err != nil {
		if errors.Is(err, teamstore.ErrDuplicateMembership) {
			shared.RespondError(w, apperrors.NewData("user already belongs to this team"))
			return
		}
		h.Log.Error("teams: invite failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	h.Hub.Emit(events.Event{
		Channel: events.ChannelTeam,
		Scopes:  []string{events.UserScope(invitee.ID)},
		Data: events.Team{
			ActionType: events.ActionInvited,
			TeamID:     teamID.Hex(),
			UserID:     invitee.ID.Hex(),
			Name:       tc.Team.Name,
		},
	}, authz.ConnectionID(r))

	w.WriteHeader(http.StatusNoContent)
}

// ServeAccept handles POST /teams/{teamID}/invitations/accept. The actor
// accepts their own invitation, so this is the one team endpoint that skips
// the membership gate.
func (h *Handler) ServeAccept(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	teamID, ok := teamIDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Teams.Accept(ctx, teamID, uid); err != nil {
		if errors.Is(err, teamstore.ErrBadTransition) {
			shared.RespondError(w, apperrors.NewData("no pending invitation for this team"))
			return
		}
		h.Log.Error("teams: accept failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	h.Hub.Emit(events.Event{
		Channel: events.ChannelTeam,
		Scopes:  []string{events.TeamScope(teamID)},
		Data: events.Team{
			ActionType: events.ActionJoined,
			TeamID:     teamID.Hex(),
			UserID:     uid.Hex(),
		},
	}, authz.ConnectionID(r))

	w.WriteHeader(http.StatusNoContent)
}

// ServeRemoveMember handles DELETE /teams/{teamID}/members/{userID}. The
// leader can remove anyone but themselves; a member can remove only
// themselves (leave).
func (h *Handler) ServeRemoveMember(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	teamID, ok := teamIDParam(w, r)
	if !ok {
		return
	}
	targetID, err := primitive.ObjectIDFromHex(normalize.Hex(chi.URLParam(r, "userID")))
	if err != nil {
		shared.RespondError(w, apperrors.NewData("invalid user id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tc, err := teampolicy.Resolve(ctx, h.DB, uid, teamID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if targetID == tc.Team.LeaderID {
		shared.RespondError(w, apperrors.NewData("the team leader cannot be removed"))
		return
	}
	if uid != targetID && !tc.IsLeader(uid) {
		shared.RespondError(w, apperrors.NewPermission("only the team leader can remove other members"))
		return
	}

	if err := h.Teams.Remove(ctx, teamID, targetID); err != nil {
		if errors.Is(err, teamstore.ErrBadTransition) {
			shared.RespondError(w, apperrors.NewNotFound("membership"))
			return
		}
		h.Log.Error("teams: remove member failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	h.Hub.Emit(events.Event{
		Channel: events.ChannelTeam,
		Scopes:  []string{events.TeamScope(teamID), events.UserScope(targetID)},
		Data: events.Team{
			ActionType: events.ActionRemoved,
			TeamID:     teamID.Hex(),
			UserID:     targetID.Hex(),
		},
	}, authz.ConnectionID(r))

	w.WriteHeader(http.StatusNoContent)
}
