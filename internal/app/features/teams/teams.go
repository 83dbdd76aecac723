// internal/app/features/teams/teams.go
package teams

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

type teamResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LeaderID string `json:"leaderId"`
	Status   string `json:"status"`
}

func toTeamResponse(t models.Team) teamResponse {
	return teamResponse{
		ID:       t.ID.Hex(),
		Name:     t.Name,
		LeaderID: t.LeaderID.Hex(),
		Status:   t.Status,
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

func teamIDParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(normalize.Hex(chi.URLParam(r, "teamID")))
	if err != nil {
		shared.RespondError(w, apperrors.NewData("invalid team id"))
		return primitive.NilObjectID, false
	}
	return id, true
}

// ServeList handles GET /teams: the actor's teams.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ids, err := h.Teams.TeamIDsForUser(ctx, uid)
	if err != nil {
		h.Log.Error("teams: list failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	out := make([]teamResponse, 0, len(ids))
	for _, id := range ids {
		t, err := h.Teams.GetByID(ctx, id)
		if err != nil {
			continue // membership row may outlive a just-deleted team
		}
		out = append(out, toTeamResponse(t))
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

// ServeCreate handles POST /teams. The actor becomes the leader and gets an
// accepted membership row in the same transaction.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !shared.DecodeJSON(w, r, &req) {
		return
	}
	name := normalize.Name(req.Name)
	if name == "" {
		shared.RespondError(w, apperrors.NewData("team name is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	team, err := h.Teams.Create(ctx, models.Team{Name: name, LeaderID: uid})
	if err != nil {
		h.Log.Error("teams: create failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toTeamResponse(team))
}

// ServeGet handles GET /teams/{teamID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	teamID, ok := teamIDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	tc, err := teampolicy.Resolve(ctx, h.DB, uid, teamID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toTeamResponse(tc.Team))
}

// ServeUpdate handles PATCH /teams/{teamID}. Leader only.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	teamID, ok := teamIDParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !shared.DecodeJSON(w, r, &req) {
		return
	}
	name := normalize.Name(req.Name)
	if name == "" {
		shared.RespondError(w, apperrors.NewData("team name is required"))
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
		shared.RespondError(w, apperrors.NewPermission("only the team leader can rename the team"))
		return
	}

	if err := h.Teams.UpdateName(ctx, teamID, name); err != nil {
		h.Log.Error("teams: rename failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	h.Hub.Emit(events.Event{
		Channel: events.ChannelTeam,
		Scopes:  []string{events.TeamScope(teamID)},
		Data: events.Team{
			ActionType: events.ActionEdited,
			TeamID:     teamID.Hex(),
			Name:       name,
		},
	}, authz.ConnectionID(r))

	w.WriteHeader(http.StatusNoContent)
}

// ServeDelete handles DELETE /teams/{teamID}. Leader only. Membership rows
// go with the team; discussion and chat content is removed through their
// own endpoints first by the client, so stragglers are tolerated.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	teamID, ok := teamIDParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	tc, err := teampolicy.Resolve(ctx, h.DB, uid, teamID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if !tc.IsLeader(uid) {
		shared.RespondError(w, apperrors.NewPermission("only the team leader can delete the team"))
		return
	}

	if err := h.Teams.Delete(ctx, teamID); err != nil {
		h.Log.Error("teams: delete failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	h.Hub.Emit(events.Event{
		Channel: events.ChannelTeam,
		Scopes:  []string{events.TeamScope(teamID)},
		Data: events.Team{
			ActionType: events.ActionDeleted,
			TeamID:     teamID.Hex(),
		},
	}, authz.ConnectionID(r))

	w.WriteHeader(http.StatusNoContent)
}
