// internal/app/features/discussions/discussions.go
package discussions

import (
	"context"
	"net/http"

	"github.com/dalemusser/teamline/internal/app/features/shared"
	"github.com/dalemusser/teamline/internal/app/policy/teampolicy"
	"github.com/dalemusser/teamline/internal/app/system/apperrors"
	"github.com/dalemusser/teamline/internal/app/system/authz"
	"github.com/dalemusser/teamline/internal/app/system/htmlsanitize"
	"github.com/dalemusser/teamline/internal/app/system/normalize"
	"github.com/dalemusser/teamline/internal/app/system/timeouts"
	"github.com/dalemusser/teamline/internal/domain/events"
	"github.com/dalemusser/teamline/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type discussionResponse struct {
	ID             string   `json:"id"`
	TeamID         string   `json:"teamId"`
	Title          string   `json:"title"`
	CreatedBy      string   `json:"createdBy"`
	MemberIDs      []string `json:"memberIds"`
	FirstCommentID string   `json:"firstCommentId,omitempty"`
	Status         string   `json:"status"`
}

func toDiscussionResponse(d models.Discussion) discussionResponse {
	resp := discussionResponse{
		ID:        d.ID.Hex(),
		TeamID:    d.TeamID.Hex(),
		Title:     d.Title,
		CreatedBy: d.CreatedBy.Hex(),
		MemberIDs: events.HexIDs(d.MemberIDs),
		Status:    string(d.Status),
	}
	if d.FirstCommentID != nil {
		resp.FirstCommentID = d.FirstCommentID.Hex()
	}
	return resp
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

// ServeListByTeam handles GET /discussions/team/{teamID}.
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

	list, err := h.Discussions.ListByTeam(ctx, teamID)
	if err != nil {
		h.Log.Error("discussions: list failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}
	out := make([]discussionResponse, 0, len(list))
	for _, d := range list {
		out = append(out, toDiscussionResponse(d))
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

// ServeCreate handles POST /discussions/team/{teamID}. The request may carry
// the opening comment; when it does, the comment is created in the same
// request, recorded as the discussion's first comment, and pushed into every
// participant's unread set.
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
		Title        string   `json:"title"`
		MemberIDs    []string `json:"memberIds"`
		FirstComment *struct {
			Body     string   `json:"body"`
			FileURLs []string `json:"fileUrls"`
		} `json:"firstComment"`
	}
	if !shared.DecodeJSON(w, r, &req) {
		return
	}
	title := normalize.Title(req.Title)
	if title == "" {
		shared.RespondError(w, apperrors.NewData("discussion title is required"))
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

	d, err := h.Discussions.Create(ctx, models.Discussion{
		TeamID:    teamID,
		Title:     title,
		CreatedBy: uid,
		MemberIDs: memberIDs,
	})
	if err != nil {
		h.Log.Error("discussions: create failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	if req.FirstComment != nil {
		body := htmlsanitize.Sanitize(req.FirstComment.Body)
		c, err := h.Comments.Create(ctx, models.Comment{
			DiscussionID: d.ID,
			TeamID:       teamID,
			AuthorID:     uid,
			Body:         body,
			FileURLs:     req.FirstComment.FileURLs,
		})
		if err != nil {
			h.Log.Error("discussions: first comment failed", zap.Error(err))
			shared.RespondError(w, err)
			return
		}
		if err := h.Discussions.SetFirstComment(ctx, d.ID, c.ID); err != nil {
			h.Log.Error("discussions: set first comment failed", zap.Error(err))
		}
		d.FirstCommentID = &c.ID

		h.Notify.CommentAdded(ctx, d, c, authz.ConnectionID(r))
	}

	h.Hub.Emit(events.Event{
		Channel: events.ChannelDiscussion,
		Scopes:  []string{events.TeamScope(teamID)},
		Data: events.Discussion{
			ActionType:   events.ActionAdded,
			DiscussionID: d.ID.Hex(),
			TeamID:       teamID.Hex(),
			Title:        d.Title,
			CreatedBy:    uid.Hex(),
			MemberIDs:    events.HexIDs(d.MemberIDs),
		},
	}, authz.ConnectionID(r))

	shared.RespondJSON(w, http.StatusCreated, toDiscussionResponse(d))
}

// ServeGet handles GET /discussions/{discussionID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	discussionID, ok := idParam(w, r, "discussionID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	dc, err := teampolicy.ResolveDiscussion(ctx, h.DB, uid, discussionID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toDiscussionResponse(dc.Discussion))
}

// ServeUpdate handles PATCH /discussions/{discussionID}. Creator or leader.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	discussionID, ok := idParam(w, r, "discussionID")
	if !ok {
		return
	}
	var req struct {
		Title     string   `json:"title"`
		MemberIDs []string `json:"memberIds"`
	}
	if !shared.DecodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	dc, err := teampolicy.ResolveDiscussion(ctx, h.DB, uid, discussionID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if dc.Discussion.CreatedBy != uid && !dc.IsLeader(uid) {
		shared.RespondError(w, apperrors.NewPermission("only the creator or team leader can edit a discussion"))
		return
	}

	title := normalize.Title(req.Title)
	var memberIDs []primitive.ObjectID
	if req.MemberIDs != nil {
		memberIDs, err = parseIDList(req.MemberIDs)
		if err != nil {
			shared.RespondError(w, err)
			return
		}
		for _, id := range memberIDs {
			if !dc.IsMember(id) {
				shared.RespondError(w, apperrors.NewData("participant %s is not a team member", id.Hex()))
				return
			}
		}
	}

	if err := h.Discussions.UpdateInfo(ctx, discussionID, title, memberIDs); err != nil {
		h.Log.Error("discussions: update failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	h.Hub.Emit(events.Event{
		Channel: events.ChannelDiscussion,
		Scopes:  []string{events.TeamScope(dc.Team.ID)},
		Data: events.Discussion{
			ActionType:   events.ActionEdited,
			DiscussionID: discussionID.Hex(),
			TeamID:       dc.Team.ID.Hex(),
			Title:        title,
			MemberIDs:    events.HexIDs(memberIDs),
		},
	}, authz.ConnectionID(r))

	w.WriteHeader(http.StatusNoContent)
}

// ServeArchive handles POST /discussions/{discussionID}/archive.
func (h *Handler) ServeArchive(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.DiscussionActive, models.DiscussionArchived, events.ActionArchived)
}

// ServeRestore handles POST /discussions/{discussionID}/restore.
func (h *Handler) ServeRestore(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.DiscussionArchived, models.DiscussionActive, events.ActionRestored)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, from, to models.DiscussionStatus, action string) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	discussionID, ok := idParam(w, r, "discussionID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	dc, err := teampolicy.ResolveDiscussion(ctx, h.DB, uid, discussionID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if dc.Discussion.CreatedBy != uid && !dc.IsLeader(uid) {
		shared.RespondError(w, apperrors.NewPermission("only the creator or team leader can change discussion status"))
		return
	}

	if err := h.Discussions.SetStatus(ctx, discussionID, from, to); err != nil {
		shared.RespondError(w, apperrors.NewData("discussion is not %s", from))
		return
	}

	h.Hub.Emit(events.Event{
		Channel: events.ChannelDiscussion,
		Scopes:  []string{events.TeamScope(dc.Team.ID)},
		Data: events.Discussion{
			ActionType:   action,
			DiscussionID: discussionID.Hex(),
			TeamID:       dc.Team.ID.Hex(),
		},
	}, authz.ConnectionID(r))

	w.WriteHeader(http.StatusNoContent)
}

// ServeDelete handles DELETE /discussions/{discussionID}. Creator or leader.
// Comments, unread sets, and uploaded files go with the discussion.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	discussionID, ok := idParam(w, r, "discussionID")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	dc, err := teampolicy.ResolveDiscussion(ctx, h.DB, uid, discussionID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if dc.Discussion.CreatedBy != uid && !dc.IsLeader(uid) {
		shared.RespondError(w, apperrors.NewPermission("only the creator or team leader can delete a discussion"))
		return
	}

	commentIDs, fileURLs, err := h.Comments.DeleteByDiscussion(ctx, discussionID)
	if err != nil {
		h.Log.Error("discussions: comment cascade failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}
	if err := h.Discussions.Delete(ctx, discussionID); err != nil {
		h.Log.Error("discussions: delete failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	h.Notify.DiscussionDeleted(ctx, dc.Discussion, commentIDs, authz.ConnectionID(r))
	h.deleteFiles(fileURLs)

	h.Hub.Emit(events.Event{
		Channel: events.ChannelDiscussion,
		Scopes:  []string{events.TeamScope(dc.Team.ID)},
		Data: events.Discussion{
			ActionType:   events.ActionDeleted,
			DiscussionID: discussionID.Hex(),
			TeamID:       dc.Team.ID.Hex(),
		},
	}, authz.ConnectionID(r))

	w.WriteHeader(http.StatusNoContent)
}
