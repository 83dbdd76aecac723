// internal/app/features/discussions/comments.go
package discussions

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

type commentResponse struct {
	ID           string   `json:"id"`
	DiscussionID string   `json:"discussionId"`
	AuthorID     string   `json:"authorId"`
	Body         string   `json:"body"`
	Edited       bool     `json:"edited"`
	FileURLs     []string `json:"fileUrls,omitempty"`
}

func toCommentResponse(c models.Comment) commentResponse {
	return commentResponse{
		ID:           c.ID.Hex(),
		DiscussionID: c.DiscussionID.Hex(),
		AuthorID:     c.AuthorID.Hex(),
		Body:         c.Body,
		Edited:       c.Edited,
		FileURLs:     c.FileURLs,
	}
}

// ServeListComments handles GET /discussions/{discussionID}/comments.
func (h *Handler) ServeListComments(w http.ResponseWriter, r *http.Request) {
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

	if _, err := teampolicy.ResolveDiscussion(ctx, h.DB, uid, discussionID); err != nil {
		shared.RespondError(w, err)
		return
	}

	list, err := h.Comments.ListByDiscussion(ctx, discussionID)
	if err != nil {
		h.Log.Error("comments: list failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}
	out := make([]commentResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCommentResponse(c))
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

// ServeAddComment handles POST /discussions/{discussionID}/comments.
// Archived discussions are read-only.
func (h *Handler) ServeAddComment(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	discussionID, ok := idParam(w, r, "discussionID")
	if !ok {
		return
	}
	var req struct {
		Body     string   `json:"body"`
		FileURLs []string `json:"fileUrls"`
	}
	if !shared.DecodeJSON(w, r, &req) {
		return
	}
	body := htmlsanitize.Sanitize(req.Body)
	if body == "" && len(req.FileURLs) == 0 {
		shared.RespondError(w, apperrors.NewData("comment body is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	dc, err := teampolicy.ResolveDiscussion(ctx, h.DB, uid, discussionID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if dc.Discussion.Status != models.DiscussionActive {
		shared.RespondError(w, apperrors.NewData("discussion is archived"))
		return
	}

	c, err := h.Comments.Create(ctx, models.Comment{
		DiscussionID: discussionID,
		TeamID:       dc.Team.ID,
		AuthorID:     uid,
		Body:         body,
		FileURLs:     req.FileURLs,
	})
	if err != nil {
		h.Log.Error("comments: create failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}
	if err := h.Discussions.Touch(ctx, discussionID); err != nil {
		h.Log.Warn("comments: touch failed", zap.Error(err))
	}

	h.Hub.Emit(events.Event{
		Channel: events.ChannelComment,
		Scopes:  []string{events.DiscussionScope(discussionID)},
		Data: events.Comment{
			ActionType:   events.ActionAdded,
			CommentID:    c.ID.Hex(),
			DiscussionID: discussionID.Hex(),
			TeamID:       dc.Team.ID.Hex(),
			AuthorID:     uid.Hex(),
			Body:         c.Body,
		},
	}, authz.ConnectionID(r))

	h.Notify.CommentAdded(ctx, dc.Discussion, c, authz.ConnectionID(r))

	shared.RespondJSON(w, http.StatusCreated, toCommentResponse(c))
}

// ServeEditComment handles PATCH /discussions/{discussionID}/comments/{commentID}.
// Author only.
func (h *Handler) ServeEditComment(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	discussionID, ok := idParam(w, r, "discussionID")
	if !ok {
		return
	}
	commentID, ok := idParam(w, r, "commentID")
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
		shared.RespondError(w, apperrors.NewData("comment body is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	dc, err := teampolicy.ResolveDiscussion(ctx, h.DB, uid, discussionID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	c, err := h.Comments.GetByID(ctx, commentID)
	if err == mongo.ErrNoDocuments || (err == nil && c.DiscussionID != discussionID) {
		shared.RespondError(w, apperrors.NewNotFound("comment"))
		return
	}
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if c.AuthorID != uid {
		shared.RespondError(w, apperrors.NewPermission("only the author can edit a comment"))
		return
	}

	if err := h.Comments.UpdateBody(ctx, commentID, body); err != nil {
		h.Log.Error("comments: edit failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	h.Hub.Emit(events.Event{
		Channel: events.ChannelComment,
		Scopes:  []string{events.DiscussionScope(discussionID)},
		Data: events.Comment{
			ActionType:   events.ActionEdited,
			CommentID:    commentID.Hex(),
			DiscussionID: discussionID.Hex(),
			TeamID:       dc.Team.ID.Hex(),
			AuthorID:     uid.Hex(),
			Body:         body,
		},
	}, authz.ConnectionID(r))

	w.WriteHeader(http.StatusNoContent)
}

// ServeDeleteComment handles DELETE /discussions/{discussionID}/comments/{commentID}.
// Author or team leader.
func (h *Handler) ServeDeleteComment(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	discussionID, ok := idParam(w, r, "discussionID")
	if !ok {
		return
	}
	commentID, ok := idParam(w, r, "commentID")
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
	c, err := h.Comments.GetByID(ctx, commentID)
	if err == mongo.ErrNoDocuments || (err == nil && c.DiscussionID != discussionID) {
		shared.RespondError(w, apperrors.NewNotFound("comment"))
		return
	}
	if err != nil {
		shared.RespondError(w, err)
		return
	}
	if c.AuthorID != uid && !dc.IsLeader(uid) {
		shared.RespondError(w, apperrors.NewPermission("only the author or team leader can delete a comment"))
		return
	}

	if err := h.Comments.Delete(ctx, commentID); err != nil {
		h.Log.Error("comments: delete failed", zap.Error(err))
		shared.RespondError(w, err)
		return
	}

	h.Notify.CommentsDeleted(ctx, dc.Discussion, []primitive.ObjectID{commentID}, authz.ConnectionID(r))
	h.deleteFiles(c.FileURLs)

	h.Hub.Emit(events.Event{
		Channel: events.ChannelComment,
		Scopes:  []string{events.DiscussionScope(discussionID)},
		Data: events.Comment{
			ActionType:   events.ActionDeleted,
			CommentID:    commentID.Hex(),
			DiscussionID: discussionID.Hex(),
			TeamID:       dc.Team.ID.Hex(),
		},
	}, authz.ConnectionID(r))

	w.WriteHeader(http.StatusNoContent)
}

// ServeMarkRead handles POST /discussions/{discussionID}/comments/read.
// Clears the actor's own unread ids; nobody else is told.
func (h *Handler) ServeMarkRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.actor(w, r)
	if !ok {
		return
	}
	discussionID, ok := idParam(w, r, "discussionID")
	if !ok {
		return
	}
	var req struct {
		CommentIDs []string `json:"commentIds"`
	}
	if !shared.DecodeJSON(w, r, &req) {
		return
	}
	commentIDs, err := parseIDList(req.CommentIDs)
	if err != nil {
		shared.RespondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	dc, err := teampolicy.ResolveDiscussion(ctx, h.DB, uid, discussionID)
	if err != nil {
		shared.RespondError(w, err)
		return
	}

	h.Notify.CommentsRead(ctx, uid, dc.Discussion, commentIDs, authz.ConnectionID(r))
	w.WriteHeader(http.StatusNoContent)
}
