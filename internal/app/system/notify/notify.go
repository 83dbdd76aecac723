// internal/app/system/notify/notify.go
// Package notify is the unread/presence coordinator. It runs after a
// feature handler has committed its primary write: it maintains the
// per-user unread-id sets and presence records and emits the derived
// realtime events.
//
// Every method is best effort. A failure here is wrapped as a
// NotificationError, logged, and swallowed, because the primary mutation
// has already committed and must not be reported as failed.
package notify

import (
	"context"

	messagestore "github.com/dalemusser/teamline/internal/app/store/messages"
	presencestore "github.com/dalemusser/teamline/internal/app/store/presence"
	unreadstore "github.com/dalemusser/teamline/internal/app/store/unread"
	"github.com/dalemusser/teamline/internal/app/system/apperrors"
	"github.com/dalemusser/teamline/internal/app/system/realtime"
	"github.com/dalemusser/teamline/internal/domain/events"
	"github.com/dalemusser/teamline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Coordinator struct {
	hub      *realtime.Hub
	unread   *unreadstore.Store
	presence *presencestore.Store
	messages *messagestore.Store
	log      *zap.Logger
}

func New(db *mongo.Database, hub *realtime.Hub, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		hub:      hub,
		unread:   unreadstore.New(db),
		presence: presencestore.New(db),
		messages: messagestore.New(db),
		log:      logger,
	}
}

// report logs a post-commit failure and returns. Callers never see it.
func (n *Coordinator) report(op string, err error) {
	if err == nil {
		return
	}
	ne := &apperrors.NotificationError{Op: op, Err: err}
	n.log.Warn("notification failed", zap.String("op", op), zap.Error(ne))
}

// recipients returns the discussion/chat participant set minus the actor.
func recipients(createdBy primitive.ObjectID, memberIDs []primitive.ObjectID, actorID primitive.ObjectID) []primitive.ObjectID {
	seen := map[primitive.ObjectID]struct{}{actorID: {}}
	var out []primitive.ObjectID
	for _, id := range append([]primitive.ObjectID{createdBy}, memberIDs...) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

/* ── comments ───────────────────────────────────────────────────────── */

// CommentAdded marks the comment unread for every participant except the
// author and tells each one on their user room.
func (n *Coordinator) CommentAdded(ctx context.Context, d models.Discussion, c models.Comment, excludeConnID string) {
	users := recipients(d.CreatedBy, d.MemberIDs, c.AuthorID)
	if len(users) == 0 {
		return
	}
	if err := n.unread.AddComment(ctx, users, d.ID, d.TeamID, c.ID); err != nil {
		n.report("comment added", err)
		return
	}
	for _, uid := range users {
		n.hub.Emit(events.Event{
			Channel: events.ChannelUnreadComment,
			Scopes:  []string{events.UserScope(uid)},
			Data: events.UnreadComment{
				ActionType:   events.ActionAdded,
				UserID:       uid.Hex(),
				DiscussionID: d.ID.Hex(),
				CommentIDs:   []string{c.ID.Hex()},
			},
		}, excludeConnID)
	}
}

// CommentsRead clears the reader's unread ids. Only the reader's own user
// room hears about it; reading is private. The event carries only the ids
// that were actually in the reader's set, so ids the reader never had
// unread (or already read) produce no event at all.
func (n *Coordinator) CommentsRead(ctx context.Context, readerID primitive.ObjectID, d models.Discussion, commentIDs []primitive.ObjectID, excludeConnID string) {
	if len(commentIDs) == 0 {
		return
	}
	removed, err := n.unread.RemoveComments(ctx, readerID, d.ID, commentIDs)
	if err != nil {
		n.report("comments read", err)
		return
	}
	if len(removed) == 0 {
		return
	}
	n.hub.Emit(events.Event{
		Channel: events.ChannelUnreadComment,
		Scopes:  []string{events.UserScope(readerID)},
		Data: events.UnreadComment{
			ActionType:   events.ActionSeen,
			UserID:       readerID.Hex(),
			DiscussionID: d.ID.Hex(),
			CommentIDs:   events.HexIDs(removed),
		},
	}, excludeConnID)
}

// CommentsDeleted removes the ids from every unread set referencing them so
// deleted comments never linger as phantom unreads.
func (n *Coordinator) CommentsDeleted(ctx context.Context, d models.Discussion, commentIDs []primitive.ObjectID, excludeConnID string) {
	if len(commentIDs) == 0 {
		return
	}
	affected, err := n.unread.UsersWithUnreadComments(ctx, d.ID, commentIDs)
	if err != nil {
		n.report("comments deleted", err)
		return
	}
	if err := n.unread.RemoveCommentsForAll(ctx, d.ID, commentIDs); err != nil {
		n.report("comments deleted", err)
		return
	}
	for _, uid := range affected {
		n.hub.Emit(events.Event{
			Channel: events.ChannelUnreadComment,
			Scopes:  []string{events.UserScope(uid)},
			Data: events.UnreadComment{
				ActionType:   events.ActionDeleted,
				UserID:       uid.Hex(),
				DiscussionID: d.ID.Hex(),
				CommentIDs:   events.HexIDs(commentIDs),
			},
		}, excludeConnID)
	}
}

// DiscussionDeleted drops every unread-comment doc of the discussion.
func (n *Coordinator) DiscussionDeleted(ctx context.Context, d models.Discussion, commentIDs []primitive.ObjectID, excludeConnID string) {
	affected, err := n.unread.UsersWithUnreadComments(ctx, d.ID, commentIDs)
	if err != nil {
		n.report("discussion deleted", err)
		return
	}
	if err := n.unread.DeleteByDiscussion(ctx, d.ID); err != nil {
		n.report("discussion deleted", err)
		return
	}
	for _, uid := range affected {
		n.hub.Emit(events.Event{
			Channel: events.ChannelUnreadComment,
			Scopes:  []string{events.UserScope(uid)},
			Data: events.UnreadComment{
				ActionType:   events.ActionDeleted,
				UserID:       uid.Hex(),
				DiscussionID: d.ID.Hex(),
				CommentIDs:   events.HexIDs(commentIDs),
			},
		}, excludeConnID)
	}
}

/* ── messages ───────────────────────────────────────────────────────── */

// MessageAdded marks the message unread for every chat participant except
// the author, and records the id in the author's unread-by-someone doc so
// the author can later see who has not caught up.
func (n *Coordinator) MessageAdded(ctx context.Context, c models.Chat, m models.Message, excludeConnID string) {
	users := recipients(c.CreatedBy, c.MemberIDs, m.AuthorID)
	if len(users) == 0 {
		return
	}
	if err := n.unread.AddMessage(ctx, users, c.ID, c.TeamID, m.ID, models.UnreadByUser); err != nil {
		n.report("message added", err)
		return
	}
	if err := n.unread.AddMessage(ctx, []primitive.ObjectID{m.AuthorID}, c.ID, c.TeamID, m.ID, models.UnreadBySomeone); err != nil {
		n.report("message added", err)
		return
	}
	for _, uid := range users {
		n.hub.Emit(events.Event{
			Channel: events.ChannelUnreadByUser,
			Scopes:  []string{events.UserScope(uid)},
			Data: events.UnreadMessage{
				ActionType: events.ActionAdded,
				UserID:     uid.Hex(),
				ChatID:     c.ID.Hex(),
				MessageIDs: []string{m.ID.Hex()},
			},
		}, excludeConnID)
	}
}

// MessagesSeen clears the reader's by-user ids, then groups the seen ids by
// original author and clears each author's by-someone doc, telling every
// author in one batched event per author room.
//
// The ids arrive from the client, so they are resolved first and anything
// not belonging to this chat is dropped. Both the reader's event and the
// per-author events carry only ids that were actually removed from the
// respective set; a seen call that removes nothing emits nothing.
func (n *Coordinator) MessagesSeen(ctx context.Context, readerID primitive.ObjectID, c models.Chat, messageIDs []primitive.ObjectID, excludeConnID string) {
	if len(messageIDs) == 0 {
		return
	}

	msgs, err := n.messages.GetMany(ctx, messageIDs)
	if err != nil {
		n.report("messages seen", err)
		return
	}
	var inChat []primitive.ObjectID
	byAuthor := make(map[primitive.ObjectID][]primitive.ObjectID)
	for _, m := range msgs {
		if m.ChatID != c.ID {
			continue
		}
		inChat = append(inChat, m.ID)
		if m.AuthorID != readerID {
			byAuthor[m.AuthorID] = append(byAuthor[m.AuthorID], m.ID)
		}
	}
	if len(inChat) == 0 {
		return
	}

	removed, err := n.unread.RemoveMessages(ctx, readerID, c.ID, models.UnreadByUser, inChat)
	if err != nil {
		n.report("messages seen", err)
		return
	}
	if len(removed) > 0 {
		n.hub.Emit(events.Event{
			Channel: events.ChannelUnreadByUser,
			Scopes:  []string{events.UserScope(readerID)},
			Data: events.UnreadMessage{
				ActionType: events.ActionSeen,
				UserID:     readerID.Hex(),
				ChatID:     c.ID.Hex(),
				MessageIDs: events.HexIDs(removed),
			},
		}, excludeConnID)
	}

	for authorID, ids := range byAuthor {
		cleared, err := n.unread.RemoveMessages(ctx, authorID, c.ID, models.UnreadBySomeone, ids)
		if err != nil {
			n.report("messages seen", err)
			continue
		}
		if len(cleared) == 0 {
			continue
		}
		n.hub.Emit(events.Event{
			Channel: events.ChannelUnreadBySomeone,
			Scopes:  []string{events.UserScope(authorID)},
			Data: events.UnreadMessage{
				ActionType: events.ActionSeen,
				UserID:     authorID.Hex(),
				ChatID:     c.ID.Hex(),
				MessageIDs: events.HexIDs(cleared),
			},
		}, excludeConnID)
	}
}

// MessagesDeleted removes the ids (a message plus its whole thread when a
// top-level message was removed) from every unread set of the chat.
func (n *Coordinator) MessagesDeleted(ctx context.Context, c models.Chat, messageIDs []primitive.ObjectID, excludeConnID string) {
	if len(messageIDs) == 0 {
		return
	}
	affected, err := n.unread.UsersWithUnreadMessages(ctx, c.ID, messageIDs)
	if err != nil {
		n.report("messages deleted", err)
		return
	}
	if err := n.unread.RemoveMessagesForAll(ctx, c.ID, messageIDs); err != nil {
		n.report("messages deleted", err)
		return
	}
	for _, uid := range affected {
		n.hub.Emit(events.Event{
			Channel: events.ChannelUnreadByUser,
			Scopes:  []string{events.UserScope(uid)},
			Data: events.UnreadMessage{
				ActionType: events.ActionDeleted,
				UserID:     uid.Hex(),
				ChatID:     c.ID.Hex(),
				MessageIDs: events.HexIDs(messageIDs),
			},
		}, excludeConnID)
	}
}

// ChatCleared drops every unread-message doc of the chat. Used for both
// clear-history and chat deletion.
func (n *Coordinator) ChatCleared(ctx context.Context, c models.Chat, messageIDs []primitive.ObjectID, excludeConnID string) {
	affected, err := n.unread.UsersWithUnreadMessages(ctx, c.ID, messageIDs)
	if err != nil {
		n.report("chat cleared", err)
		return
	}
	if err := n.unread.DeleteByChat(ctx, c.ID); err != nil {
		n.report("chat cleared", err)
		return
	}
	for _, uid := range affected {
		n.hub.Emit(events.Event{
			Channel: events.ChannelUnreadByUser,
			Scopes:  []string{events.UserScope(uid)},
			Data: events.UnreadMessage{
				ActionType: events.ActionCleared,
				UserID:     uid.Hex(),
				ChatID:     c.ID.Hex(),
				MessageIDs: events.HexIDs(messageIDs),
			},
		}, excludeConnID)
	}
}

/* ── presence ───────────────────────────────────────────────────────── */

// OnlineStatusChanged upserts the (user, team) presence record and
// broadcasts the transition to the team room.
func (n *Coordinator) OnlineStatusChanged(ctx context.Context, userID, teamID primitive.ObjectID, online bool, excludeConnID string) {
	if err := n.presence.SetOnline(ctx, userID, teamID, online); err != nil {
		n.report("online status", err)
		return
	}
	action := events.ActionOffline
	if online {
		action = events.ActionOnline
	}
	n.hub.Emit(events.Event{
		Channel: events.ChannelOnlineStatus,
		Scopes:  []string{events.TeamScope(teamID)},
		Data: events.OnlineStatus{
			ActionType: action,
			UserID:     userID.Hex(),
			TeamID:     teamID.Hex(),
			Online:     online,
		},
	}, excludeConnID)
}

// Typing broadcasts a typing transition to the chat room. Typing state is
// never persisted.
func (n *Coordinator) Typing(userID, chatID primitive.ObjectID, typing bool, excludeConnID string) {
	action := events.ActionStopped
	if typing {
		action = events.ActionTyping
	}
	n.hub.Emit(events.Event{
		Channel: events.ChannelTypingStatus,
		Scopes:  []string{events.ChatScope(chatID)},
		Data: events.TypingStatus{
			ActionType: action,
			UserID:     userID.Hex(),
			ChatID:     chatID.Hex(),
			Typing:     typing,
		},
	}, excludeConnID)
}
