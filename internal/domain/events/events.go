// internal/domain/events/events.go
// Package events defines the typed realtime event envelopes and the scope
// keys that partition the broadcast space. Events are transient: they are
// never persisted and are delivered at most once per connected receiver.
package events

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Channel names. Each event family is delivered on its own named channel
// so clients can register one handler per family.
const (
	ChannelConnected       = "connected"
	ChannelTeam            = "teamEvent"
	ChannelDiscussion      = "discussionEvent"
	ChannelComment         = "commentEvent"
	ChannelChat            = "chatEvent"
	ChannelMessage         = "messageEvent"
	ChannelUnreadComment   = "unreadCommentEvent"
	ChannelUnreadByUser    = "unreadByUserMessageEvent"
	ChannelUnreadBySomeone = "unreadBySomeoneMessageEvent"
	ChannelOnlineStatus    = "onlineStatusEvent"
	ChannelTypingStatus    = "typingStatus"
)

// Action types carried in every payload's actionType field.
const (
	ActionAdded    = "added"
	ActionEdited   = "edited"
	ActionDeleted  = "deleted"
	ActionArchived = "archived"
	ActionRestored = "restored"
	ActionCleared  = "cleared"
	ActionSeen     = "seen"
	ActionInvited  = "invited"
	ActionJoined   = "joined"
	ActionRemoved  = "removed"
	ActionOnline   = "online"
	ActionOffline  = "offline"
	ActionTyping   = "typing"
	ActionStopped  = "stopped"
)

// Scope key builders. Scope keys are opaque strings partitioning the
// broadcast space into four families.

func UserScope(userID primitive.ObjectID) string { return "user-" + userID.Hex() }

func TeamScope(teamID primitive.ObjectID) string { return "team-" + teamID.Hex() }

func DiscussionScope(discussionID primitive.ObjectID) string {
	return "discussion-" + discussionID.Hex()
}

func ChatScope(chatID primitive.ObjectID) string { return "chat-" + chatID.Hex() }

// Event is one logical broadcast: a payload delivered on Channel to every
// connection joined to any of Scopes. Unread events are the one family
// that fans out to N user scopes; every other family targets one scope.
type Event struct {
	Channel string
	Scopes  []string
	Data    any
}

// Envelope is the wire shape written to each receiving connection.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Connected is the handshake payload sent to a connection right after the
// session bridge accepts it. ConnectionID is echoed back by the client in
// the X-Connection-ID header on mutating HTTP requests for echo suppression.
type Connected struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
}

// Team carries team membership changes to the team room.
type Team struct {
	ActionType string `json:"actionType"`
	TeamID     string `json:"teamId"`
	UserID     string `json:"userId,omitempty"`
	Name       string `json:"name,omitempty"`
}

// Discussion carries discussion lifecycle changes to the team room.
type Discussion struct {
	ActionType   string   `json:"actionType"`
	DiscussionID string   `json:"discussionId"`
	TeamID       string   `json:"teamId"`
	Title        string   `json:"title,omitempty"`
	CreatedBy    string   `json:"createdBy,omitempty"`
	MemberIDs    []string `json:"memberIds,omitempty"`
}

// Comment carries comment changes to the discussion room. Parent ids are
// always included so receivers can apply the change without a re-fetch.
type Comment struct {
	ActionType   string `json:"actionType"`
	CommentID    string `json:"commentId"`
	DiscussionID string `json:"discussionId"`
	TeamID       string `json:"teamId"`
	AuthorID     string `json:"authorId,omitempty"`
	Body         string `json:"body,omitempty"`
}

// Chat carries chat lifecycle changes to the team room.
type Chat struct {
	ActionType string   `json:"actionType"`
	ChatID     string   `json:"chatId"`
	TeamID     string   `json:"teamId"`
	Name       string   `json:"name,omitempty"`
	CreatedBy  string   `json:"createdBy,omitempty"`
	MemberIDs  []string `json:"memberIds,omitempty"`
}

// Message carries message changes to the chat room. DeletedIDs lists the
// full thread when a top-level message is removed.
type Message struct {
	ActionType string   `json:"actionType"`
	MessageID  string   `json:"messageId"`
	ChatID     string   `json:"chatId"`
	TeamID     string   `json:"teamId"`
	AuthorID   string   `json:"authorId,omitempty"`
	Body       string   `json:"body,omitempty"`
	ParentID   string   `json:"parentId,omitempty"`
	DeletedIDs []string `json:"deletedIds,omitempty"`
}

// UnreadComment targets one user room per notified user.
type UnreadComment struct {
	ActionType   string   `json:"actionType"`
	UserID       string   `json:"userId"`
	DiscussionID string   `json:"discussionId"`
	CommentIDs   []string `json:"commentIds"`
}

// UnreadMessage targets one user room per notified user; used for both
// the by-user and by-someone channels.
type UnreadMessage struct {
	ActionType string   `json:"actionType"`
	UserID     string   `json:"userId"`
	ChatID     string   `json:"chatId"`
	MessageIDs []string `json:"messageIds"`
}

// OnlineStatus is broadcast to the team room on presence transitions.
type OnlineStatus struct {
	ActionType string `json:"actionType"`
	UserID     string `json:"userId"`
	TeamID     string `json:"teamId"`
	Online     bool   `json:"online"`
}

// TypingStatus is broadcast to the chat room; never persisted.
type TypingStatus struct {
	ActionType string `json:"actionType"`
	UserID     string `json:"userId"`
	ChatID     string `json:"chatId"`
	Typing     bool   `json:"typing"`
}

// HexIDs converts ObjectIDs to their hex form for event payloads.
func HexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}
