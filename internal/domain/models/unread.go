// internal/domain/models/unread.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnreadComments is one user's unread-comment set for one discussion.
// One document per (user, discussion); ids are added and removed with
// atomic single-document updates.
type UnreadComments struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID   `bson:"user_id" json:"user_id"`
	DiscussionID primitive.ObjectID   `bson:"discussion_id" json:"discussion_id"`
	TeamID       primitive.ObjectID   `bson:"team_id" json:"team_id"`
	CommentIDs   []primitive.ObjectID `bson:"comment_ids" json:"comment_ids"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`
}

// UnreadKind distinguishes the two message unread sets a user carries:
// messages the user has not read yet, and the user's own messages that
// some recipient has not read yet.
type UnreadKind string

const (
	UnreadByUser    UnreadKind = "by_user"
	UnreadBySomeone UnreadKind = "by_someone"
)

// UnreadMessages is one user's unread-message set of one kind for one chat.
// One document per (user, chat, kind).
type UnreadMessages struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID   `bson:"user_id" json:"user_id"`
	ChatID     primitive.ObjectID   `bson:"chat_id" json:"chat_id"`
	TeamID     primitive.ObjectID   `bson:"team_id" json:"team_id"`
	Kind       UnreadKind           `bson:"kind" json:"kind"`
	MessageIDs []primitive.ObjectID `bson:"message_ids" json:"message_ids"`
	UpdatedAt  time.Time            `bson:"updated_at" json:"updated_at"`
}
