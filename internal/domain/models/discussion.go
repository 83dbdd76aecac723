// internal/domain/models/discussion.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DiscussionStatus is the explicit lifecycle state of a discussion.
// The only transitions are Active -> Archived and Archived -> Active.
type DiscussionStatus string

const (
	DiscussionActive   DiscussionStatus = "active"
	DiscussionArchived DiscussionStatus = "archived"
)

// Valid reports whether s is a defined discussion state.
func (s DiscussionStatus) Valid() bool {
	return s == DiscussionActive || s == DiscussionArchived
}

// CanTransitionTo reports whether a discussion in state s may move to next.
func (s DiscussionStatus) CanTransitionTo(next DiscussionStatus) bool {
	return s.Valid() && next.Valid() && s != next
}

// Discussion is a threaded conversation inside a team. MemberIDs is the
// participant set checked by the resolver for comment operations; the
// creator is always allowed regardless of the set.
type Discussion struct {
	ID        primitive.ObjectID   `bson:"_id" json:"id"`
	TeamID    primitive.ObjectID   `bson:"team_id" json:"team_id"`
	Title     string               `bson:"title" json:"title"`
	TitleCI   string               `bson:"title_ci" json:"-"`
	CreatedBy primitive.ObjectID   `bson:"created_by" json:"created_by"`
	MemberIDs []primitive.ObjectID `bson:"member_ids" json:"member_ids"`

	// FirstCommentID pins the opening comment; set once, right after the
	// opening comment is persisted.
	FirstCommentID *primitive.ObjectID `bson:"first_comment_id,omitempty" json:"first_comment_id,omitempty"`

	Status DiscussionStatus `bson:"status" json:"status"`

	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	LastUpdatedAt time.Time `bson:"last_updated_at" json:"last_updated_at"`
}

// HasParticipant reports whether userID is the creator or in the member set.
func (d Discussion) HasParticipant(userID primitive.ObjectID) bool {
	if d.CreatedBy == userID {
		return true
	}
	for _, id := range d.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
