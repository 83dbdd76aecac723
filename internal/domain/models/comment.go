// internal/domain/models/comment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment belongs to a discussion. TeamID is denormalized so event fan-out
// and permission checks never need a second lookup.
type Comment struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	DiscussionID primitive.ObjectID `bson:"discussion_id" json:"discussion_id"`
	TeamID       primitive.ObjectID `bson:"team_id" json:"team_id"`
	AuthorID     primitive.ObjectID `bson:"author_id" json:"author_id"`

	Body   string `bson:"body" json:"body"`
	Edited bool   `bson:"edited" json:"edited"`

	FileURLs []string `bson:"file_urls,omitempty" json:"file_urls,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
