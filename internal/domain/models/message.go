// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message belongs to a chat. A nil ParentID means a top-level message;
// otherwise the message is a threaded reply and ThreadCount on the parent
// tracks how many replies it has.
type Message struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	ChatID   primitive.ObjectID `bson:"chat_id" json:"chat_id"`
	TeamID   primitive.ObjectID `bson:"team_id" json:"team_id"`
	AuthorID primitive.ObjectID `bson:"author_id" json:"author_id"`

	Body   string `bson:"body" json:"body"`
	Edited bool   `bson:"edited" json:"edited"`

	ParentID    *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	ThreadCount int                 `bson:"thread_count" json:"thread_count"`

	FileURLs []string `bson:"file_urls,omitempty" json:"file_urls,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsThreadReply reports whether the message is a reply inside a thread.
func (m Message) IsThreadReply() bool {
	return m.ParentID != nil
}
