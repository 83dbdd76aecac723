// internal/domain/models/chat.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat is a message room inside a team with an explicit participant set.
type Chat struct {
	ID        primitive.ObjectID   `bson:"_id" json:"id"`
	TeamID    primitive.ObjectID   `bson:"team_id" json:"team_id"`
	Name      string               `bson:"name" json:"name"`
	NameCI    string               `bson:"name_ci" json:"-"`
	CreatedBy primitive.ObjectID   `bson:"created_by" json:"created_by"`
	MemberIDs []primitive.ObjectID `bson:"member_ids" json:"member_ids"`

	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether userID is the creator or in the member set.
func (c Chat) HasParticipant(userID primitive.ObjectID) bool {
	if c.CreatedBy == userID {
		return true
	}
	for _, id := range c.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
