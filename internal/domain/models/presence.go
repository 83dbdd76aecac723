// internal/domain/models/presence.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Presence is the per-(user, team) online flag. At most one document per
// pair; created lazily on the first status change and updated in place.
type Presence struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	TeamID    primitive.ObjectID `bson:"team_id" json:"team_id"`
	Online    bool               `bson:"online" json:"online"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
