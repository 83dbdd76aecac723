// internal/domain/models/team.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team is the top-level collaboration scope. The leader owns the team
// (and its subscription); everyone else joins through team_members.
type Team struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"-"`
	LeaderID primitive.ObjectID `bson:"leader_id" json:"leader_id"`

	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
