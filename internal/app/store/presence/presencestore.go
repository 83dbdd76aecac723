// internal/app/store/presence/presencestore.go
package presencestore

import (
	"context"
	"time"

	"github.com/dalemusser/teamline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("presence")}
}

// SetOnline upserts the (user, team) presence entry: created lazily on the
// first status change, updated in place thereafter. Idempotent.
func (s *Store) SetOnline(ctx context.Context, userID, teamID primitive.ObjectID, online bool) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID, "team_id": teamID},
		bson.M{"$set": bson.M{
			"online":     online,
			"updated_at": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true))
	return err
}

// Get returns the presence entry for (user, team), if one exists.
func (s *Store) Get(ctx context.Context, userID, teamID primitive.ObjectID) (models.Presence, error) {
	var p models.Presence
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID, "team_id": teamID}).Decode(&p); err != nil {
		return models.Presence{}, err
	}
	return p, nil
}

// ListOnline returns every presence entry currently flagged online.
func (s *Store) ListOnline(ctx context.Context) ([]models.Presence, error) {
	cur, err := s.c.Find(ctx, bson.M{"online": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Presence
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OnlineUserIDs returns the users currently flagged online for a team.
func (s *Store) OnlineUserIDs(ctx context.Context, teamID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"team_id": teamID, "online": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var p models.Presence
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, p.UserID)
	}
	return out, cur.Err()
}
