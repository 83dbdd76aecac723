// internal/app/store/chats/chatstore.go
package chatstore

import (
	"context"
	"time"

	"github.com/dalemusser/teamline/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("chats")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Chat, error) {
	var c models.Chat
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Chat{}, err
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, c models.Chat) (models.Chat, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.NameCI = text.Fold(c.Name)
	if c.Status == "" {
		c.Status = "active"
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Chat{}, err
	}
	return c, nil
}

func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name string, memberIDs []primitive.ObjectID) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if memberIDs != nil {
		set["member_ids"] = memberIDs
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListByTeam returns the team's chats.
func (s *Store) ListByTeam(ctx context.Context, teamID primitive.ObjectID) ([]models.Chat, error) {
	cur, err := s.c.Find(ctx, bson.M{"team_id": teamID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Chat
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
