// internal/app/store/comments/commentstore.go
package commentstore

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
	return &Store{c: db.Collection("comments")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Comment, error) {
	var c models.Comment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, c models.Comment) (models.Comment, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

func (s *Store) UpdateBody(ctx context.Context, id primitive.ObjectID, body string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"body":       body,
		"edited":     true,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeleteByDiscussion removes every comment of a discussion and returns the
// deleted ids and file urls so the caller can clear unread sets and blob
// storage.
func (s *Store) DeleteByDiscussion(ctx context.Context, discussionID primitive.ObjectID) ([]primitive.ObjectID, []string, error) {
	cur, err := s.c.Find(ctx, bson.M{"discussion_id": discussionID},
		options.Find().SetProjection(bson.M{"_id": 1, "file_urls": 1}))
	if err != nil {
		return nil, nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	var urls []string
	for cur.Next(ctx) {
		var c models.Comment
		if err := cur.Decode(&c); err != nil {
			return nil, nil, err
		}
		ids = append(ids, c.ID)
		urls = append(urls, c.FileURLs...)
	}
	if err := cur.Err(); err != nil {
		return nil, nil, err
	}

	if _, err := s.c.DeleteMany(ctx, bson.M{"discussion_id": discussionID}); err != nil {
		return nil, nil, err
	}
	return ids, urls, nil
}

// ListByDiscussion returns a discussion's comments in creation order.
func (s *Store) ListByDiscussion(ctx context.Context, discussionID primitive.ObjectID) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"discussion_id": discussionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Comment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
