// internal/app/store/messages/messagestore.go
package messagestore

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
	return &Store{c: db.Collection("messages")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Message, error) {
	var m models.Message
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return models.Message{}, err
	}
	return m, nil
}

// Create inserts the message. For a thread reply, the parent's
// thread_count is bumped afterwards; a crash between the two writes leaves
// a valid reply with a stale count, which is tolerated.
func (s *Store) Create(ctx context.Context, m models.Message) (models.Message, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Message{}, err
	}
	if m.ParentID != nil {
		if _, err := s.c.UpdateByID(ctx, *m.ParentID, bson.M{"$inc": bson.M{"thread_count": 1}}); err != nil {
			return models.Message{}, err
		}
	}
	return m, nil
}

func (s *Store) UpdateBody(ctx context.Context, id primitive.ObjectID, body string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"body":       body,
		"edited":     true,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// DeleteWithThread removes the message and, when it is a top-level
// message, its entire reply thread. It returns every deleted id (the
// message first) and the file urls of the removed documents. For a thread
// reply the parent's thread_count is decremented.
func (s *Store) DeleteWithThread(ctx context.Context, m models.Message) ([]primitive.ObjectID, []string, error) {
	ids := []primitive.ObjectID{m.ID}
	urls := append([]string(nil), m.FileURLs...)

	if m.ParentID == nil {
		cur, err := s.c.Find(ctx, bson.M{"parent_id": m.ID},
			options.Find().SetProjection(bson.M{"_id": 1, "file_urls": 1}))
		if err != nil {
			return nil, nil, err
		}
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var child models.Message
			if err := cur.Decode(&child); err != nil {
				return nil, nil, err
			}
			ids = append(ids, child.ID)
			urls = append(urls, child.FileURLs...)
		}
		if err := cur.Err(); err != nil {
			return nil, nil, err
		}
	}

	if _, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, nil, err
	}

	if m.ParentID != nil {
		if _, err := s.c.UpdateByID(ctx, *m.ParentID, bson.M{"$inc": bson.M{"thread_count": -1}}); err != nil {
			return nil, nil, err
		}
	}
	return ids, urls, nil
}

// DeleteByChat removes every message of a chat, returning deleted ids and
// file urls for unread/blob cleanup.
func (s *Store) DeleteByChat(ctx context.Context, chatID primitive.ObjectID) ([]primitive.ObjectID, []string, error) {
	cur, err := s.c.Find(ctx, bson.M{"chat_id": chatID},
		options.Find().SetProjection(bson.M{"_id": 1, "file_urls": 1}))
	if err != nil {
		return nil, nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	var urls []string
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, nil, err
		}
		ids = append(ids, m.ID)
		urls = append(urls, m.FileURLs...)
	}
	if err := cur.Err(); err != nil {
		return nil, nil, err
	}

	if _, err := s.c.DeleteMany(ctx, bson.M{"chat_id": chatID}); err != nil {
		return nil, nil, err
	}
	return ids, urls, nil
}

// GetMany returns the messages for the given ids.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]models.Message, error) {
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByChat returns a chat's messages in creation order.
func (s *Store) ListByChat(ctx context.Context, chatID primitive.ObjectID) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
