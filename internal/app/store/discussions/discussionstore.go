// internal/app/store/discussions/discussionstore.go
package discussionstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/teamline/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrBadTransition = errors.New("discussion state transition not allowed")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("discussions")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Discussion, error) {
	var d models.Discussion
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return models.Discussion{}, err
	}
	return d, nil
}

func (s *Store) Create(ctx context.Context, d models.Discussion) (models.Discussion, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.TitleCI = text.Fold(d.Title)
	if d.Status == "" {
		d.Status = models.DiscussionActive
	}
	d.CreatedAt = now
	d.LastUpdatedAt = now
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Discussion{}, err
	}
	return d, nil
}

func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, title string, memberIDs []primitive.ObjectID) error {
	set := bson.M{"last_updated_at": time.Now().UTC()}
	if title != "" {
		set["title"] = title
		set["title_ci"] = text.Fold(title)
	}
	if memberIDs != nil {
		set["member_ids"] = memberIDs
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// SetFirstComment pins the opening comment id. Only the first write wins.
func (s *Store) SetFirstComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "first_comment_id": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"first_comment_id": commentID}})
	return err
}

// Touch bumps last_updated_at. Best-effort: a crash before this write
// leaves a valid, if slightly stale, discussion.
func (s *Store) Touch(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_updated_at": time.Now().UTC()}})
	return err
}

// SetStatus applies an Active/Archived transition, guarded so an illegal
// move (archiving an archived discussion) fails explicitly.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, from, to models.DiscussionStatus) error {
	if !from.CanTransitionTo(to) {
		return ErrBadTransition
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "last_updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrBadTransition
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListByTeam returns the team's discussions, most recently active first.
func (s *Store) ListByTeam(ctx context.Context, teamID primitive.ObjectID) ([]models.Discussion, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_updated_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"team_id": teamID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Discussion
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
