// internal/app/store/teams/teamstore.go
package teamstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/teamline/internal/app/system/txn"
	"github.com/dalemusser/teamline/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Store struct {
	db      *mongo.Database
	c       *mongo.Collection
	members *mongo.Collection
	log     *zap.Logger
}

var (
	ErrDuplicateMembership = errors.New("user already belongs to this team")
	ErrBadTransition       = errors.New("membership state transition not allowed")
)

func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{
		db:      db,
		c:       db.Collection("teams"),
		members: db.Collection("team_members"),
		log:     logger,
	}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Team, error) {
	var t models.Team
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Team{}, err
	}
	return t, nil
}

// Create inserts the team and the leader's own Member-state row in one
// transaction (sequential writes on standalone mongod; a team without its
// leader row is repaired on the next membership write).
func (s *Store) Create(ctx context.Context, t models.Team) (models.Team, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.NameCI = text.Fold(t.Name)
	if t.Status == "" {
		t.Status = "active"
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.c.InsertOne(ctx, t); err != nil {
			return err
		}
		_, err := s.members.InsertOne(ctx, models.TeamMembership{
			TeamID:    t.ID,
			UserID:    t.LeaderID,
			Status:    models.MembershipMember,
			InvitedAt: now,
			JoinedAt:  &now,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	})
	if err != nil {
		return models.Team{}, err
	}
	return t, nil
}

func (s *Store) UpdateName(ctx context.Context, id primitive.ObjectID, name string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// Delete removes the team and all of its membership rows.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			return err
		}
		_, err := s.members.DeleteMany(ctx, bson.M{"team_id": id})
		return err
	})
}

// MemberIDs returns the ids of users whose membership is in the Member
// state. Invited and Removed rows are excluded: this is the set the
// authorization resolver checks.
func (s *Store) MemberIDs(ctx context.Context, teamID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.members.Find(ctx, bson.M{
		"team_id": teamID,
		"status":  models.MembershipMember,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var m models.TeamMembership
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		ids = append(ids, m.UserID)
	}
	return ids, cur.Err()
}

// Invite creates an Invited-state row, or revives a Removed row back to
// Invited. Inviting an existing invitee or member is a duplicate.
func (s *Store) Invite(ctx context.Context, teamID, userID primitive.ObjectID) error {
	now := time.Now().UTC()

	var existing models.TeamMembership
	err := s.members.FindOne(ctx, bson.M{"team_id": teamID, "user_id": userID}).Decode(&existing)
	switch {
	case err == mongo.ErrNoDocuments:
		_, err := s.members.InsertOne(ctx, models.TeamMembership{
			TeamID:    teamID,
			UserID:    userID,
			Status:    models.MembershipInvited,
			InvitedAt: now,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if wafflemongo.IsDup(err) {
			return ErrDuplicateMembership
		}
		return err
	case err != nil:
		return err
	}

	if !existing.Status.CanTransitionTo(models.MembershipInvited) {
		return ErrDuplicateMembership
	}
	_, err = s.members.UpdateByID(ctx, existing.ID, bson.M{"$set": bson.M{
		"status":     models.MembershipInvited,
		"invited_at": now,
		"updated_at": now,
	}})
	return err
}

// Accept moves an Invited row to Member. The update is guarded by the
// current status so a stale accept (already removed, already member) is
// rejected rather than silently applied.
func (s *Store) Accept(ctx context.Context, teamID, userID primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.members.UpdateOne(ctx,
		bson.M{"team_id": teamID, "user_id": userID, "status": models.MembershipInvited},
		bson.M{"$set": bson.M{
			"status":     models.MembershipMember,
			"joined_at":  now,
			"updated_at": now,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrBadTransition
	}
	return nil
}

// Remove moves an Invited or Member row to Removed.
func (s *Store) Remove(ctx context.Context, teamID, userID primitive.ObjectID) error {
	res, err := s.members.UpdateOne(ctx,
		bson.M{
			"team_id": teamID,
			"user_id": userID,
			"status":  bson.M{"$in": []models.MembershipStatus{models.MembershipInvited, models.MembershipMember}},
		},
		bson.M{"$set": bson.M{
			"status":     models.MembershipRemoved,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrBadTransition
	}
	return nil
}

// Membership returns the row for (teamID, userID), if any.
func (s *Store) Membership(ctx context.Context, teamID, userID primitive.ObjectID) (models.TeamMembership, error) {
	var m models.TeamMembership
	if err := s.members.FindOne(ctx, bson.M{"team_id": teamID, "user_id": userID}).Decode(&m); err != nil {
		return models.TeamMembership{}, err
	}
	return m, nil
}

// TeamIDsForUser returns the teams where the user is an accepted member.
func (s *Store) TeamIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.members.Find(ctx, bson.M{
		"user_id": userID,
		"status":  models.MembershipMember,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var m models.TeamMembership
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		ids = append(ids, m.TeamID)
	}
	return ids, cur.Err()
}
