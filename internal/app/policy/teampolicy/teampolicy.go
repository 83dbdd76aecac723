// internal/app/policy/teampolicy.go
// Package teampolicy is the single authorization gate for team-scoped
// operations. Every feature handler resolves a context here before touching
// team data, so the membership rules live in exactly one place.
//
// Error contract, in precedence order:
//   - missing ids      -> apperrors.DataError (no lookup performed)
//   - unknown resource -> apperrors.NotFoundError (before any team check)
//   - unknown team     -> apperrors.NotFoundError
//   - access denied    -> apperrors.PermissionError
package teampolicy

import (
	"context"

	"github.com/dalemusser/teamline/internal/app/system/apperrors"
	"github.com/dalemusser/teamline/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TeamContext carries the resolved team plus its accepted member ids, so a
// handler that passed the gate never re-queries membership.
type TeamContext struct {
	Team      models.Team
	MemberIDs []primitive.ObjectID
}

// IsLeader reports whether userID leads the resolved team.
func (tc TeamContext) IsLeader(userID primitive.ObjectID) bool {
	return tc.Team.LeaderID == userID
}

// IsMember reports whether userID is an accepted member of the team.
// The leader is always a member.
func (tc TeamContext) IsMember(userID primitive.ObjectID) bool {
	if tc.IsLeader(userID) {
		return true
	}
	for _, id := range tc.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// DiscussionContext is a TeamContext plus the resolved discussion.
type DiscussionContext struct {
	TeamContext
	Discussion models.Discussion
}

// ChatContext is a TeamContext plus the resolved chat.
type ChatContext struct {
	TeamContext
	Chat models.Chat
}

// Resolve checks that actorID may act inside teamID and returns the team
// context. Membership means leader or accepted member; invited and removed
// rows do not grant access.
func Resolve(ctx context.Context, db *mongo.Database, actorID, teamID primitive.ObjectID) (TeamContext, error) {
	if actorID.IsZero() {
		return TeamContext{}, apperrors.NewData("missing user id")
	}
	if teamID.IsZero() {
		return TeamContext{}, apperrors.NewData("missing team id")
	}

	var team models.Team
	err := db.Collection("teams").FindOne(ctx, bson.M{"_id": teamID}).Decode(&team)
	if err == mongo.ErrNoDocuments {
		return TeamContext{}, apperrors.NewNotFound("team")
	}
	if err != nil {
		return TeamContext{}, err
	}

	memberIDs, err := acceptedMemberIDs(ctx, db, teamID)
	if err != nil {
		return TeamContext{}, err
	}

	tc := TeamContext{Team: team, MemberIDs: memberIDs}
	if !tc.IsMember(actorID) {
		return TeamContext{}, apperrors.NewPermission("not a member of this team")
	}
	return tc, nil
}

// acceptedMemberIDs returns the user ids of memberships in the Member
// state. Invited and removed rows are excluded.
func acceptedMemberIDs(ctx context.Context, db *mongo.Database, teamID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := db.Collection("team_members").Find(ctx, bson.M{
		"team_id": teamID,
		"status":  models.MembershipMember,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []primitive.ObjectID
	for cur.Next(ctx) {
		var m models.TeamMembership
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, m.UserID)
	}
	return out, cur.Err()
}

// ResolveDiscussion checks actor access to a discussion. The discussion
// lookup runs first: an unknown id is NotFound even when the caller would
// also have failed the team check. Beyond team membership the actor must be
// the creator, the team leader, or in the discussion's participant set.
func ResolveDiscussion(ctx context.Context, db *mongo.Database, actorID, discussionID primitive.ObjectID) (DiscussionContext, error) {
	if actorID.IsZero() {
		return DiscussionContext{}, apperrors.NewData("missing user id")
	}
	if discussionID.IsZero() {
		return DiscussionContext{}, apperrors.NewData("missing discussion id")
	}

	var d models.Discussion
	err := db.Collection("discussions").FindOne(ctx, bson.M{"_id": discussionID}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return DiscussionContext{}, apperrors.NewNotFound("discussion")
	}
	if err != nil {
		return DiscussionContext{}, err
	}

	tc, err := Resolve(ctx, db, actorID, d.TeamID)
	if err != nil {
		return DiscussionContext{}, err
	}

	if d.CreatedBy != actorID && !tc.IsLeader(actorID) && !d.HasParticipant(actorID) {
		return DiscussionContext{}, apperrors.NewPermission("not a participant of this discussion")
	}
	return DiscussionContext{TeamContext: tc, Discussion: d}, nil
}

// ResolveChat checks actor access to a chat with the same precedence as
// ResolveDiscussion.
func ResolveChat(ctx context.Context, db *mongo.Database, actorID, chatID primitive.ObjectID) (ChatContext, error) {
	if actorID.IsZero() {
		return ChatContext{}, apperrors.NewData("missing user id")
	}
	if chatID.IsZero() {
		return ChatContext{}, apperrors.NewData("missing chat id")
	}

	var c models.Chat
	err := db.Collection("chats").FindOne(ctx, bson.M{"_id": chatID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return ChatContext{}, apperrors.NewNotFound("chat")
	}
	if err != nil {
		return ChatContext{}, err
	}

	tc, err := Resolve(ctx, db, actorID, c.TeamID)
	if err != nil {
		return ChatContext{}, err
	}

	if c.CreatedBy != actorID && !tc.IsLeader(actorID) && !c.HasParticipant(actorID) {
		return ChatContext{}, apperrors.NewPermission("not a participant of this chat")
	}
	return ChatContext{TeamContext: tc, Chat: c}, nil
}
