package teampolicy_test

import (
	"testing"

	"github.com/dalemusser/teamline/internal/app/policy/teampolicy"
	"github.com/dalemusser/teamline/internal/app/system/apperrors"
	"github.com/dalemusser/teamline/internal/domain/models"
	"github.com/dalemusser/teamline/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestResolve_MissingIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := teampolicy.Resolve(ctx, db, primitive.NilObjectID, primitive.NewObjectID())
	if !apperrors.IsData(err) {
		t.Errorf("missing actor: got %v, want DataError", err)
	}

	_, err = teampolicy.Resolve(ctx, db, primitive.NewObjectID(), primitive.NilObjectID)
	if !apperrors.IsData(err) {
		t.Errorf("missing team: got %v, want DataError", err)
	}
}

func TestResolve_UnknownTeam(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := teampolicy.Resolve(ctx, db, primitive.NewObjectID(), primitive.NewObjectID())
	if !apperrors.IsNotFound(err) {
		t.Errorf("got %v, want NotFoundError", err)
	}
}

func TestResolve_MembershipStates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateUser(ctx, "Lena Leader", "lena@test.com")
	member := fx.CreateUser(ctx, "Mia Member", "mia@test.com")
	invited := fx.CreateUser(ctx, "Ivan Invited", "ivan@test.com")
	removed := fx.CreateUser(ctx, "Rae Removed", "rae@test.com")
	outsider := fx.CreateUser(ctx, "Omar Outsider", "omar@test.com")

	team := fx.CreateTeam(ctx, "Platform", leader.ID)
	fx.AddMember(ctx, team.ID, member.ID, models.MembershipMember)
	fx.AddMember(ctx, team.ID, invited.ID, models.MembershipInvited)
	fx.AddMember(ctx, team.ID, removed.ID, models.MembershipRemoved)

	tc, err := teampolicy.Resolve(ctx, db, leader.ID, team.ID)
	if err != nil {
		t.Fatalf("leader: %v", err)
	}
	if !tc.IsLeader(leader.ID) {
		t.Error("leader not recognized as leader")
	}

	if _, err := teampolicy.Resolve(ctx, db, member.ID, team.ID); err != nil {
		t.Errorf("member: %v", err)
	}

	for name, uid := range map[string]primitive.ObjectID{
		"invited":  invited.ID,
		"removed":  removed.ID,
		"outsider": outsider.ID,
	} {
		if _, err := teampolicy.Resolve(ctx, db, uid, team.ID); !apperrors.IsPermission(err) {
			t.Errorf("%s: got %v, want PermissionError", name, err)
		}
	}
}

func TestResolveDiscussion_NotFoundBeforePermission(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Unknown discussion id reports NotFound even for a user who belongs
	// to no team at all.
	_, err := teampolicy.ResolveDiscussion(ctx, db, primitive.NewObjectID(), primitive.NewObjectID())
	if !apperrors.IsNotFound(err) {
		t.Errorf("got %v, want NotFoundError", err)
	}
}

func TestResolveDiscussion_ParticipantRules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateUser(ctx, "Lena Leader", "lena@test.com")
	creator := fx.CreateUser(ctx, "Cara Creator", "cara@test.com")
	participant := fx.CreateUser(ctx, "Pat Participant", "pat@test.com")
	bystander := fx.CreateUser(ctx, "Bo Bystander", "bo@test.com")

	team := fx.CreateTeam(ctx, "Platform", leader.ID)
	for _, u := range []models.User{creator, participant, bystander} {
		fx.AddMember(ctx, team.ID, u.ID, models.MembershipMember)
	}
	d := fx.CreateDiscussion(ctx, team.ID, creator.ID, "Release planning", participant.ID)

	for name, uid := range map[string]primitive.ObjectID{
		"creator":     creator.ID,
		"participant": participant.ID,
		"leader":      leader.ID,
	} {
		if _, err := teampolicy.ResolveDiscussion(ctx, db, uid, d.ID); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	// A team member outside the participant set is denied.
	if _, err := teampolicy.ResolveDiscussion(ctx, db, bystander.ID, d.ID); !apperrors.IsPermission(err) {
		t.Errorf("bystander: got %v, want PermissionError", err)
	}
}

func TestResolveChat_ParticipantRules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := fx.CreateUser(ctx, "Lena Leader", "lena@test.com")
	creator := fx.CreateUser(ctx, "Cara Creator", "cara@test.com")
	bystander := fx.CreateUser(ctx, "Bo Bystander", "bo@test.com")

	team := fx.CreateTeam(ctx, "Platform", leader.ID)
	fx.AddMember(ctx, team.ID, creator.ID, models.MembershipMember)
	fx.AddMember(ctx, team.ID, bystander.ID, models.MembershipMember)
	c := fx.CreateChat(ctx, team.ID, creator.ID, "standup")

	cc, err := teampolicy.ResolveChat(ctx, db, creator.ID, c.ID)
	if err != nil {
		t.Fatalf("creator: %v", err)
	}
	if cc.Chat.ID != c.ID {
		t.Errorf("chat id: got %s, want %s", cc.Chat.ID.Hex(), c.ID.Hex())
	}

	if _, err := teampolicy.ResolveChat(ctx, db, bystander.ID, c.ID); !apperrors.IsPermission(err) {
		t.Errorf("bystander: got %v, want PermissionError", err)
	}

	if _, err := teampolicy.ResolveChat(ctx, db, creator.ID, primitive.NewObjectID()); !apperrors.IsNotFound(err) {
		t.Errorf("unknown chat: got %v, want NotFoundError", err)
	}
}
