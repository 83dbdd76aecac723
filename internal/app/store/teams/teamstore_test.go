package teamstore_test

import (
	"testing"

	teamstore "github.com/dalemusser/teamline/internal/app/store/teams"
	"github.com/dalemusser/teamline/internal/domain/models"
	"github.com/dalemusser/teamline/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestCreate_InsertsLeaderMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := teamstore.New(db, zap.NewNop())
	leaderID := primitive.NewObjectID()

	team, err := store.Create(ctx, models.Team{Name: "Design", LeaderID: leaderID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	m, err := store.Membership(ctx, team.ID, leaderID)
	if err != nil {
		t.Fatalf("leader membership not found: %v", err)
	}
	if m.Status != models.MembershipMember {
		t.Errorf("leader status = %q, want %q", m.Status, models.MembershipMember)
	}

	ids, err := store.MemberIDs(ctx, team.ID)
	if err != nil {
		t.Fatalf("MemberIDs failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != leaderID {
		t.Errorf("MemberIDs = %v, want just the leader", ids)
	}
}

func TestInviteAcceptRemove_Lifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := teamstore.New(db, zap.NewNop())
	team, err := store.Create(ctx, models.Team{Name: "Ops", LeaderID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	userID := primitive.NewObjectID()

	if err := store.Invite(ctx, team.ID, userID); err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	m, _ := store.Membership(ctx, team.ID, userID)
	if m.Status != models.MembershipInvited {
		t.Fatalf("status after invite = %q, want %q", m.Status, models.MembershipInvited)
	}

	// Invited users are not in the resolver's member set yet.
	ids, _ := store.MemberIDs(ctx, team.ID)
	for _, id := range ids {
		if id == userID {
			t.Error("invited user must not appear in MemberIDs")
		}
	}

	if err := store.Accept(ctx, team.ID, userID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	m, _ = store.Membership(ctx, team.ID, userID)
	if m.Status != models.MembershipMember {
		t.Fatalf("status after accept = %q, want %q", m.Status, models.MembershipMember)
	}
	if m.JoinedAt == nil {
		t.Error("JoinedAt should be set after accept")
	}

	if err := store.Remove(ctx, team.ID, userID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	ids, _ = store.MemberIDs(ctx, team.ID)
	for _, id := range ids {
		if id == userID {
			t.Error("removed user must not appear in MemberIDs")
		}
	}
}

func TestInvite_DuplicateAndRevive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := teamstore.New(db, zap.NewNop())
	team, err := store.Create(ctx, models.Team{Name: "QA", LeaderID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	userID := primitive.NewObjectID()

	if err := store.Invite(ctx, team.ID, userID); err != nil {
		t.Fatalf("first Invite failed: %v", err)
	}
	if err := store.Invite(ctx, team.ID, userID); err != teamstore.ErrDuplicateMembership {
		t.Errorf("re-inviting an invitee: got %v, want ErrDuplicateMembership", err)
	}

	if err := store.Accept(ctx, team.ID, userID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if err := store.Invite(ctx, team.ID, userID); err != teamstore.ErrDuplicateMembership {
		t.Errorf("inviting a member: got %v, want ErrDuplicateMembership", err)
	}

	// A removed user can be invited again.
	if err := store.Remove(ctx, team.ID, userID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := store.Invite(ctx, team.ID, userID); err != nil {
		t.Errorf("re-inviting a removed user should succeed, got %v", err)
	}
	m, _ := store.Membership(ctx, team.ID, userID)
	if m.Status != models.MembershipInvited {
		t.Errorf("revived status = %q, want %q", m.Status, models.MembershipInvited)
	}
}

func TestAccept_RequiresPendingInvitation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := teamstore.New(db, zap.NewNop())
	team, err := store.Create(ctx, models.Team{Name: "Support", LeaderID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// No invitation at all.
	if err := store.Accept(ctx, team.ID, primitive.NewObjectID()); err != teamstore.ErrBadTransition {
		t.Errorf("accept without invite: got %v, want ErrBadTransition", err)
	}

	// Already a member.
	userID := primitive.NewObjectID()
	if err := store.Invite(ctx, team.ID, userID); err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if err := store.Accept(ctx, team.ID, userID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if err := store.Accept(ctx, team.ID, userID); err != teamstore.ErrBadTransition {
		t.Errorf("double accept: got %v, want ErrBadTransition", err)
	}
}

func TestTeamIDsForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := teamstore.New(db, zap.NewNop())
	userID := primitive.NewObjectID()

	memberTeam, err := store.Create(ctx, models.Team{Name: "A", LeaderID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Invite(ctx, memberTeam.ID, userID); err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if err := store.Accept(ctx, memberTeam.ID, userID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	invitedTeam, err := store.Create(ctx, models.Team{Name: "B", LeaderID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Invite(ctx, invitedTeam.ID, userID); err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	ids, err := store.TeamIDsForUser(ctx, userID)
	if err != nil {
		t.Fatalf("TeamIDsForUser failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != memberTeam.ID {
		t.Errorf("TeamIDsForUser = %v, want only the accepted team %s", ids, memberTeam.ID.Hex())
	}
}

func TestDelete_RemovesMemberships(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := teamstore.New(db, zap.NewNop())
	team, err := store.Create(ctx, models.Team{Name: "Temp", LeaderID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Delete(ctx, team.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.GetByID(ctx, team.ID); err == nil {
		t.Error("team should be gone after Delete")
	}
	ids, err := store.MemberIDs(ctx, team.ID)
	if err != nil {
		t.Fatalf("MemberIDs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("memberships should be gone after Delete, got %v", ids)
	}
}
