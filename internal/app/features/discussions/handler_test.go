package discussions_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/teamline/internal/app/features/discussions"
	unreadstore "github.com/dalemusser/teamline/internal/app/store/unread"
	"github.com/dalemusser/teamline/internal/app/system/notify"
	"github.com/dalemusser/teamline/internal/app/system/realtime"
	"github.com/dalemusser/teamline/internal/domain/models"
	"github.com/dalemusser/teamline/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*discussions.Handler, *testutil.Fixtures, *unreadstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	hub := realtime.NewHub(zap.NewNop())
	co := notify.New(db, hub, zap.NewNop())
	h := discussions.NewHandler(db, hub, co, nil, zap.NewNop())
	return h, testutil.NewFixtures(t, db), unreadstore.New(db)
}

func jsonRequest(method, target, body string, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return testutil.WithUser(req, user)
}

func asUser(u models.User) testutil.TestUser {
	return testutil.UserFor(u.ID, u.FullName, u.Email)
}

func TestServeCreate_WithFirstComment(t *testing.T) {
	h, f, unread := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := f.CreateUser(ctx, "Leader", "leader@test.com")
	member := f.CreateUser(ctx, "Member", "member@test.com")
	team := f.CreateTeam(ctx, "Platform", leader.ID)
	f.AddMember(ctx, team.ID, member.ID, models.MembershipMember)

	body := fmt.Sprintf(`{
		"title": "Release checklist",
		"memberIds": [%q],
		"firstComment": {"body": "Kickoff notes"}
	}`, member.ID.Hex())

	req := jsonRequest("POST", "/discussions/team/"+team.ID.Hex(), body, asUser(leader))
	req = testutil.WithChiURLParam(req, "teamID", team.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var resp struct {
		ID             string `json:"id"`
		FirstCommentID string `json:"firstCommentId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.FirstCommentID == "" {
		t.Fatal("response should carry the first comment id")
	}

	discussionID, _ := primitive.ObjectIDFromHex(resp.ID)
	commentID, _ := primitive.ObjectIDFromHex(resp.FirstCommentID)

	// The other participant sees the opening comment as unread.
	memberUnread, err := unread.UnreadCommentIDs(ctx, member.ID, discussionID)
	if err != nil {
		t.Fatalf("UnreadCommentIDs failed: %v", err)
	}
	if len(memberUnread) != 1 || memberUnread[0] != commentID {
		t.Errorf("member unread = %v, want the first comment", memberUnread)
	}

	// The author never sees their own comment as unread.
	authorUnread, _ := unread.UnreadCommentIDs(ctx, leader.ID, discussionID)
	if len(authorUnread) != 0 {
		t.Errorf("author unread = %v, want empty", authorUnread)
	}
}

func TestServeAddComment_ArchivedRejected(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := f.CreateUser(ctx, "Leader", "leader@test.com")
	team := f.CreateTeam(ctx, "Platform", leader.ID)
	d := f.CreateDiscussion(ctx, team.ID, leader.ID, "Old thread")

	if _, err := f.DB().Collection("discussions").UpdateByID(ctx, d.ID,
		bson.M{"$set": bson.M{"status": models.DiscussionArchived}}); err != nil {
		t.Fatalf("archive fixture failed: %v", err)
	}

	req := jsonRequest("POST", "/discussions/"+d.ID.Hex()+"/comments",
		`{"body":"late reply"}`, asUser(leader))
	req = testutil.WithChiURLParam(req, "discussionID", d.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeAddComment(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "archived")
}

func TestServeAddComment_NonParticipantDenied(t *testing.T) {
	h, f, _ := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := f.CreateUser(ctx, "Leader", "leader@test.com")
	creator := f.CreateUser(ctx, "Creator", "creator@test.com")
	bystander := f.CreateUser(ctx, "Bystander", "bystander@test.com")
	team := f.CreateTeam(ctx, "Platform", leader.ID)
	f.AddMember(ctx, team.ID, creator.ID, models.MembershipMember)
	f.AddMember(ctx, team.ID, bystander.ID, models.MembershipMember)
	d := f.CreateDiscussion(ctx, team.ID, creator.ID, "Private thread")

	// A team member outside the participant set cannot post.
	req := jsonRequest("POST", "/discussions/"+d.ID.Hex()+"/comments",
		`{"body":"hello"}`, asUser(bystander))
	req = testutil.WithChiURLParam(req, "discussionID", d.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeAddComment(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeMarkRead_OnlyClearsReader(t *testing.T) {
	h, f, unread := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := f.CreateUser(ctx, "Leader", "leader@test.com")
	alice := f.CreateUser(ctx, "Alice", "alice@test.com")
	bob := f.CreateUser(ctx, "Bob", "bob@test.com")
	team := f.CreateTeam(ctx, "Platform", leader.ID)
	f.AddMember(ctx, team.ID, alice.ID, models.MembershipMember)
	f.AddMember(ctx, team.ID, bob.ID, models.MembershipMember)
	d := f.CreateDiscussion(ctx, team.ID, leader.ID, "Thread", alice.ID, bob.ID)
	c := f.CreateComment(ctx, d, leader.ID, "news")

	if err := unread.AddComment(ctx, []primitive.ObjectID{alice.ID, bob.ID}, d.ID, team.ID, c.ID); err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}

	req := jsonRequest("POST", "/discussions/"+d.ID.Hex()+"/comments/read",
		fmt.Sprintf(`{"commentIds":[%q]}`, c.ID.Hex()), asUser(alice))
	req = testutil.WithChiURLParam(req, "discussionID", d.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeMarkRead(rec, req)
	rec.AssertStatus(t, http.StatusNoContent)

	aliceUnread, _ := unread.UnreadCommentIDs(ctx, alice.ID, d.ID)
	if len(aliceUnread) != 0 {
		t.Errorf("alice unread = %v, want empty", aliceUnread)
	}
	bobUnread, _ := unread.UnreadCommentIDs(ctx, bob.ID, d.ID)
	if len(bobUnread) != 1 {
		t.Errorf("bob unread = %v, should be untouched", bobUnread)
	}
}

func TestServeDelete_CascadesUnread(t *testing.T) {
	h, f, unread := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := f.CreateUser(ctx, "Leader", "leader@test.com")
	alice := f.CreateUser(ctx, "Alice", "alice@test.com")
	team := f.CreateTeam(ctx, "Platform", leader.ID)
	f.AddMember(ctx, team.ID, alice.ID, models.MembershipMember)
	d := f.CreateDiscussion(ctx, team.ID, leader.ID, "Doomed", alice.ID)
	c := f.CreateComment(ctx, d, leader.ID, "soon gone")

	if err := unread.AddComment(ctx, []primitive.ObjectID{alice.ID}, d.ID, team.ID, c.ID); err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}

	req := testutil.NewAuthenticatedRequest("DELETE", "/discussions/"+d.ID.Hex(), asUser(leader))
	req = testutil.WithChiURLParam(req, "discussionID", d.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeDelete(rec, req)
	rec.AssertStatus(t, http.StatusNoContent)

	if ids, _ := unread.UnreadCommentIDs(ctx, alice.ID, d.ID); len(ids) != 0 {
		t.Errorf("unread set survived the discussion delete: %v", ids)
	}
	n, err := f.DB().Collection("comments").CountDocuments(ctx, bson.M{"discussion_id": d.ID})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 0 {
		t.Errorf("%d comments survived the discussion delete", n)
	}
}
