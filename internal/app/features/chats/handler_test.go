package chats_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/teamline/internal/app/features/chats"
	messagestore "github.com/dalemusser/teamline/internal/app/store/messages"
	unreadstore "github.com/dalemusser/teamline/internal/app/store/unread"
	"github.com/dalemusser/teamline/internal/app/system/notify"
	"github.com/dalemusser/teamline/internal/app/system/realtime"
	"github.com/dalemusser/teamline/internal/domain/models"
	"github.com/dalemusser/teamline/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*chats.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	hub := realtime.NewHub(zap.NewNop())
	co := notify.New(db, hub, zap.NewNop())
	h := chats.NewHandler(db, hub, co, nil, zap.NewNop())
	return h, testutil.NewFixtures(t, db)
}

func jsonRequest(method, target, body string, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return testutil.WithUser(req, user)
}

func asUser(u models.User) testutil.TestUser {
	return testutil.UserFor(u.ID, u.FullName, u.Email)
}

func TestServeAddMessage_ThreadDepthLimit(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := f.CreateUser(ctx, "Leader", "leader@test.com")
	team := f.CreateTeam(ctx, "Platform", leader.ID)
	chat := f.CreateChat(ctx, team.ID, leader.ID, "general")
	parent := f.CreateMessage(ctx, chat, leader.ID, "top level", nil)
	reply := f.CreateMessage(ctx, chat, leader.ID, "first reply", &parent.ID)

	// Replying to a reply is rejected.
	req := jsonRequest("POST", "/chats/"+chat.ID.Hex()+"/messages",
		fmt.Sprintf(`{"body":"too deep","parentId":%q}`, reply.ID.Hex()), asUser(leader))
	req = testutil.WithChiURLParam(req, "chatID", chat.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeAddMessage(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "one level deep")

	// Replying to the top-level message is fine.
	req = jsonRequest("POST", "/chats/"+chat.ID.Hex()+"/messages",
		fmt.Sprintf(`{"body":"sibling reply","parentId":%q}`, parent.ID.Hex()), asUser(leader))
	req = testutil.WithChiURLParam(req, "chatID", chat.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeAddMessage(rec, req)
	rec.AssertStatus(t, http.StatusCreated)
}

func TestServeAddMessage_ParentMustBeInChat(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := f.CreateUser(ctx, "Leader", "leader@test.com")
	team := f.CreateTeam(ctx, "Platform", leader.ID)
	chat := f.CreateChat(ctx, team.ID, leader.ID, "general")
	other := f.CreateChat(ctx, team.ID, leader.ID, "random")
	stranger := f.CreateMessage(ctx, other, leader.ID, "elsewhere", nil)

	req := jsonRequest("POST", "/chats/"+chat.ID.Hex()+"/messages",
		fmt.Sprintf(`{"body":"cross-chat reply","parentId":%q}`, stranger.ID.Hex()), asUser(leader))
	req = testutil.WithChiURLParam(req, "chatID", chat.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeAddMessage(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "message")
}

func TestServeSeen_ClearsBothSides(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := f.CreateUser(ctx, "Author", "author@test.com")
	reader := f.CreateUser(ctx, "Reader", "reader@test.com")
	team := f.CreateTeam(ctx, "Platform", author.ID)
	f.AddMember(ctx, team.ID, reader.ID, models.MembershipMember)
	chat := f.CreateChat(ctx, team.ID, author.ID, "general", reader.ID)

	// The author posts through the handler so both unread kinds get written.
	req := jsonRequest("POST", "/chats/"+chat.ID.Hex()+"/messages",
		`{"body":"hello there"}`, asUser(author))
	req = testutil.WithChiURLParam(req, "chatID", chat.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeAddMessage(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	unread := unreadstore.New(f.DB())
	byUser, err := unread.UnreadMessageIDs(ctx, reader.ID, chat.ID, models.UnreadByUser)
	if err != nil {
		t.Fatalf("UnreadMessageIDs failed: %v", err)
	}
	if len(byUser) != 1 {
		t.Fatalf("reader unread = %v, want one message", byUser)
	}
	messageID := byUser[0]

	req = jsonRequest("POST", "/chats/"+chat.ID.Hex()+"/messages/seen",
		fmt.Sprintf(`{"messageIds":[%q]}`, messageID.Hex()), asUser(reader))
	req = testutil.WithChiURLParam(req, "chatID", chat.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeSeen(rec, req)
	rec.AssertStatus(t, http.StatusNoContent)

	if ids, _ := unread.UnreadMessageIDs(ctx, reader.ID, chat.ID, models.UnreadByUser); len(ids) != 0 {
		t.Errorf("reader unread after seen = %v, want empty", ids)
	}
	// The author's awaiting-read marker clears too.
	if ids, _ := unread.UnreadMessageIDs(ctx, author.ID, chat.ID, models.UnreadBySomeone); len(ids) != 0 {
		t.Errorf("author by-someone after seen = %v, want empty", ids)
	}
}

func TestServeClear_CreatorOrLeaderOnly(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := f.CreateUser(ctx, "Leader", "leader@test.com")
	member := f.CreateUser(ctx, "Member", "member@test.com")
	team := f.CreateTeam(ctx, "Platform", leader.ID)
	f.AddMember(ctx, team.ID, member.ID, models.MembershipMember)
	chat := f.CreateChat(ctx, team.ID, leader.ID, "general", member.ID)
	f.CreateMessage(ctx, chat, leader.ID, "one", nil)
	f.CreateMessage(ctx, chat, member.ID, "two", nil)

	clearReq := func(actor models.User) *testutil.ResponseRecorder {
		req := testutil.NewAuthenticatedRequest("POST", "/chats/"+chat.ID.Hex()+"/clear", asUser(actor))
		req = testutil.WithChiURLParam(req, "chatID", chat.ID.Hex())
		rec := testutil.NewRecorder()
		h.ServeClear(rec, req)
		return rec
	}

	clearReq(member).AssertStatus(t, http.StatusForbidden)
	clearReq(leader).AssertStatus(t, http.StatusNoContent)

	msgs := messagestore.New(f.DB())
	list, err := msgs.ListByChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("ListByChat failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("%d messages survived the clear", len(list))
	}
	// The chat itself survives a clear.
	if _, err := h.Chats.GetByID(ctx, chat.ID); err != nil {
		t.Errorf("chat should survive a clear: %v", err)
	}
}

func TestServeDelete_RemovesChat(t *testing.T) {
	h, f := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader := f.CreateUser(ctx, "Leader", "leader@test.com")
	team := f.CreateTeam(ctx, "Platform", leader.ID)
	chat := f.CreateChat(ctx, team.ID, leader.ID, "doomed")
	f.CreateMessage(ctx, chat, leader.ID, "last words", nil)

	req := testutil.NewAuthenticatedRequest("DELETE", "/chats/"+chat.ID.Hex(), asUser(leader))
	req = testutil.WithChiURLParam(req, "chatID", chat.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeDelete(rec, req)
	rec.AssertStatus(t, http.StatusNoContent)

	if _, err := h.Chats.GetByID(ctx, chat.ID); err == nil {
		t.Error("chat survived its delete")
	}

	msgs := messagestore.New(f.DB())
	list, err := msgs.ListByChat(ctx, chat.ID)
	if err != nil {
		t.Fatalf("ListByChat failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("%d messages survived the chat delete", len(list))
	}
}
