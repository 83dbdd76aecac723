package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/teamline/internal/app/system/auth"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func TestNewSessionManager_RejectsShortKey(t *testing.T) {
	_, err := auth.NewSessionManager("too-short", "s", "", time.Hour, false, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for short session key")
	}
}

func TestRequireSignedIn_NoUser_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/teams", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireSignedIn_WithUser_Passes(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/teams", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "abc", Name: "Test"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestSignInThenLoad_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)

	// Sign in and capture the cookie.
	signInRec := httptest.NewRecorder()
	signInReq := httptest.NewRequest("POST", "/login", nil)
	err := sm.SignIn(signInRec, signInReq, auth.SessionUser{
		ID:    "64b0c0ffee0000000000aaaa",
		Name:  "Ada",
		Email: "ada@example.com",
	})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	cookies := signInRec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie to be set")
	}

	// Replay the cookie through LoadSessionUser.
	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/api/teams", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected user in context after session round trip")
	}
	if got.ID != "64b0c0ffee0000000000aaaa" || got.Email != "ada@example.com" {
		t.Errorf("unexpected session user: %+v", got)
	}
}

func TestSignOut_ClearsSession(t *testing.T) {
	sm := newTestSessionManager(t)

	signInRec := httptest.NewRecorder()
	signInReq := httptest.NewRequest("POST", "/login", nil)
	if err := sm.SignIn(signInRec, signInReq, auth.SessionUser{ID: "x", Name: "X"}); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	outRec := httptest.NewRecorder()
	outReq := httptest.NewRequest("POST", "/logout", nil)
	for _, c := range signInRec.Result().Cookies() {
		outReq.AddCookie(c)
	}
	if err := sm.SignOut(outRec, outReq); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	found := false
	for _, c := range outRec.Result().Cookies() {
		if c.MaxAge < 0 {
			found = true
		}
	}
	if !found {
		t.Error("expected an expired session cookie after sign-out")
	}
}
