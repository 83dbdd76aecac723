package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/teamline/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Calls chain: an existing route context is reused.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given name and email.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Email:      email,
		EmailCI:    text.Fold(email),
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTeam creates a team led by leaderID, including the leader's own
// accepted membership row.
func (f *Fixtures) CreateTeam(ctx context.Context, name string, leaderID primitive.ObjectID) models.Team {
	f.t.Helper()

	now := time.Now().UTC()
	team := models.Team{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		LeaderID:  leaderID,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}
	f.AddMember(ctx, team.ID, leaderID, models.MembershipMember)
	return team
}

// AddMember inserts a membership row for the user in the given state.
func (f *Fixtures) AddMember(ctx context.Context, teamID, userID primitive.ObjectID, status models.MembershipStatus) models.TeamMembership {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.TeamMembership{
		ID:        primitive.NewObjectID(),
		TeamID:    teamID,
		UserID:    userID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("team_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateDiscussion creates a discussion in the team with the given participants.
func (f *Fixtures) CreateDiscussion(ctx context.Context, teamID, createdBy primitive.ObjectID, title string, memberIDs ...primitive.ObjectID) models.Discussion {
	f.t.Helper()

	now := time.Now().UTC()
	d := models.Discussion{
		ID:            primitive.NewObjectID(),
		TeamID:        teamID,
		Title:         title,
		TitleCI:       text.Fold(title),
		CreatedBy:     createdBy,
		MemberIDs:     memberIDs,
		Status:        models.DiscussionActive,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	if _, err := f.db.Collection("discussions").InsertOne(ctx, d); err != nil {
		f.t.Fatalf("failed to create test discussion: %v", err)
	}
	return d
}

// CreateChat creates a chat in the team with the given participants.
func (f *Fixtures) CreateChat(ctx context.Context, teamID, createdBy primitive.ObjectID, name string, memberIDs ...primitive.ObjectID) models.Chat {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Chat{
		ID:        primitive.NewObjectID(),
		TeamID:    teamID,
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedBy: createdBy,
		MemberIDs: memberIDs,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("chats").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test chat: %v", err)
	}
	return c
}

// CreateComment creates a comment in the discussion.
func (f *Fixtures) CreateComment(ctx context.Context, d models.Discussion, authorID primitive.ObjectID, body string) models.Comment {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Comment{
		ID:           primitive.NewObjectID(),
		DiscussionID: d.ID,
		TeamID:       d.TeamID,
		AuthorID:     authorID,
		Body:         body,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("comments").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test comment: %v", err)
	}
	return c
}

// CreateMessage creates a chat message. Pass a non-nil parentID for a
// thread reply.
func (f *Fixtures) CreateMessage(ctx context.Context, c models.Chat, authorID primitive.ObjectID, body string, parentID *primitive.ObjectID) models.Message {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Message{
		ID:        primitive.NewObjectID(),
		ChatID:    c.ID,
		TeamID:    c.TeamID,
		AuthorID:  authorID,
		Body:      body,
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("messages").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}
	return m
}
