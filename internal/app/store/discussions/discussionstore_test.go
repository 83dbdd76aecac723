package discussionstore_test

import (
	"testing"

	discussionstore "github.com/dalemusser/teamline/internal/app/store/discussions"
	"github.com/dalemusser/teamline/internal/domain/models"
	"github.com/dalemusser/teamline/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSetFirstComment_FirstWriteWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := discussionstore.New(db)
	d, err := store.Create(ctx, models.Discussion{
		TeamID:    primitive.NewObjectID(),
		CreatedBy: primitive.NewObjectID(),
		Title:     "Launch plan",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first := primitive.NewObjectID()
	second := primitive.NewObjectID()

	if err := store.SetFirstComment(ctx, d.ID, first); err != nil {
		t.Fatalf("SetFirstComment failed: %v", err)
	}
	if err := store.SetFirstComment(ctx, d.ID, second); err != nil {
		t.Fatalf("second SetFirstComment errored: %v", err)
	}

	got, err := store.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.FirstCommentID == nil || *got.FirstCommentID != first {
		t.Errorf("first comment id = %v, want %s", got.FirstCommentID, first.Hex())
	}
}

func TestSetStatus_GuardsTransitions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := discussionstore.New(db)
	d, err := store.Create(ctx, models.Discussion{
		TeamID:    primitive.NewObjectID(),
		CreatedBy: primitive.NewObjectID(),
		Title:     "Retro notes",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if d.Status != models.DiscussionActive {
		t.Fatalf("new discussion status = %q, want %q", d.Status, models.DiscussionActive)
	}

	if err := store.SetStatus(ctx, d.ID, models.DiscussionActive, models.DiscussionArchived); err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	// Archiving again is a stale transition.
	if err := store.SetStatus(ctx, d.ID, models.DiscussionActive, models.DiscussionArchived); err != discussionstore.ErrBadTransition {
		t.Errorf("double archive: got %v, want ErrBadTransition", err)
	}

	if err := store.SetStatus(ctx, d.ID, models.DiscussionArchived, models.DiscussionActive); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	got, err := store.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.DiscussionActive {
		t.Errorf("status after restore = %q, want %q", got.Status, models.DiscussionActive)
	}
}

func TestListByTeam_SortsByActivity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := discussionstore.New(db)
	teamID := primitive.NewObjectID()
	creator := primitive.NewObjectID()

	older, err := store.Create(ctx, models.Discussion{TeamID: teamID, CreatedBy: creator, Title: "Older"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	newer, err := store.Create(ctx, models.Discussion{TeamID: teamID, CreatedBy: creator, Title: "Newer"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// A new comment on the older discussion bumps it to the top.
	if err := store.Touch(ctx, older.ID); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	list, err := store.ListByTeam(ctx, teamID)
	if err != nil {
		t.Fatalf("ListByTeam failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListByTeam returned %d discussions, want 2", len(list))
	}
	if list[0].ID != older.ID || list[1].ID != newer.ID {
		t.Errorf("order = [%s %s], want touched discussion first", list[0].Title, list[1].Title)
	}
}
