package realtime

import (
	"encoding/json"
	"testing"

	presencestore "github.com/dalemusser/teamline/internal/app/store/presence"
	"github.com/dalemusser/teamline/internal/app/system/notify"
	"github.com/dalemusser/teamline/internal/app/system/realtime"
	"github.com/dalemusser/teamline/internal/domain/events"
	"github.com/dalemusser/teamline/internal/domain/models"
	"github.com/dalemusser/teamline/internal/testutil"
	"go.uber.org/zap"
)

// drainFrames pulls every queued frame off a connection without blocking.
func drainFrames(c *realtime.Conn) [][]byte {
	var out [][]byte
	for {
		select {
		case f, ok := <-c.Send():
			if !ok {
				return out
			}
			out = append(out, f)
		default:
			return out
		}
	}
}

func TestRelease_FlipsPresenceOfflineOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hub := realtime.NewHub(zap.NewNop())
	co := notify.New(db, hub, zap.NewNop())
	h := NewHandler(db, hub, co, nil, zap.NewNop())
	ps := presencestore.New(db)

	leader := fx.CreateUser(ctx, "Lena Leader", "lena@test.com")
	member := fx.CreateUser(ctx, "Mia Member", "mia@test.com")
	team := fx.CreateTeam(ctx, "Platform", leader.ID)
	fx.AddMember(ctx, team.ID, member.ID, models.MembershipMember)

	// The leader is connected, in the team room, and flagged online. The
	// online broadcast excludes the leader's own connection the way a real
	// client's echo suppression would.
	conn := hub.Connect(leader.ID)
	hub.JoinTeam(conn, team.ID)
	co.OnlineStatusChanged(ctx, leader.ID, team.ID, true, conn.ID)

	// A teammate is watching the team room.
	watcher := hub.Connect(member.ID)
	hub.JoinTeam(watcher, team.ID)

	// Socket drop.
	h.release(conn, leader.ID)

	p, err := ps.Get(ctx, leader.ID, team.ID)
	if err != nil {
		t.Fatalf("presence get: %v", err)
	}
	if p.Online {
		t.Error("presence still online after release")
	}

	// The team room hears exactly one offline transition.
	frames := drainFrames(watcher)
	if len(frames) != 1 {
		t.Fatalf("watcher got %d frames, want 1", len(frames))
	}
	var env events.Envelope
	if err := json.Unmarshal(frames[0], &env); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if env.Event != events.ChannelOnlineStatus {
		t.Errorf("channel: got %s", env.Event)
	}
	var payload events.OnlineStatus
	raw, _ := json.Marshal(env.Data)
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.Online || payload.ActionType != events.ActionOffline || payload.UserID != leader.ID.Hex() {
		t.Errorf("payload: %+v, want leader offline", payload)
	}

	// The released connection's send channel is closed, so writePump
	// would shut the socket down.
	if _, ok := <-conn.Send(); ok {
		t.Error("released connection's send channel still open")
	}

	// Releasing again is a no-op: no second broadcast, no panic.
	h.release(conn, leader.ID)
	if extra := drainFrames(watcher); len(extra) != 0 {
		t.Errorf("second release broadcast %d frames, want 0", len(extra))
	}
}
