package bootstrap

import (
	"context"
	"testing"
	"time"

	presencestore "github.com/dalemusser/teamline/internal/app/store/presence"
	"github.com/dalemusser/teamline/internal/app/system/notify"
	"github.com/dalemusser/teamline/internal/app/system/realtime"
	"github.com/dalemusser/teamline/internal/app/system/workers"
	"github.com/dalemusser/teamline/internal/testutil"
	"go.uber.org/zap"
)

func TestShutdown_StopsWorkersOnDeps(t *testing.T) {
	db := testutil.SetupTestDB(t)

	hub := realtime.NewHub(zap.NewNop())
	co := notify.New(db, hub, zap.NewNop())

	deps := DBDeps{Workers: &Workers{}}
	deps.Workers.PresenceSweeper = workers.NewPresenceSweeper(presencestore.New(db), hub, co, zap.NewNop(), time.Hour)
	deps.Workers.PresenceSweeper.Start()

	// Must return promptly with the sweeper stopped rather than leaking
	// its goroutine past shutdown.
	done := make(chan error, 1)
	go func() {
		done <- Shutdown(context.Background(), nil, AppConfig{}, deps, zap.NewNop())
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Shutdown: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not stop the presence sweeper")
	}
}

func TestShutdown_ToleratesEmptyDeps(t *testing.T) {
	if err := Shutdown(context.Background(), nil, AppConfig{}, DBDeps{}, zap.NewNop()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
