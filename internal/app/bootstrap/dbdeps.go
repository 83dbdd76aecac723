// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/teamline/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	TeamlineMongoClient   *mongo.Client
	TeamlineMongoDatabase *mongo.Database

	// Workers carries background workers from BuildHandler to Shutdown.
	// DBDeps itself is passed by value between lifecycle hooks, so the
	// holder is allocated once in ConnectDB and shared as a pointer.
	Workers *Workers
}

// Workers collects the background workers started in BuildHandler so
// Shutdown can stop them.
type Workers struct {
	PresenceSweeper *workers.PresenceSweeper
}
