// internal/app/features/teams/handler.go
package teams

import (
	teamstore "github.com/dalemusser/teamline/internal/app/store/teams"
	userstore "github.com/dalemusser/teamline/internal/app/store/users"
	"github.com/dalemusser/teamline/internal/app/system/realtime"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the team CRUD and invitation endpoints.
type Handler struct {
	DB    *mongo.Database
	Teams *teamstore.Store
	Users *userstore.Store
	Hub   *realtime.Hub
	Log   *zap.Logger
}

// NewHandler creates a new teams Handler.
func NewHandler(db *mongo.Database, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Teams: teamstore.New(db, logger),
		Users: userstore.New(db),
		Hub:   hub,
		Log:   logger,
	}
}
