// internal/app/features/discussions/handler.go
package discussions

import (
	commentstore "github.com/dalemusser/teamline/internal/app/store/comments"
	discussionstore "github.com/dalemusser/teamline/internal/app/store/discussions"
	"github.com/dalemusser/teamline/internal/app/system/filestore"
	"github.com/dalemusser/teamline/internal/app/system/notify"
	"github.com/dalemusser/teamline/internal/app/system/realtime"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the discussion and comment endpoints.
type Handler struct {
	DB          *mongo.Database
	Discussions *discussionstore.Store
	Comments    *commentstore.Store
	Hub         *realtime.Hub
	Notify      *notify.Coordinator
	Storage     filestore.Store
	Log         *zap.Logger
}

// NewHandler creates a new discussions Handler.
func NewHandler(db *mongo.Database, hub *realtime.Hub, co *notify.Coordinator, store filestore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Discussions: discussionstore.New(db),
		Comments:    commentstore.New(db),
		Hub:         hub,
		Notify:      co,
		Storage:     store,
		Log:         logger,
	}
}

// deleteFiles best-effort removes uploaded files once their owning rows are
// gone. Failures are logged; the rows are already deleted.
func (h *Handler) deleteFiles(urls []string) {
	if h.Storage == nil {
		return
	}
	for _, u := range urls {
		ctx, cancel := fileCtx()
		if err := h.Storage.Delete(ctx, u); err != nil {
			h.Log.Warn("file cleanup failed", zap.String("path", u), zap.Error(err))
		}
		cancel()
	}
}
