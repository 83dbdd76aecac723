// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/teamline/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sessionMgr, Log: logger}
}

// ServeLogout handles POST /logout. Always succeeds; an expired session is
// already logged out.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("logout: session clear failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
