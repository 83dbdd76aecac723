// internal/app/features/discussions/routes.go
package discussions

import (
	"context"
	"time"

	"github.com/dalemusser/teamline/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// fileCtx bounds each blob delete separately so one slow backend call
// cannot starve the rest of the cleanup.
func fileCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// Routes returns the router for discussion endpoints.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/team/{teamID}", h.ServeListByTeam)
	r.Post("/team/{teamID}", h.ServeCreate)

	r.Get("/{discussionID}", h.ServeGet)
	r.Patch("/{discussionID}", h.ServeUpdate)
	r.Post("/{discussionID}/archive", h.ServeArchive)
	r.Post("/{discussionID}/restore", h.ServeRestore)
	r.Delete("/{discussionID}", h.ServeDelete)

	r.Get("/{discussionID}/comments", h.ServeListComments)
	r.Post("/{discussionID}/comments", h.ServeAddComment)
	r.Patch("/{discussionID}/comments/{commentID}", h.ServeEditComment)
	r.Delete("/{discussionID}/comments/{commentID}", h.ServeDeleteComment)
	r.Post("/{discussionID}/comments/read", h.ServeMarkRead)

	return r
}
