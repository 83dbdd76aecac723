// internal/app/features/uploads/routes.go
package uploads

import (
	"github.com/dalemusser/teamline/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for file uploads. Signed-in users only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Post("/", h.ServeUpload)
	return r
}
