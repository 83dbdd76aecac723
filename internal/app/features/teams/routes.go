// internal/app/features/teams/routes.go
package teams

import (
	"github.com/dalemusser/teamline/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for team endpoints. Everything requires a
// signed-in session; per-team authorization happens in the policy layer.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)
	r.Get("/{teamID}", h.ServeGet)
	r.Patch("/{teamID}", h.ServeUpdate)
	r.Delete("/{teamID}", h.ServeDelete)

	r.Get("/{teamID}/members", h.ServeMembers)
	r.Post("/{teamID}/invitations", h.ServeInvite)
	r.Post("/{teamID}/invitations/accept", h.ServeAccept)
	r.Delete("/{teamID}/members/{userID}", h.ServeRemoveMember)

	return r
}
