// internal/app/features/logout/routes.go
package logout

import "github.com/go-chi/chi/v5"

// Routes returns the router for the logout endpoint.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeLogout)
	return r
}
