// internal/app/features/realtime/routes.go
package realtime

import "github.com/go-chi/chi/v5"

// Routes returns the router for the websocket endpoint. Session loading
// happens in the global middleware; the handler itself closes
// unauthenticated connections after the upgrade.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeWS)
	return r
}
