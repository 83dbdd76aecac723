// internal/app/features/chats/routes.go
package chats

import (
	"context"
	"time"

	"github.com/dalemusser/teamline/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func fileCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// Routes returns the router for chat endpoints.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/team/{teamID}", h.ServeListByTeam)
	r.Post("/team/{teamID}", h.ServeCreate)

	r.Get("/{chatID}", h.ServeGet)
	r.Patch("/{chatID}", h.ServeUpdate)
	r.Delete("/{chatID}", h.ServeDelete)
	r.Post("/{chatID}/clear", h.ServeClear)

	r.Get("/{chatID}/messages", h.ServeListMessages)
	r.Post("/{chatID}/messages", h.ServeAddMessage)
	r.Patch("/{chatID}/messages/{messageID}", h.ServeEditMessage)
	r.Delete("/{chatID}/messages/{messageID}", h.ServeDeleteMessage)
	r.Post("/{chatID}/messages/seen", h.ServeSeen)

	return r
}
