// internal/app/features/realtime/handler.go
// The realtime feature is the websocket edge: it bridges the HTTP cookie
// session onto a hub connection, relays the hub's event frames to the
// client, and applies the client's room control messages.
package realtime

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/teamline/internal/app/system/notify"
	"github.com/dalemusser/teamline/internal/app/system/realtime"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler owns the /ws endpoint.
type Handler struct {
	DB       *mongo.Database
	Hub      *realtime.Hub
	Notify   *notify.Coordinator
	Log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the websocket Handler. Connections from origins
// outside allowedOrigins are refused before the upgrade.
func NewHandler(db *mongo.Database, hub *realtime.Hub, co *notify.Coordinator, allowedOrigins []string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Hub:    hub,
		Notify: co,
		Log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     makeCheckOrigin(allowedOrigins),
		},
	}
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			// Non-browser clients carry the session cookie but no Origin.
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}
