// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	chatsfeature "github.com/dalemusser/teamline/internal/app/features/chats"
	discussionsfeature "github.com/dalemusser/teamline/internal/app/features/discussions"
	healthfeature "github.com/dalemusser/teamline/internal/app/features/health"
	loginfeature "github.com/dalemusser/teamline/internal/app/features/login"
	logoutfeature "github.com/dalemusser/teamline/internal/app/features/logout"
	realtimefeature "github.com/dalemusser/teamline/internal/app/features/realtime"
	teamsfeature "github.com/dalemusser/teamline/internal/app/features/teams"
	uploadsfeature "github.com/dalemusser/teamline/internal/app/features/uploads"
	presencestore "github.com/dalemusser/teamline/internal/app/store/presence"
	"github.com/dalemusser/teamline/internal/app/system/auth"
	"github.com/dalemusser/teamline/internal/app/system/filestore"
	"github.com/dalemusser/teamline/internal/app/system/notify"
	"github.com/dalemusser/teamline/internal/app/system/realtime"
	"github.com/dalemusser/teamline/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, and schema setup
// have completed. Teamline wires the session manager, the realtime hub and
// notification coordinator, attachment storage, and then mounts the JSON
// feature routers plus the websocket endpoint.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.TeamlineMongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Attachment storage. Stored files are served by the static file
	// server mounted below under the same URL prefix.
	store, err := filestore.NewLocal(appCfg.StorageLocalPath, appCfg.StorageLocalURL)
	if err != nil {
		logger.Error("attachment storage init failed", zap.Error(err))
		return nil, err
	}

	// The hub fans events out to websocket connections; the coordinator
	// layers unread tracking and presence on top of it.
	hub := realtime.NewHub(logger)
	co := notify.New(db, hub, logger)

	// The sweeper handle is parked on the shared deps holder so Shutdown
	// can stop it.
	deps.Workers.PresenceSweeper = workers.NewPresenceSweeper(presencestore.New(db), hub, co, logger, appCfg.PresenceSweepInterval)
	deps.Workers.PresenceSweeper.Start()

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.TeamlineMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Uploaded attachments with pre-compressed file support
	r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Teams and membership
	teamsHandler := teamsfeature.NewHandler(db, hub, logger)
	r.Mount("/teams", teamsfeature.Routes(teamsHandler, sessionMgr))

	// Discussions and comments
	discussionsHandler := discussionsfeature.NewHandler(db, hub, co, store, logger)
	r.Mount("/discussions", discussionsfeature.Routes(discussionsHandler, sessionMgr))

	// Chats and messages
	chatsHandler := chatsfeature.NewHandler(db, hub, co, store, logger)
	r.Mount("/chats", chatsfeature.Routes(chatsHandler, sessionMgr))

	// File uploads
	uploadsHandler := uploadsfeature.NewHandler(store, logger)
	r.Mount("/uploads", uploadsfeature.Routes(uploadsHandler, sessionMgr))

	// Websocket endpoint. The session is verified after the upgrade so
	// unauthenticated clients get a close frame rather than a failed
	// handshake.
	wsHandler := realtimefeature.NewHandler(db, hub, co, appCfg.AllowedOrigins, logger)
	r.Mount("/ws", realtimefeature.Routes(wsHandler))

	return r, nil
}
