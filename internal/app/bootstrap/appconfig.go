// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS, body limits). AppConfig is everything specific to
// Teamline: the Mongo connection, session cookies, websocket origins,
// attachment storage, and worker tuning.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections kept warm

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // How long a session cookie stays valid

	// Websocket configuration
	AllowedOrigins []string // Origins permitted to open websocket connections

	// Attachment storage configuration
	StorageLocalPath string // Local directory for uploaded attachments
	StorageLocalURL  string // URL prefix attachments are served from

	// Presence sweeper
	PresenceSweepInterval time.Duration // How often stale online flags are reconciled
}
