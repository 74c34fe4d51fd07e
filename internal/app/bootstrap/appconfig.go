// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig handles
// framework-level settings (ports, TLS, logging, CORS); AppConfig is
// everything specific to the board service.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max driver connection pool size
	MongoMinPoolSize uint64 // Min driver connection pool size

	// Session management configuration. The key must match what the user
	// directory service signs cookies with; this service only reads them.
	SessionKey    string // Secret key for verifying session cookies
	SessionName   string // Cookie name for sessions (default: kanbanhub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Activity feed configuration
	ActivityLog      string // Activity logging: "all" (db+log), "db", "log", or "off"
	ActivityLogLimit int64  // Entries returned when opening a room

	// Realtime configuration
	WSSendBuffer int // Per-connection websocket send queue length
}
