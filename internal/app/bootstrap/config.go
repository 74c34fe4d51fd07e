// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/kanbanhub/internal/app/system/activity"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for KanbanHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: KANBANHUB_MONGO_URI, KANBANHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "kanban_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session verification key (must match the user directory service)"},
	{Name: "session_name", Default: "kanbanhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Activity feed settings
	{Name: "activity_log", Default: "all", Desc: "Activity logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "activity_log_limit", Default: 20, Desc: "Activity entries returned when opening a room"},

	// Realtime settings
	{Name: "ws_send_buffer", Default: 64, Desc: "Per-connection websocket send queue length; slower clients are dropped"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, KANBANHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "KANBANHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		ActivityLog:      appValues.String("activity_log"),
		ActivityLogLimit: int64(appValues.Int("activity_log_limit")),

		WSSendBuffer: appValues.Int("ws_send_buffer"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// KanbanHub validates the MongoDB URI format to catch configuration
// errors early, before attempting to connect, and rejects unknown
// activity log modes so a typo doesn't silently disable the feed.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch activity.Mode(appCfg.ActivityLog) {
	case activity.ModeAll, activity.ModeDB, activity.ModeLog, activity.ModeOff:
	default:
		return fmt.Errorf("invalid activity_log mode %q (want all, db, log, or off)", appCfg.ActivityLog)
	}

	if appCfg.ActivityLogLimit <= 0 {
		return fmt.Errorf("activity_log_limit must be positive, got %d", appCfg.ActivityLogLimit)
	}

	if appCfg.WSSendBuffer <= 0 {
		return fmt.Errorf("ws_send_buffer must be positive, got %d", appCfg.WSSendBuffer)
	}

	return nil
}
