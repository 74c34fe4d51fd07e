// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	healthfeature "github.com/dalemusser/kanbanhub/internal/app/features/health"
	roomsfeature "github.com/dalemusser/kanbanhub/internal/app/features/rooms"
	tasksfeature "github.com/dalemusser/kanbanhub/internal/app/features/tasks"
	logstore "github.com/dalemusser/kanbanhub/internal/app/store/logs"
	roomstore "github.com/dalemusser/kanbanhub/internal/app/store/rooms"
	"github.com/dalemusser/kanbanhub/internal/app/system/activity"
	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/app/system/metrics"
	"github.com/dalemusser/kanbanhub/internal/app/system/realtime"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. KanbanHub wires the session reader, the
// realtime hub, the activity logger, and the metrics recorder, then mounts:
//
//	/health   liveness (Mongo ping)
//	/metrics  Prometheus
//	/ws       websocket upgrade for room fan-out
//	/api      room and task endpoints, signed-in only
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Session cookies are issued by the user directory service; this app
	// only verifies them. Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	recorder := metrics.NewRecorder()
	realtime.ConfigureSendBuffer(appCfg.WSSendBuffer)
	hub := realtime.NewHub(roomstore.New(db), recorder, logger)
	activityLog := activity.New(logstore.New(db), logger, activity.Mode(appCfg.ActivityLog))

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, hub, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", promhttp.Handler())

	// Websocket fan-out channel. The cookie is loaded by the middleware
	// above; unauthenticated sockets can subscribe but there is nothing to
	// see until a signed-in member mutates a room they joined.
	r.Get("/ws", hub.ServeWS)

	// Board API
	taskHandler := tasksfeature.NewHandler(db, hub, activityLog, recorder, logger)
	roomHandler := roomsfeature.NewHandler(db, appCfg.ActivityLogLimit, logger)

	r.Route("/api", func(api chi.Router) {
		api.Use(auth.RequireSignedIn)
		api.Mount("/rooms", roomsfeature.Routes(roomHandler, tasksfeature.Routes(taskHandler)))
	})

	return r, nil
}
