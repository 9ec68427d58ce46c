package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/scoresnap/internal/api/handler"
	"github.com/mcoot/scoresnap/internal/api/middleware"
	"github.com/mcoot/scoresnap/internal/api/response"
	"github.com/mcoot/scoresnap/internal/api/sse"
	"github.com/mcoot/scoresnap/internal/dependencies/clock"
	"github.com/mcoot/scoresnap/internal/metrics"
	sharedmw "github.com/mcoot/scoresnap/internal/middleware"
	"github.com/mcoot/scoresnap/internal/services/auth"
	"github.com/mcoot/scoresnap/internal/services/bowler"
	"github.com/mcoot/scoresnap/internal/services/session"
	"github.com/mcoot/scoresnap/internal/services/stats"
	"github.com/mcoot/scoresnap/internal/services/upload"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics // optional, serves /metrics when set
	Clock          clock.Clock
	AuthService    *auth.Service
	BowlerService  *bowler.Service
	SessionService *session.Service
	StatsService   *stats.Service
	UploadService  *upload.Service
	HubManager     *sse.HubManager
	SecureCookie   bool

	UploadsPerMinute float64
	UploadBurst      int
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.SecureCookie)
	bowlerHandler := handler.NewBowlerHandler(cfg.BowlerService, cfg.StatsService)
	sessionHandler := handler.NewSessionHandler(cfg.SessionService, cfg.StatsService, cfg.HubManager)
	uploadHandler := handler.NewUploadHandler(cfg.UploadService, cfg.BowlerService, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.AuthService)
	uploadLimiter := middleware.NewRateLimiter(cfg.UploadsPerMinute, cfg.UploadBurst, cfg.Clock)

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(sharedmw.Logging(cfg.Logger, cfg.Metrics))

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Account routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	// Everything else requires a token
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)

	protected.HandleFunc("/bowlers", bowlerHandler.Search).Methods(http.MethodGet)
	protected.HandleFunc("/bowlers", bowlerHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/bowlers/resolve", bowlerHandler.Resolve).Methods(http.MethodPost)
	protected.HandleFunc("/bowlers/{id}", bowlerHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/bowlers/{id}/aliases", bowlerHandler.AddAlias).Methods(http.MethodPost)
	protected.HandleFunc("/bowlers/{id}/stats", bowlerHandler.Stats).Methods(http.MethodGet)

	protected.HandleFunc("/sessions", sessionHandler.List).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/{id}/export", sessionHandler.Export).Methods(http.MethodGet)
	protected.HandleFunc("/sessions/{id}/events", sessionHandler.Events).Methods(http.MethodGet)
	protected.HandleFunc("/alleys/stats", sessionHandler.AlleyStats).Methods(http.MethodGet)

	protected.Handle("/uploads", uploadLimiter.Middleware(http.HandlerFunc(uploadHandler.Submit))).Methods(http.MethodPost)
	protected.HandleFunc("/uploads/{id}", uploadHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/uploads/{id}/analyze", uploadHandler.Analyze).Methods(http.MethodPost)
	protected.HandleFunc("/uploads/{id}/persist", uploadHandler.Persist).Methods(http.MethodPost)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
