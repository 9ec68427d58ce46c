package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/scoresnap/internal/api"
	"github.com/mcoot/scoresnap/internal/api/sse"
	"github.com/mcoot/scoresnap/internal/config"
	"github.com/mcoot/scoresnap/internal/dependencies/clock"
	"github.com/mcoot/scoresnap/internal/dependencies/ids"
	"github.com/mcoot/scoresnap/internal/matching"
	"github.com/mcoot/scoresnap/internal/metrics"
	"github.com/mcoot/scoresnap/internal/services/auth"
	"github.com/mcoot/scoresnap/internal/services/bowler"
	"github.com/mcoot/scoresnap/internal/services/series"
	"github.com/mcoot/scoresnap/internal/services/session"
	"github.com/mcoot/scoresnap/internal/services/stats"
	"github.com/mcoot/scoresnap/internal/services/upload"
	"github.com/mcoot/scoresnap/internal/storage"
	"github.com/mcoot/scoresnap/internal/storage/memory"
	"github.com/mcoot/scoresnap/internal/storage/postgres"
	redisstorage "github.com/mcoot/scoresnap/internal/storage/redis"
	"github.com/mcoot/scoresnap/internal/vision"
)

// App contains all wired application components
type App struct {
	Config *config.Config

	// Storage
	Storage storage.Storage

	// External dependencies
	Clock     clock.Clock
	IDs       ids.Generator
	Metrics   *metrics.Metrics
	Extractor vision.Extractor // nil when vision is disabled
	Logger    *slog.Logger

	// Services
	AuthService    *auth.Service
	BowlerService  *bowler.Service
	SessionService *session.Service
	SessionMatcher *session.Matcher
	SeriesService  *series.Reconciler
	StatsService   *stats.Service
	UploadService  *upload.Service
	HubManager     *sse.HubManager
	Broadcaster    *sse.Broadcaster

	closers []io.Closer
}

// New creates a new application with all dependencies wired from cfg
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, closer, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	var extractor vision.Extractor
	if cfg.Vision.Enabled() {
		gemini, err := vision.NewGeminiExtractor(ctx, vision.GeminiConfig{
			APIKey:  cfg.Vision.APIKey,
			Model:   cfg.Vision.Model,
			Timeout: cfg.Vision.Timeout,
		}, logger)
		if err != nil {
			if closer != nil {
				_ = closer.Close()
			}
			return nil, err
		}
		extractor = gemini
	} else {
		logger.Info("vision extraction disabled, image uploads will be rejected")
	}

	app := newWithDependencies(cfg, store, clock.New(), ids.New(), metrics.New(), extractor, logger)
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	return app, nil
}

// openStorage builds the configured storage backend
func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, io.Closer, error) {
	switch cfg.Type {
	case "", config.StorageMemory:
		return memory.New(), nil, nil
	case config.StorageRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Redis.URL
		if cfg.Redis.PoolSize > 0 {
			redisCfg.PoolSize = cfg.Redis.PoolSize
		}
		if cfg.Redis.MinIdleConns > 0 {
			redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		}
		if cfg.Redis.UploadTTL > 0 {
			redisCfg.UploadTTL = cfg.Redis.UploadTTL
		}
		store, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.StoragePostgres:
		pgCfg := postgres.DefaultConfig()
		pgCfg.DSN = cfg.Postgres.DSN
		if cfg.Postgres.Timeout > 0 {
			pgCfg.Timeout = cfg.Postgres.Timeout
		}
		pgCfg.AutoMigrate = cfg.Postgres.AutoMigrate
		store, err := postgres.Open(ctx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("invalid storage type %q", cfg.Type)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	cfg *config.Config,
	store storage.Storage,
	clk clock.Clock,
	idGen ids.Generator,
	m *metrics.Metrics,
	extractor vision.Extractor,
	logger *slog.Logger,
) *App {
	thresholds := matching.Thresholds{
		Exact:       cfg.Matching.ExactThreshold,
		Alias:       cfg.Matching.AliasThreshold,
		Fuzzy:       cfg.Matching.FuzzyThreshold,
		AutoResolve: cfg.Matching.AutoResolveThreshold,
	}

	authService := auth.New(store, clk, idGen, auth.Config{
		Secret:   []byte(cfg.Auth.JWTSecret),
		TokenTTL: cfg.Auth.TokenTTL,
	}, logger.With(slog.String("service", "auth")))
	bowlerService := bowler.New(store, clk, idGen, thresholds, m, logger.With(slog.String("service", "bowler")))
	sessionService := session.New(store, clk, idGen, logger.With(slog.String("service", "session")))
	matcher := session.NewMatcher(store, session.MatcherConfig{
		Window:       cfg.Matching.SessionWindow,
		GPSTolerance: cfg.Matching.GPSTolerance,
	}, logger.With(slog.String("service", "session-matcher")))
	seriesService := series.New(store, clk, idGen, logger.With(slog.String("service", "series")))
	statsService := stats.New(store, logger.With(slog.String("service", "stats")))
	hubManager := sse.NewHubManager(logger)
	broadcaster := sse.NewBroadcaster(hubManager, logger)

	uploadService := upload.New(upload.Dependencies{
		Storage:   store,
		Clock:     clk,
		IDs:       idGen,
		Bowlers:   bowlerService,
		Sessions:  sessionService,
		Matcher:   matcher,
		Series:    seriesService,
		Extractor: extractor,
		Notifier:  broadcaster,
		Metrics:   m,
		Logger:    logger.With(slog.String("service", "upload")),
	})

	return &App{
		Config:         cfg,
		Storage:        store,
		Clock:          clk,
		IDs:            idGen,
		Metrics:        m,
		Extractor:      extractor,
		Logger:         logger,
		AuthService:    authService,
		BowlerService:  bowlerService,
		SessionService: sessionService,
		SessionMatcher: matcher,
		SeriesService:  seriesService,
		StatsService:   statsService,
		UploadService:  uploadService,
		HubManager:     hubManager,
		Broadcaster:    broadcaster,
	}
}

// Router builds the HTTP handler serving the API
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:           a.Logger,
		Metrics:          a.Metrics,
		Clock:            a.Clock,
		AuthService:      a.AuthService,
		BowlerService:    a.BowlerService,
		SessionService:   a.SessionService,
		StatsService:     a.StatsService,
		UploadService:    a.UploadService,
		HubManager:       a.HubManager,
		SecureCookie:     a.Config.Auth.SecureCookie,
		UploadsPerMinute: a.Config.RateLimit.UploadsPerMinute,
		UploadBurst:      a.Config.RateLimit.Burst,
	})
}

// Close stops live feeds and releases storage connections
func (a *App) Close() error {
	a.HubManager.Close()
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
