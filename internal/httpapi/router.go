package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"beacon_collector/internal/archive"
	"beacon_collector/internal/config"
	"beacon_collector/internal/middleware"
	"beacon_collector/internal/storage"
	"beacon_collector/internal/tracking"
	"beacon_collector/internal/utils"
)

const startupTimeout = 15 * time.Second

// Dependencies aggregates all services the HTTP layer needs.
type Dependencies struct {
	Store   storage.Store
	Writer  *tracking.Writer
	Reader  *tracking.Reader
	Flusher *tracking.Flusher
	CORS    *middleware.CORS
	Logger  *utils.Logger

	ClientIPHeaders []string
	MaxBodyBytes    int64
	SiteURL         string
}

// NewRouter creates an HTTP handler with all dependencies wired up
func NewRouter(cfg *config.Config) (http.Handler, *Dependencies, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	archiver, err := newArchiver(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	deps, err := NewDependencies(store, archiver, cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	return NewHandler(deps), deps, nil
}

// NewDependencies builds the tracking services on an existing store
func NewDependencies(store storage.Store, archiver archive.Archiver, cfg *config.Config) (*Dependencies, error) {
	loc, err := time.LoadLocation(cfg.Tracking.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	verifier, err := tracking.NewSecretVerifier(cfg.Flush.Password, cfg.Flush.PasswordHash)
	if err != nil {
		return nil, err
	}

	reader := tracking.NewReader(store, tracking.ReaderConfig{
		KeyPrefix: cfg.Store.KeyPrefix,
		PageSize:  cfg.Store.ListPageSize,
	})
	writer := tracking.NewWriter(store, tracking.WriterConfig{
		KeyPrefix: cfg.Store.KeyPrefix,
		Location:  loc,
	})
	flusher := tracking.NewFlusher(reader, tracking.FlusherConfig{
		Verifier:    verifier,
		Archiver:    archiver,
		Concurrency: cfg.Flush.Concurrency,
	})
	cors := middleware.NewCORS(middleware.CORSConfig{
		AllowedOrigins:        cfg.CORS.AllowedOrigins,
		AllowedOriginPrefixes: cfg.CORS.AllowedOriginPrefixes,
		AllowNullOrigin:       cfg.CORS.AllowNullOrigin,
	})

	return &Dependencies{
		Store:           store,
		Writer:          writer,
		Reader:          reader,
		Flusher:         flusher,
		CORS:            cors,
		Logger:          utils.NewLogger("http"),
		ClientIPHeaders: cfg.Tracking.ClientIPHeaders,
		MaxBodyBytes:    cfg.Tracking.MaxBodyBytes,
		SiteURL:         cfg.Dashboard.SiteURL,
	}, nil
}

// NewHandler registers every route on a fresh mux and wraps it in the
// request logger.
func NewHandler(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()
	registerRoutes(mux, deps)
	return middleware.RequestLogger(deps.Logger)(mux)
}

// Close releases the store
func (d *Dependencies) Close() error {
	return d.Store.Close()
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil

	case config.BackendPostgres:
		dbCfg := storage.DefaultDBConfig()
		dbCfg.DSN = cfg.Database.URL
		dbCfg.MaxOpenConns = cfg.Database.MaxOpenConns
		dbCfg.MaxIdleConns = cfg.Database.MaxIdleConns
		dbCfg.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
		dbCfg.ConnMaxIdleTime = cfg.Database.ConnMaxIdleTime

		store, err := storage.NewPostgresStore(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return store, nil

	case config.BackendRedis:
		redisCfg := storage.DefaultRedisConfig()
		redisCfg.Address = cfg.Redis.Address
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		store, err := storage.NewRedisStore(redisCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		return store, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func newArchiver(ctx context.Context, cfg *config.Config) (archive.Archiver, error) {
	if !cfg.Archive.Enabled {
		return archive.NewNoopArchiver(), nil
	}

	archiver, err := archive.NewS3Archiver(ctx, archive.S3Config{
		Bucket:          cfg.Archive.S3Bucket,
		Region:          cfg.Archive.S3Region,
		Prefix:          cfg.Archive.S3Prefix,
		Endpoint:        cfg.Archive.Endpoint,
		PodName:         cfg.Archive.PodName,
		AccessKeyID:     cfg.Archive.AccessKeyID,
		SecretAccessKey: cfg.Archive.SecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archive: %w", err)
	}
	return archiver, nil
}

func registerRoutes(mux *http.ServeMux, deps *Dependencies) {
	// Beacon endpoints are called cross-origin from the tracked site
	mux.Handle("/pixel", deps.CORS.Handler(http.HandlerFunc(deps.handlePixel)))
	mux.Handle("/log", allowMethods(deps.CORS.Handler(http.HandlerFunc(deps.handleLog)),
		http.MethodPost, http.MethodOptions))
	mux.Handle("/flush", deps.CORS.Handler(http.HandlerFunc(deps.handleFlush)))

	mux.HandleFunc("/dashboard", deps.handleDashboard)
	mux.HandleFunc("/health", deps.handleHealth)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithText(w, http.StatusOK, "OK")
	})
}

func (d *Dependencies) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		d.Logger.Error("Health check failed", "error", err, "request_id", requestID(r))
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Store unavailable")
		return
	}
	utils.RespondWithText(w, http.StatusOK, "OK")
}

// allowMethods answers any other method with a bare 405, before next (and
// any CORS headers it would add) runs.
func allowMethods(next http.Handler, methods ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, m := range methods {
			if r.Method == m {
				next.ServeHTTP(w, r)
				return
			}
		}
		utils.RespondWithText(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

func requestID(r *http.Request) string {
	id, _ := middleware.GetRequestID(r.Context())
	return id
}
