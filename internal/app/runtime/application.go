package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	app "github.com/R3E-Network/gameoflife/internal/app"
	"github.com/R3E-Network/gameoflife/internal/app/httpapi"
	"github.com/R3E-Network/gameoflife/internal/app/storage"
	"github.com/R3E-Network/gameoflife/internal/app/storage/cache"
	"github.com/R3E-Network/gameoflife/internal/app/storage/memory"
	"github.com/R3E-Network/gameoflife/internal/app/storage/postgres"
	"github.com/R3E-Network/gameoflife/internal/config"
	"github.com/R3E-Network/gameoflife/internal/middleware"
	"github.com/R3E-Network/gameoflife/internal/platform/database"
	"github.com/R3E-Network/gameoflife/internal/platform/migrations"
	"github.com/R3E-Network/gameoflife/pkg/logger"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	app        *app.Application
	handler    http.Handler
	httpServer *http.Server
	limiter    *middleware.RateLimiter
	stop       chan struct{}
	db         *sqlx.DB
	redis      *redis.Client
}

// NewApplication builds stores, services and the HTTP server from cfg.
func NewApplication(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = logger.New(cfg.Logging.LoggerConfig())
	}

	a := &Application{cfg: cfg, log: log, stop: make(chan struct{})}

	boards, err := a.buildStores(ctx)
	if err != nil {
		a.closeStores()
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	application, err := app.New(app.Stores{Boards: boards}, app.Options{
		Window:               cfg.Game.Window(),
		Workers:              cfg.Game.Workers,
		StatesIncrementLimit: cfg.Game.StatesIncrementLimit,
	}, log.Named("app"))
	if err != nil {
		a.closeStores()
		return nil, err
	}
	a.app = application

	if cfg.RateLimit.RequestsPerSecond > 0 {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log.Named("ratelimit"))
		if err := a.limiter.TrustProxies(cfg.RateLimit.TrustedProxies); err != nil {
			a.closeStores()
			return nil, fmt.Errorf("configure rate limit: %w", err)
		}
	}
	a.handler = httpapi.NewHandler(application, httpapi.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimiter:    a.limiter,
	}, log.Named("httpapi"))

	a.httpServer = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.handler,
		ReadTimeout:       cfg.Server.ReadTimeout(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout(),
	}
	return a, nil
}

// App exposes the composed services.
func (a *Application) App() *app.Application {
	return a.app
}

// Handler returns the full HTTP handler including middleware.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.httpServer.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln until ctx is cancelled or serving fails.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	if a.limiter != nil {
		a.limiter.StartCleanup(time.Minute, a.stop)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP server listening on %s", ln.Addr())
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the HTTP server and closes the stores.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	select {
	case <-a.stop:
	default:
		close(a.stop)
	}

	err := a.httpServer.Shutdown(shutdownCtx)
	a.closeStores()
	return err
}

func (a *Application) buildStores(ctx context.Context) (storage.BoardStore, error) {
	var boards storage.BoardStore

	switch a.cfg.Database.Driver {
	case "postgres":
		if a.cfg.Database.MigrateOnStart {
			if err := migrations.Up(a.cfg.Database.DSN); err != nil {
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			a.log.Info("database migrations applied")
		}
		db, err := database.Open(ctx, a.cfg.Database.DSN, database.Options{
			MaxOpenConns:    a.cfg.Database.MaxOpenConns,
			MaxIdleConns:    a.cfg.Database.MaxIdleConns,
			ConnMaxLifetime: time.Duration(a.cfg.Database.ConnMaxLifetime) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		a.db = db
		boards = postgres.New(db)
		a.log.Info("using postgres board store")
	default:
		boards = memory.New()
		a.log.Info("using in-memory board store")
	}

	if addr := a.cfg.Redis.Addr; addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			a.log.WithError(err).WithField("addr", addr).Warn("redis unreachable; cache will be bypassed until it recovers")
		}
		boards = cache.New(boards, a.redis, a.cfg.Redis.TTL(), a.log.Named("board-cache"))
	}

	return boards, nil
}

func (a *Application) closeStores() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("error closing redis client")
		}
		a.redis = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
		a.db = nil
	}
}
