package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/streamwise/internal/adapters/catalog"
	"github.com/okian/streamwise/internal/adapters/http/api"
	"github.com/okian/streamwise/internal/adapters/repository"
	app "github.com/okian/streamwise/internal/app"
	"github.com/okian/streamwise/internal/auth"
	"github.com/okian/streamwise/internal/config"
	"github.com/okian/streamwise/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		// logger may not be initialized when config loading fails
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(context.Background()); err != nil {
			log.Error(ctx, "service stop failed", logger.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newService wires storage and the course catalog into a started service.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	courses, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithStore(store),
		app.WithCatalog(courses),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithCoalesceSize(cfg.CoalesceSize),
		app.WithMaxListLimit(cfg.MaxListLimit),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to start service: %w", err)
	}
	return svc, nil
}

// openStore selects the repository backend from configuration.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverMemory:
		return repository.NewMemoryStore(ctx), nil
	case config.DriverSQLite, config.DriverPostgres:
		driver := repository.Driver(cfg.DBDriver)
		db, err := repository.Open(ctx, driver, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", cfg.DBDriver, err)
		}
		return repository.NewSQLStore(db, driver), nil
	default:
		return nil, fmt.Errorf("%w: %s", repository.ErrUnsupportedDriver, cfg.DBDriver)
	}
}

// newHandler builds the HTTP router with token verification.
func newHandler(cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	tokens := auth.NewService(cfg.AuthSecret,
		auth.WithIssuer(cfg.AuthIssuer),
		auth.WithTTL(time.Duration(cfg.TokenTTLMinutes)*time.Minute),
	)
	return api.NewServer(svc, tokens,
		api.WithLogger(log.Named("http")),
		api.WithCORSOrigins(cfg.CORSOrigins...),
		api.WithRequestTimeout(time.Duration(cfg.RequestTimeoutMS)*time.Millisecond),
		api.WithDevTokens(cfg.AuthDevTokens),
	).Router()
}
