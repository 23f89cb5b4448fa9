package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/roomcast/internal/auth"
	"github.com/vovakirdan/roomcast/internal/config"
	"github.com/vovakirdan/roomcast/internal/core"
	"github.com/vovakirdan/roomcast/internal/store"
	"github.com/vovakirdan/roomcast/internal/store/migrate"
	"github.com/vovakirdan/roomcast/internal/store/postgres"
	"github.com/vovakirdan/roomcast/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/roomcast/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	registry        *core.Registry
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.AutoMigrate {
		if err := migrate.Run(cfg.DBDriver, cfg.DBDSN, "up"); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
		logger.Info().Str("db_driver", cfg.DBDriver).Msg("migrations applied")
	}

	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_driver", cfg.DBDriver).Msg("database initialized")

	jwtConfig := JWTConfig(cfg)
	authenticator := auth.NewAuthenticator(auth.NewJWTVerifier(jwtConfig), st)

	registry := core.NewRegistry()
	broadcaster := core.NewBroadcaster(registry, cfg.SendTimeout, logger)
	handler := core.NewHandler(authenticator, registry, broadcaster, core.NewMessageService(st), logger)
	server := transporthttp.NewServer(handler, authenticator, st, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		registry:        registry,
		store:           st,
		log:             logger,
	}, nil
}

// OpenStore connects to the database selected by cfg.DBDriver.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return sqlite.New(cfg.DBDSN)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported db_driver %q", cfg.DBDriver)
	}
}

// JWTConfig builds token settings from cfg.
func JWTConfig(cfg *config.Config) *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		err := a.server.Shutdown(shutdownCtx)

		// Upgraded connections are not tracked by the server.
		closed := a.registry.CloseAll(core.CloseGoingAway, "server shutting down")
		a.log.Info().Int("sessions", closed).Msg("live sessions closed")
		return err
	})

	return g.Wait()
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
