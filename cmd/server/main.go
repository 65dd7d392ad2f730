// crmsync - Event Platform Contact Sync and Deduplication
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crmsync

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/tomtom215/crmsync/docs" // Import generated swagger docs
	"github.com/tomtom215/crmsync/internal/api"
	"github.com/tomtom215/crmsync/internal/auth"
	"github.com/tomtom215/crmsync/internal/authz"
	"github.com/tomtom215/crmsync/internal/config"
	"github.com/tomtom215/crmsync/internal/csvimport"
	"github.com/tomtom215/crmsync/internal/database"
	"github.com/tomtom215/crmsync/internal/events"
	"github.com/tomtom215/crmsync/internal/logging"
	"github.com/tomtom215/crmsync/internal/models"
	"github.com/tomtom215/crmsync/internal/pgstore"
	"github.com/tomtom215/crmsync/internal/runstate"
	"github.com/tomtom215/crmsync/internal/supervisor"
	"github.com/tomtom215/crmsync/internal/supervisor/services"
	syncer "github.com/tomtom215/crmsync/internal/sync"
	"github.com/tomtom215/crmsync/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	compactInterval       = 10 * time.Minute
	tracerShutdownTimeout = 5 * time.Second
)

// contactStore is what both the sync pipeline and the API need from the
// configured backend.
type contactStore interface {
	syncer.ContactStore
	api.ContactReader
	Close() error
}

func main() {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("db_driver", cfg.Database.Driver).
		Int("sources", len(cfg.Platform.EnabledSources())).
		Str("auth_mode", cfg.Security.AuthMode).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		stop()
		os.Exit(1)
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires every component and serves the supervisor tree until ctx ends.
//
//nolint:gocyclo // linear wiring, one branch per optional component
func run(ctx context.Context, cfg *config.Config) error {
	shutdownTracer, err := telemetry.InitTracer(&cfg.Telemetry, version)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), tracerShutdownTimeout)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			logging.Error().Err(err).Msg("Error shutting down tracer")
		}
	}()

	store, err := openStore(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing contact store")
		}
	}()

	runState, err := runstate.Open(&cfg.RunState)
	if err != nil {
		return fmt.Errorf("open run state: %w", err)
	}
	defer func() {
		if err := runState.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing run state")
		}
	}()

	tree, err := supervisor.NewSupervisorTree(nil, supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddDataService(runstate.NewCompactor(runState, compactInterval))

	managerOpts := []syncer.ManagerOption{syncer.WithRunState(runState)}
	handlerOpts := []api.HandlerOption{
		api.WithRunHistory(runState),
		api.WithVersion(version),
	}

	publisher, natsServer, err := initEvents(ctx, &cfg.NATS)
	if err != nil {
		return err
	}
	if natsServer != nil {
		tree.AddMessagingService(natsServer)
	}
	if publisher != nil {
		defer func() {
			if err := publisher.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing event publisher")
			}
		}()
		managerOpts = append(managerOpts, syncer.WithPublisher(publisher))
		handlerOpts = append(handlerOpts, api.WithNATSCheck(func() bool {
			return publisher.BreakerState() != "open"
		}))
	}

	sources := syncer.NewPlatformSources(cfg)
	if len(sources) == 0 {
		logging.Warn().Msg("No platform API keys configured; sync runs will fail until one is set")
	}
	manager := syncer.NewManager(cfg, sources, store, managerOpts...)
	tree.AddDataService(services.NewSchedulerService(manager))

	importer := csvimport.NewImporter(store, cfg.Sync.PersistBatchSize, csvimport.WithHistory(runState))
	handlerOpts = append(handlerOpts, api.WithImporter(importer))

	authn, authorizer, loginOpt, err := initAuth(&cfg.Security)
	if err != nil {
		return err
	}
	if loginOpt != nil {
		handlerOpts = append(handlerOpts, loginOpt)
	}

	handler := api.NewHandler(cfg, store, manager, handlerOpts...)
	manager.SetOnSyncCompleted(func(*models.SyncResult, time.Duration) {
		handler.InvalidateCache()
	})
	router := api.NewRouter(handler, api.NewChiMiddlewareFromSecurity(&cfg.Security), authn, authorizer)

	server := newHTTPServer(&cfg.Server, router.SetupChi())
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	return tree.Run(ctx)
}

// openStore opens the contact store selected by cfg.Driver.
func openStore(ctx context.Context, cfg *config.DatabaseConfig) (contactStore, error) {
	if cfg.Driver == "postgres" {
		store, err := pgstore.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	return db, nil
}

// initEvents starts the optional event pipeline. Both results are nil when
// NATS is disabled. A broker that cannot be reached is logged and skipped so
// that syncs still run without events.
func initEvents(ctx context.Context, cfg *config.NATSConfig) (*events.Publisher, *events.EmbeddedServer, error) {
	if !cfg.Enabled {
		logging.Info().Msg("NATS event publishing disabled (NATS_ENABLED=false)")
		return nil, nil, nil
	}

	url := cfg.URL
	var embedded *events.EmbeddedServer
	if cfg.EmbeddedServer {
		srv, err := events.NewEmbeddedServer(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		embedded = srv
		url = srv.ClientURL()
	}

	if err := events.InitStream(ctx, cfg, url); err != nil {
		logging.Warn().Err(err).Str("url", url).Msg("Failed to initialize JetStream stream, events disabled")
		return nil, embedded, nil
	}

	publisher, err := events.NewNATSPublisher(cfg, url, logging.NewWatermillAdapter())
	if err != nil {
		logging.Warn().Err(err).Str("url", url).Msg("Failed to connect event publisher, events disabled")
		return nil, embedded, nil
	}

	logging.Info().Str("url", url).Str("topic", publisher.Topic()).Msg("Event publisher ready")
	return publisher, embedded, nil
}

// initAuth builds the authentication and authorization middlewares. In
// ModeNone all three results are nil and the router serves every route.
func initAuth(cfg *config.SecurityConfig) (*auth.Middleware, *authz.Middleware, api.HandlerOption, error) {
	switch cfg.AuthMode {
	case "", auth.ModeNone:
		logging.Warn().Msg("Authentication disabled (AUTH_MODE=none)")
		return nil, nil, nil, nil
	case auth.ModeJWT:
	default:
		return nil, nil, nil, fmt.Errorf("unsupported auth mode %q", cfg.AuthMode)
	}

	jwtManager, err := auth.NewJWTManager(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init JWT manager: %w", err)
	}
	creds, err := auth.NewAdminAuthenticator(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init admin credentials: %w", err)
	}
	enforcer, err := authz.NewEnforcer(nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init authorization: %w", err)
	}

	logging.Info().Str("issuer", cfg.JWTIssuer).Dur("token_ttl", cfg.TokenTTL).Msg("JWT authentication enabled")
	return auth.NewMiddleware(auth.ModeJWT, jwtManager, api.WriteError),
		authz.NewMiddleware(enforcer, api.WriteError),
		api.WithLogin(creds, jwtManager),
		nil
}

func newHTTPServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
