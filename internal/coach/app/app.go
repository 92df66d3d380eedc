package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/aussiebroadwan/coach/internal/coach/http"
	"github.com/aussiebroadwan/coach/internal/coach/ledger"
	"github.com/aussiebroadwan/coach/internal/coach/llm"
	"github.com/aussiebroadwan/coach/internal/coach/service"
	"github.com/aussiebroadwan/coach/internal/coach/store/drivers/sqlite"
	"github.com/aussiebroadwan/coach/pkg/cryptox"
	"github.com/aussiebroadwan/coach/pkg/jwtx"
	"github.com/aussiebroadwan/coach/pkg/slogx"
)

const serviceName = "coach"

// BuildVersion is overridden at build time via -ldflags "-X ...BuildVersion=".
var BuildVersion = "v0.1.0"

// Application encapsulates the coach service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db            *sqlite.Store
	rdb           *redis.Client // nil unless REDIS_URL is set
	redisLedger   *ledger.Redis
	ledger        ledger.Ledger
	issuer        *jwtx.Issuer
	verifier      jwtx.Verifier
	provider      llm.Provider
	traceShutdown func(context.Context) error

	// Services
	accountService      *service.AccountService
	tokenService        *service.TokenService
	coachService        *service.CoachService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: serviceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := context.Background()

	traceShutdown, err := SetupTracing(ctx, cfg.OTelEndpoint, serviceName, BuildVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	app.traceShutdown = traceShutdown

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initLedger(ctx); err != nil {
		app.closeStores()
		return nil, err
	}
	if err := app.initTokens(); err != nil {
		app.closeStores()
		return nil, err
	}
	if err := app.initServices(); err != nil {
		app.closeStores()
		return nil, err
	}
	if err := app.initHTTP(); err != nil {
		app.closeStores()
		return nil, err
	}

	return app, nil
}

// Handler exposes the router, mainly for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("coach service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"provider", app.provider.Name(),
		"ledger", app.ledgerName(),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeStores()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down coach service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.traceShutdown(ctx); err != nil {
		app.logger.Error("error flushing traces", "error", err)
	}

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("coach service stopped")
	return nil
}

func (app *Application) closeStores() error {
	var errs []error
	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// initDatabase opens the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore("file:" + app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

// initLedger keeps refresh records in redis when REDIS_URL is set and in
// the database otherwise.
func (app *Application) initLedger(ctx context.Context) error {
	if app.cfg.RedisURL == "" {
		app.ledger = ledger.NewSQL(app.db, app.cfg.ReuseGrace)
		return nil
	}

	opts, err := redis.ParseURL(app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	app.rdb = redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := app.rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}

	app.redisLedger = ledger.NewRedis(app.rdb, app.cfg.ReuseGrace)
	app.ledger = app.redisLedger
	app.logger.Info("refresh ledger stored in redis", "addr", opts.Addr)
	return nil
}

// initTokens builds the issuer and verifier from one shared secret. Outside
// prod a missing secret is replaced with a random one, which signs everyone
// out on restart.
func (app *Application) initTokens() error {
	secret := app.cfg.JWTSecret
	if secret == "" {
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return err
		}
		secret = generated
		app.logger.Warn("JWT_SECRET not set, using a random secret; sessions will not survive a restart")
	}

	jwtCfg := jwtx.Config{
		Secret:     []byte(secret),
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	issuer, err := jwtx.NewIssuer(jwtCfg)
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}
	verifier, err := jwtx.NewVerifier(jwtCfg)
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}

	app.issuer = issuer
	app.verifier = verifier
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	pepper, err := cryptox.LoadPepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	if app.cfg.AIMock {
		app.provider = llm.Mock{}
	} else {
		app.provider = llm.NewOpenAI(app.cfg.OpenAIKey, app.cfg.OpenAIModel, app.cfg.OpenAIBaseURL)
	}

	app.accountService = &service.AccountService{
		Store:  app.db,
		Hasher: cryptox.NewHasher(pepper),
	}
	app.tokenService = &service.TokenService{
		Issuer:   app.issuer,
		Verifier: app.verifier,
		Ledger:   app.ledger,
		Store:    app.db,
	}
	app.coachService = &service.CoachService{
		Provider: app.provider,
		Accounts: app.accountService,
	}
	app.housekeepingService = service.NewHousekeepingService(
		app.ledger,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	proxies, err := app.cfg.TrustedProxyPrefixes()
	if err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.Cookie = httpapi.CookieConfig{Secure: app.cfg.IsProd()}
	router.Mock = app.cfg.AIMock
	router.TrustedProxies = proxies
	if app.redisLedger != nil {
		router.LedgerPinger = app.redisLedger
	}
	router.AccountService = app.accountService
	router.TokenService = app.tokenService
	router.CoachService = app.coachService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}

func (app *Application) ledgerName() string {
	if app.rdb != nil {
		return "redis"
	}
	return "sqlite"
}
