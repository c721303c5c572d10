package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/billboard/internal/blog/http"
	"github.com/aussiebroadwan/billboard/internal/blog/media"
	"github.com/aussiebroadwan/billboard/internal/blog/service"
	"github.com/aussiebroadwan/billboard/internal/blog/store"
	"github.com/aussiebroadwan/billboard/internal/blog/store/drivers/sqlite"
	"github.com/aussiebroadwan/billboard/pkg/cryptox"
	"github.com/aussiebroadwan/billboard/pkg/jwtx"
	"github.com/aussiebroadwan/billboard/pkg/metricsx"
	"github.com/aussiebroadwan/billboard/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

const (
	sessionIssuer = "billboard"
	secretBytes   = 32
)

// Application owns every long-lived dependency of the site.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	avatars *media.AvatarStore
	metrics *metricsx.Metrics

	userService *service.UserService
	postService *service.PostService
	presence    *service.PresenceSweeper

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "billboard",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metricsx.New(),
	}

	pepper, err := cryptox.LoadOrGenerateSecret(cfg.PepperFile, secretBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to load password pepper: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initMedia(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices(pepper)

	if err := app.initHTTP(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// Handler exposes the fully wired router, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	if app.presence != nil {
		app.presence.Start()
	}

	app.logger.Info("billboard starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.stopPresence()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	app.logger.Info("shutting down billboard...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.stopPresence()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("billboard stopped")
	return nil
}

// initDatabase opens the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

// initMedia makes sure the avatar directory and placeholder exist.
func (app *Application) initMedia() error {
	app.avatars = media.NewAvatarStore(filepath.Join(app.cfg.StaticDir, "profile_pics"))
	if err := app.avatars.EnsureDefault(); err != nil {
		return fmt.Errorf("failed to prepare avatar directory: %w", err)
	}
	return nil
}

func (app *Application) initServices(pepper string) {
	app.userService = &service.UserService{
		Store:  app.db,
		Hasher: cryptox.NewHasher(pepper),
	}
	app.postService = &service.PostService{Store: app.db}

	// Users only go offline by logging out unless an idle timeout is set.
	if app.cfg.PresenceIdleTimeout > 0 {
		app.presence = service.NewPresenceSweeper(
			app.db,
			app.logger,
			app.cfg.PresenceInterval,
			app.cfg.PresenceIdleTimeout,
		)
	}
}

func (app *Application) stopPresence() {
	if app.presence != nil {
		app.presence.Stop()
	}
}

func (app *Application) sessionKey() ([]byte, error) {
	if app.cfg.SessionSecret != "" {
		return []byte(app.cfg.SessionSecret), nil
	}
	secret, err := cryptox.LoadOrGenerateSecret(app.cfg.SessionSecretFile, secretBytes)
	if err != nil {
		return nil, err
	}
	return []byte(secret), nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	key, err := app.sessionKey()
	if err != nil {
		return fmt.Errorf("failed to load session key: %w", err)
	}
	codec, err := jwtx.NewHS256(key, sessionIssuer)
	if err != nil {
		return fmt.Errorf("invalid session key: %w", err)
	}

	templates, err := httpapi.LoadTemplates()
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(
		&httpapi.Sessions{
			Codec:  codec,
			TTL:    app.cfg.SessionTTL,
			Secure: app.cfg.CookieSecure,
		},
		templates,
		app.cfg.RateLimits,
		app.metrics,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.StaticDir = app.cfg.StaticDir
	router.MaxUploadBytes = app.cfg.MaxUploadBytes
	router.UserService = app.userService
	router.PostService = app.postService
	router.Avatars = app.avatars
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
