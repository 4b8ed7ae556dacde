// Package server assembles the notekeeper server: database and migrations,
// services, the HTTP router and the background job scheduler.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/notekeeper/notekeeper/internal/logging"
	"github.com/notekeeper/notekeeper/internal/server/auth"
	"github.com/notekeeper/notekeeper/internal/server/config"
	"github.com/notekeeper/notekeeper/internal/server/guard"
	"github.com/notekeeper/notekeeper/internal/server/jobs"
	"github.com/notekeeper/notekeeper/internal/server/repositories/repomanager"
	"github.com/notekeeper/notekeeper/internal/server/services"
	"github.com/notekeeper/notekeeper/internal/server/web"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	sessions *services.SessionManager
	handler  http.Handler
}

// NewApp opens the database, applies migrations and wires the services.
// The caller owns the returned App and must Close it.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := &repomanager.PostgresRepositoryManager{}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher, err := auth.NewPasswordHasher(c.BcryptCost, c.HashConcurrency)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	verify := auth.NewVerifyTokens([]byte(c.VerifySecret), c.VerifyTTL, nil)
	sessions := services.NewSessionManager(db, rm, c, nil)
	authz := services.NewAuthorizer(db, rm)

	h := web.NewHandler(web.Deps{
		DB:       db,
		Auth:     services.NewAuthService(db, rm, hasher, verify, sessions, logger),
		Sessions: sessions,
		Authz:    authz,
		Notes:    services.NewNotesService(db, rm, authz),
		Users:    services.NewUsersService(db, rm, nil),
		Cookies:  web.NewSessionCookies(c.SessionSecrets, c.SessionTTL, c.SecureCookies),
		CSRF:     guard.NewCSRF(c.CSRFSecret, c.SecureCookies),
		Honeypot: guard.NewHoneypot(guard.HoneypotConfig{
			Seed:     c.HoneypotSecret,
			MinDelay: c.HoneypotMinDelay,
		}),
		Log: logger,
	})

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		sessions: sessions,
		handler:  web.NewRouter(h),
	}, nil
}

// Run serves HTTP and runs scheduled jobs until ctx is cancelled or the
// listener fails.
func (app *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return app.runHTTP(ctx) })

	if app.config.ReaperSchedule != "" {
		g.Go(func() error { return app.runScheduler(ctx) })
	}

	return g.Wait()
}

func (app *App) runHTTP(ctx context.Context) error {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown failed", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr, "mode", app.config.Mode)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (app *App) runScheduler(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddJob(app.config.ReaperSchedule, jobs.NewReapSessionsJob(ctx, app.sessions, app.logger)); err != nil {
		return fmt.Errorf("schedule session reaper: %w", err)
	}

	c.Start()
	app.logger.Info(ctx, "Scheduler started", "reaper_schedule", app.config.ReaperSchedule)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (app *App) Close() error {
	return app.db.Close()
}
