// Package main is the leasehub server entry point.
//
// Wire-up order:
//  1. config and logger
//  2. database and migrations
//  3. repositories
//  4. cache, event stream, attachment storage, email
//  5. auth and unread services, then the socket namespaces
//  6. remaining services, handlers, routes
//  7. CORS, access log, HTTP server
//  8. graceful shutdown
//
// No globals: everything is built here and passed down.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akinalp/leasehub/config"
	"github.com/akinalp/leasehub/database"
	"github.com/akinalp/leasehub/middleware"
	"github.com/akinalp/leasehub/pkg/obs"
	"github.com/akinalp/leasehub/pkg/ratelimit"
	"github.com/rs/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := obs.NewLogger(cfg.Log.Env)
	slog.SetDefault(logger)
	logger.Info("leasehub server starting", "env", cfg.Log.Env, "port", cfg.Server.Port)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─── Database ───
	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		return err
	}
	db, err := database.New(ctx, cfg.Database.Path, migrations, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	repos := initRepositories(db.Conn)

	// ─── Infrastructure ───
	infra, err := initInfra(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.close(logger)

	// ─── Services and sockets ───
	svcs := initCoreServices(cfg, repos, infra, logger)
	sockets := initSockets(cfg, svcs.Auth, repos.Conversation, svcs.Unread, logger)
	initServices(cfg, svcs, repos, infra, sockets, logger)
	defer svcs.Notifier.Wait()

	limiters := &Limiters{
		Login:   ratelimit.NewLoginRateLimiter(5, 2*time.Minute),
		Message: ratelimit.NewMessageRateLimiter(5, 5*time.Second, 15*time.Second),
	}
	defer limiters.Stop()

	// ─── HTTP ───
	h := initHandlers(cfg, db, svcs, sockets, limiters)

	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, repos.User, cfg.JWT.CookieName, sockets.Server, infra.Uploads)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	var handler http.Handler = mux
	handler = corsHandler.Handler(handler)
	handler = middleware.RequestLogger(logger)(handler)
	handler = middleware.Recover(logger)(handler)

	// No WriteTimeout: it would cut long-lived socket connections.
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	// Sockets first so clients see the close, then drain HTTP requests.
	sockets.Server.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
