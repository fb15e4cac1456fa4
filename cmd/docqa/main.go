package main

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

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"docqa/internal/app"
	"docqa/internal/httputil"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Cache.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Log.Info("docqa listening", "addr", srv.Addr, "provider", deps.Config.LLMProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Drop idle sessions
	g.Go(func() error {
		return deps.Sessions.Run(ctx, sweepInterval, func(removed int) {
			deps.Log.Info("expired sessions removed", "count", removed, "active", deps.Sessions.Len())
		})
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		deps.Log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log)

	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	r.Group(func(r chi.Router) {
		r.Use(sessionMiddleware(deps))
		r.Get("/", pageHandler(deps))
		r.Get("/api/session", sessionHandler(deps))
		r.Post("/api/session/key", keyHandler(deps))
		r.Post("/api/session/document", documentHandler(deps))
		r.Post("/api/session/ask", askHandler(deps))
		r.Post("/api/session/regenerate", regenerateHandler(deps))
	})
	return r
}
