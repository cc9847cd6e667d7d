// Package web запускает веб-интерфейс Billed.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/billed-app/billed/internal/cache"
	"github.com/billed-app/billed/internal/config"
	"github.com/billed-app/billed/internal/lib/sl"
	"github.com/billed-app/billed/internal/session"
	webhttp "github.com/billed-app/billed/internal/web"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	cache  *cache.Cache
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.web.New"

	sessions, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.StoreURL == "" {
		logger.Warn("store url is empty, pages work without a store")
	}

	handler := webhttp.New(logger,
		func(sid string) session.Storage {
			return session.NewRedisStorage(sessions.Db, sid, cfg.SessionTTL)
		},
		webhttp.NewClientFactory(cfg.StoreURL, cfg.StoreTimeout),
		webhttp.WithSecureCookie(cfg.SecureCookie),
		webhttp.WithCookieTTL(cfg.SessionTTL),
	)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		cache:  sessions,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}
	if cerr := a.cache.Close(); cerr != nil {
		a.logger.Error("failed to close redis", sl.Err(cerr))
	}
	return err
}
