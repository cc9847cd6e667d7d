package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"golang.org/x/time/rate"

	"github.com/billed-app/billed/internal/cache"
	"github.com/billed-app/billed/internal/config"
	"github.com/billed-app/billed/internal/filestore"
	"github.com/billed-app/billed/internal/lib/jwt"
	"github.com/billed-app/billed/internal/lib/sl"
	"github.com/billed-app/billed/internal/migrations"
	"github.com/billed-app/billed/internal/rabbitmq"
	authservice "github.com/billed-app/billed/internal/services/auth"
	billsservice "github.com/billed-app/billed/internal/services/bills"
	"github.com/billed-app/billed/internal/storage"
)

const publishBuffer = 256

type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *storage.Storage
	cache     *cache.Cache
	publisher *rabbitmq.Publisher
	closers   []func() error
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.store.New"

	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("%s: jwt secret is not set", op)
	}

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	files, err := filestore.New(cfg.FilesDir, cfg.PublicURL)
	if err != nil {
		db.Close()
		cacheRedis.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	var publisher billsservice.Publisher = rabbitmq.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.BillsExchange, rabbitmq.NotificationQueues())
		if err != nil {
			conn.Close()
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.closers = append(a.closers, ch.Close, conn.Close)
		a.publisher = rabbitmq.NewPublisher(ch, rabbitmq.BillsExchange, publishBuffer, logger)
		publisher = a.publisher
	} else {
		logger.Warn("rabbitmq url is empty, bill events are not published")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewService(db, jwtMaker)
	billsService := billsservice.NewService(db, cacheRedis, files, publisher, cfg.BillsTTL, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Auth:    authService,
		Bills:   billsService,
		Files:   files,
		Limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		Ready: func(ctx context.Context) error {
			return storage.CheckDatabaseReady(ctx, db)
		},
	})

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

func (a *App) Run(ctx context.Context) error {
	pubCtx, stopPublisher := context.WithCancel(context.Background())
	defer stopPublisher()
	if a.publisher != nil {
		a.publisher.Start(pubCtx)
	}

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

	// Публикатор дописывает буфер после остановки сервера.
	stopPublisher()
	if a.publisher != nil {
		a.publisher.Wait()
	}
	a.close()
	return err
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
