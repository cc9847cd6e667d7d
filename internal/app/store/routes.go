// Package store собирает HTTP API хранилища заметок о расходах.
package store

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	_ "github.com/billed-app/billed/internal/docs"
	"github.com/billed-app/billed/internal/filestore"
	"github.com/billed-app/billed/internal/http/handlers/auth/login"
	billcreate "github.com/billed-app/billed/internal/http/handlers/bills/create"
	"github.com/billed-app/billed/internal/http/handlers/bills/export"
	billget "github.com/billed-app/billed/internal/http/handlers/bills/get"
	"github.com/billed-app/billed/internal/http/handlers/bills/list"
	"github.com/billed-app/billed/internal/http/handlers/bills/update"
	fileget "github.com/billed-app/billed/internal/http/handlers/files/get"
	"github.com/billed-app/billed/internal/http/handlers/health"
	usercreate "github.com/billed-app/billed/internal/http/handlers/users/create"
	userget "github.com/billed-app/billed/internal/http/handlers/users/get"
	"github.com/billed-app/billed/internal/http/middlewarectx"
	"github.com/billed-app/billed/internal/metrics"
	authservice "github.com/billed-app/billed/internal/services/auth"
	billsservice "github.com/billed-app/billed/internal/services/bills"
)

// Deps зависимости маршрутов.
type Deps struct {
	Auth    *authservice.Service
	Bills   *billsservice.Service
	Files   *filestore.Store
	Limiter *rate.Limiter
	Ready   health.CheckFunc
}

// RegisterRoutes регистрирует все маршруты хранилища.
// middleware.URLFormat не подключается: он отрезает ".png" у ключей файлов и ".tld" у e-mail.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware("store"),
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(d.Limiter, logger))
			r.Post("/auth/login", login.New(logger, d.Auth).ServeHTTP)
			r.Post("/users", usercreate.New(logger, d.Auth).ServeHTTP)
			r.Get("/users/{email}", userget.New(logger, d.Auth).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Auth, logger))
			r.Get("/bills", list.New(logger, d.Bills).ServeHTTP)
			r.Post("/bills", billcreate.New(logger, d.Bills).ServeHTTP)
			r.With(middlewarectx.AdminOnly(logger)).Get("/bills/export", export.New(logger, d.Bills).ServeHTTP)
			r.Get("/bills/{id}", billget.New(logger, d.Bills).ServeHTTP)
			r.Patch("/bills/{id}", update.New(logger, d.Bills).ServeHTTP)
		})

		r.Get("/health", health.New(logger, d.Ready).ServeHTTP)
	})

	r.Get("/files/{key}", fileget.New(logger, d.Files).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
