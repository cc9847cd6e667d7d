// Package web HTTP-слой веб-интерфейса: сеанс по cookie, сборка рабочих
// процессов Bills, NewBill и Login на каждый запрос и отображение страниц.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/billed-app/billed/internal/lib/sl"
	"github.com/billed-app/billed/internal/metrics"
	"github.com/billed-app/billed/internal/models"
	"github.com/billed-app/billed/internal/session"
	"github.com/billed-app/billed/internal/store"
	"github.com/billed-app/billed/internal/ui"
)

// CookieName cookie с идентификатором сеанса браузера.
const CookieName = "billed_sid"

// DefaultModalWidth ширина модального окна подтверждения по умолчанию.
const DefaultModalWidth = 800

// SessionFactory открывает хранилище сеанса sid.
type SessionFactory func(sid string) session.Storage

// StoreFactory создаёт клиент хранилища, подписывающий запросы токенами из tokens.
// Возвращает nil, если хранилище не подключено.
type StoreFactory func(tokens store.TokenSource) store.Store

// Handler веб-интерфейс.
type Handler struct {
	log          *slog.Logger
	sessions     SessionFactory
	stores       StoreFactory
	secureCookie bool
	cookieTTL    time.Duration
	modalWidth   int
}

// Option настраивает Handler.
type Option func(*Handler)

// WithSecureCookie выставляет флаг Secure у cookie сеанса.
func WithSecureCookie(secure bool) Option {
	return func(h *Handler) { h.secureCookie = secure }
}

// WithCookieTTL задаёт срок жизни cookie сеанса.
func WithCookieTTL(ttl time.Duration) Option {
	return func(h *Handler) { h.cookieTTL = ttl }
}

// WithModalWidth задаёт ширину модального окна подтверждения.
func WithModalWidth(width int) Option {
	return func(h *Handler) { h.modalWidth = width }
}

// New создает Handler.
func New(log *slog.Logger, sessions SessionFactory, stores StoreFactory, opts ...Option) *Handler {
	h := &Handler{
		log:        log,
		sessions:   sessions,
		stores:     stores,
		modalWidth: DefaultModalWidth,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewClientFactory возвращает StoreFactory для хранилища по адресу baseURL.
// Пустой адрес означает, что хранилище не подключено.
func NewClientFactory(baseURL string, timeout time.Duration) StoreFactory {
	return func(tokens store.TokenSource) store.Store {
		if baseURL == "" {
			return nil
		}
		return store.NewClient(baseURL, timeout, store.WithTokenSource(tokens))
	}
}

// Routes возвращает маршрутизатор веб-интерфейса.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware("web"),
	)

	r.Get(ui.RouteLogin, h.loginPage)
	r.Post("/login/employee", h.submitLogin(models.UserTypeEmployee))
	r.Post("/login/admin", h.submitLogin(models.UserTypeAdmin))
	r.Post("/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireRole(models.UserTypeEmployee))
		r.Get(ui.RouteBills, h.billsPage)
		r.Get(ui.RouteNewBill, h.newBillPage)
		r.Post(ui.RouteNewBill, h.submitNewBill)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireRole(models.UserTypeAdmin))
		r.Get(ui.RouteDashboard, h.dashboardPage)
		r.Post("/admin/bills/{id}/review", h.reviewBill)
		r.Get("/admin/export", h.exportBills)
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}

type sessionKey struct{}

// session возвращает контекст сеанса запроса, при необходимости заводя cookie.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session.Context {
	if sess, ok := r.Context().Value(sessionKey{}).(*session.Context); ok {
		return sess
	}
	sid := ""
	if c, err := r.Cookie(CookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			sid = c.Value
		}
	}
	if sid == "" {
		sid = uuid.NewString()
		cookie := &http.Cookie{
			Name:     CookieName,
			Value:    sid,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteLaxMode,
		}
		if h.cookieTTL > 0 {
			cookie.MaxAge = int(h.cookieTTL.Seconds())
		}
		http.SetCookie(w, cookie)
	}
	return session.New(h.sessions(sid))
}

// requireRole пропускает только пользователей сеанса с типом role,
// остальных отправляет на страницу входа.
func (h *Handler) requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "web.requireRole"
			sess := h.session(w, r)
			user, err := sess.User(r.Context())
			if err != nil || user.Type != role {
				if err != nil && !errors.Is(err, session.ErrNoSession) {
					h.log.Error("failed to read session", slog.String("op", op), sl.Err(err))
				}
				http.Redirect(w, r, ui.RouteLogin, http.StatusSeeOther)
				return
			}
			if r.Method == http.MethodGet {
				if err := sess.SetPreviousLocation(r.Context(), r.URL.Path); err != nil {
					h.log.Warn("failed to remember previous location", slog.String("op", op), sl.Err(err))
				}
			}
			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (h *Handler) requestLog(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func (h *Handler) writePage(w http.ResponseWriter, log *slog.Logger, status int, page string, err error) {
	if err != nil {
		log.Error("failed to render page", sl.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(page)); err != nil {
		log.Error("failed to write page", sl.Err(err))
	}
}
