// Package metrics счётчики Prometheus сервисов Billed.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "billed",
		Name:      "http_requests_total",
		Help:      "HTTP requests by service, route and status code.",
	}, []string{"service", "method", "route", "code"})

	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "billed",
		Name:      "login_attempts_total",
		Help:      "Login attempts by result.",
	}, []string{"result"})

	BillsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "billed",
		Name:      "bills_created_total",
		Help:      "Bills created through receipt upload.",
	})

	BillsUpdated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "billed",
		Name:      "bills_updated_total",
		Help:      "Bill updates by resulting status.",
	}, []string{"status"})

	NotificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "billed",
		Name:      "notifications_total",
		Help:      "Notification e-mails by event kind and result.",
	}, []string{"kind", "result"})
)

func init() {
	prometheus.MustRegister(HTTPRequests, LoginAttempts, BillsCreated, BillsUpdated, NotificationsSent)
}

// Middleware считает запросы по шаблону маршрута chi.
func Middleware(service string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unknown"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			HTTPRequests.WithLabelValues(service, r.Method, route, strconv.Itoa(status)).Inc()
		})
	}
}
