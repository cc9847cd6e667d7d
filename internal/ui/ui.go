// Package ui описывает возможности, которые рабочие процессы получают от
// слоя представления: навигацию между страницами и блокирующие сообщения.
package ui

import "sync"

// Логические маршруты приложения.
const (
	RouteLogin     = "/"
	RouteBills     = "/employee/bills"
	RouteNewBill   = "/employee/bill/new"
	RouteDashboard = "/admin/dashboard"
)

// Navigator заменяет отображаемую страницу по логическому маршруту.
type Navigator interface {
	OnNavigate(path string)
}

// Alerter показывает пользователю блокирующее сообщение.
type Alerter interface {
	Alert(msg string)
}

// NavigatorFunc позволяет использовать функцию как Navigator.
type NavigatorFunc func(path string)

// OnNavigate вызывает f(path).
func (f NavigatorFunc) OnNavigate(path string) { f(path) }

// AlerterFunc позволяет использовать функцию как Alerter.
type AlerterFunc func(msg string)

// Alert вызывает f(msg).
func (f AlerterFunc) Alert(msg string) { f(msg) }

// Recorder запоминает навигацию и сообщения одного запроса. HTTP-слой
// превращает последний маршрут в редирект, а сообщения в текст страницы.
type Recorder struct {
	mu     sync.Mutex
	routes []string
	alerts []string
}

// OnNavigate запоминает маршрут.
func (r *Recorder) OnNavigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, path)
}

// Alert запоминает сообщение.
func (r *Recorder) Alert(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, msg)
}

// Route возвращает последний запрошенный маршрут.
func (r *Recorder) Route() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return "", false
	}
	return r.routes[len(r.routes)-1], true
}

// Routes возвращает копию всех запрошенных маршрутов.
func (r *Recorder) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

// Alerts возвращает копию всех показанных сообщений.
func (r *Recorder) Alerts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.alerts...)
}
