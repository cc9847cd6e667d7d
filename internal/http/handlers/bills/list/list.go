// Package list обработчик GET /bills.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/billed-app/billed/internal/http/middlewarectx"
	"github.com/billed-app/billed/internal/http/response"
	"github.com/billed-app/billed/internal/lib/sl"
	"github.com/billed-app/billed/internal/models"
)

// Service список заметок, видимых пользователю.
type Service interface {
	List(ctx context.Context, actor models.User) ([]*models.Bill, error)
}

// Handler возвращает заметки: администратору все, сотруднику только свои.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список заметок о расходах
// @Tags Bills
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} response.Response{data=[]models.Bill}
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /bills [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.bills.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	bills, err := h.service.List(r.Context(), actor)
	if err != nil {
		log.Error("failed to list bills", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Debug("bills listed", slog.Int("count", len(bills)))
	render.JSON(w, r, response.StatusOKWithData(bills))
}
