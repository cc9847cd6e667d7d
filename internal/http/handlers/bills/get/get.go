// Package get обработчик GET /bills/{id}.
package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/billed-app/billed/internal/http/middlewarectx"
	"github.com/billed-app/billed/internal/http/response"
	"github.com/billed-app/billed/internal/lib/sl"
	"github.com/billed-app/billed/internal/models"
	"github.com/billed-app/billed/internal/services/bills"
	"github.com/billed-app/billed/internal/storage"
)

// Service чтение одной заметки.
type Service interface {
	Get(ctx context.Context, actor models.User, id string) (*models.Bill, error)
}

// Handler возвращает заметку по идентификатору.
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
// @Summary Заметка о расходах по ID
// @Tags Bills
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID заметки"
// @Success 200 {object} response.Response{data=models.Bill}
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 403 {object} response.ErrorResponse "Чужая заметка"
// @Failure 404 {object} response.ErrorResponse "Заметка не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /bills/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.bills.get"

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

	id := chi.URLParam(r, "id")
	bill, err := h.service.Get(r.Context(), actor, id)
	switch {
	case errors.Is(err, storage.ErrBillNotFound):
		log.Debug("bill not found", slog.String("id", id))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("bill not found"))
		return
	case errors.Is(err, bills.ErrForbidden):
		log.Warn("bill access denied", slog.String("id", id), slog.String("email", actor.Email))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("forbidden"))
		return
	case err != nil:
		log.Error("failed to get bill", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(bill))
}
