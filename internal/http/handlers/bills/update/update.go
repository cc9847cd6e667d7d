// Package update обработчик PATCH /bills/{id}.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/billed-app/billed/internal/http/middlewarectx"
	"github.com/billed-app/billed/internal/http/response"
	"github.com/billed-app/billed/internal/lib/billschema"
	"github.com/billed-app/billed/internal/lib/sl"
	"github.com/billed-app/billed/internal/metrics"
	"github.com/billed-app/billed/internal/models"
	"github.com/billed-app/billed/internal/services/bills"
	"github.com/billed-app/billed/internal/storage"
)

const maxBodySize = 1 << 20

// Service обновление заметки.
type Service interface {
	Update(ctx context.Context, actor models.User, id string, patch models.BillPatch) (*models.Bill, error)
}

// Handler применяет частичное обновление к заметке.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновление заметки о расходах
// @Description Отсутствующие поля не меняются. Сотрудник может менять только свои заметки в статусе pending.
// @Tags Bills
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param id path string true "ID заметки"
// @Param request body models.BillPatch true "Изменяемые поля"
// @Success 200 {object} response.Response{data=models.Bill}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 403 {object} response.ErrorResponse "Изменение запрещено"
// @Failure 404 {object} response.ErrorResponse "Заметка не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /bills/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.bills.update"

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

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil || !json.Valid(body) {
		log.Error("failed to read request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := billschema.ValidatePatch(body); err != nil {
		log.Info("patch does not match schema", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	var patch models.BillPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		log.Error("failed to decode patch", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(patch); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err))
		return
	}

	id := chi.URLParam(r, "id")
	bill, err := h.service.Update(r.Context(), actor, id, patch)
	switch {
	case errors.Is(err, storage.ErrBillNotFound):
		log.Debug("bill not found", slog.String("id", id))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("bill not found"))
		return
	case errors.Is(err, bills.ErrForbidden):
		log.Warn("bill update denied", slog.String("id", id), slog.String("email", actor.Email))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("forbidden"))
		return
	case err != nil:
		log.Error("failed to update bill", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	metrics.BillsUpdated.WithLabelValues(string(bill.Status)).Inc()
	log.Info("bill updated", slog.String("id", bill.ID), slog.String("status", string(bill.Status)))
	render.JSON(w, r, response.StatusOKWithData(bill))
}
