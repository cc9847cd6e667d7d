// Package export обработчик GET /bills/export: выгрузка всех заметок в XLSX.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/billed-app/billed/internal/http/middlewarectx"
	"github.com/billed-app/billed/internal/http/response"
	"github.com/billed-app/billed/internal/lib/sl"
	"github.com/billed-app/billed/internal/models"
	"github.com/billed-app/billed/internal/services/bills"
)

// ContentType MIME-тип книги Excel.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service выгрузка заметок.
type Service interface {
	Export(ctx context.Context, actor models.User) ([]byte, error)
}

// Handler отдает файл XLSX.
type Handler struct {
	log     *slog.Logger
	service Service
	now     func() time.Time
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		now:     time.Now,
	}
}

// ServeHTTP godoc
// @Summary Выгрузка заметок в Excel
// @Tags Bills
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 403 {object} response.ErrorResponse "Только для администратора"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /bills/export [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.bills.export"

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

	data, err := h.service.Export(r.Context(), actor)
	if err != nil {
		if errors.Is(err, bills.ErrForbidden) {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("forbidden"))
			return
		}
		log.Error("failed to export bills", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	name := fmt.Sprintf("bills-%s.xlsx", h.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Error("failed to write export", sl.Err(err))
	}
}
