// Package create обработчик POST /bills: загрузка подтверждения и создание
// заметки в статусе pending.
package create

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/billed-app/billed/internal/http/middlewarectx"
	"github.com/billed-app/billed/internal/http/response"
	"github.com/billed-app/billed/internal/lib/sl"
	"github.com/billed-app/billed/internal/metrics"
	"github.com/billed-app/billed/internal/models"
	"github.com/billed-app/billed/internal/services/bills"
)

// MaxUploadSize предел размера тела multipart-запроса.
const MaxUploadSize = 10 << 20

// Service загрузка подтверждения.
type Service interface {
	Upload(ctx context.Context, actor models.User, email, fileName string, content io.Reader) (*models.UploadResult, error)
}

// Handler принимает форму с полями file и email.
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
// @Summary Загрузка подтверждения
// @Description Сохраняет файл (jpg, jpeg, png) и создает заметку в статусе pending.
// @Tags Bills
// @Security BearerAuth
// @Accept  multipart/form-data
// @Produce  json
// @Param file formData file true "Подтверждение"
// @Param email formData string false "E-mail владельца"
// @Success 201 {object} response.Response{data=models.UploadResult}
// @Failure 400 {object} response.ErrorResponse "Некорректная форма"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нельзя создать заметку за другого"
// @Failure 422 {object} response.ErrorResponse "Неподдерживаемый файл"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /bills [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.bills.create"

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

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		log.Info("failed to parse multipart form", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Info("file field missing", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("file is required"))
		return
	}
	defer file.Close()

	res, err := h.service.Upload(r.Context(), actor, r.FormValue("email"), header.Filename, file)
	switch {
	case errors.Is(err, bills.ErrUnsupportedFile):
		log.Info("unsupported file", slog.String("file_name", header.Filename))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("only jpg, jpeg and png files are accepted"))
		return
	case errors.Is(err, bills.ErrForbidden):
		log.Warn("upload for another user denied", slog.String("email", actor.Email))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("forbidden"))
		return
	case err != nil:
		log.Error("failed to upload bill", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	metrics.BillsCreated.Inc()
	log.Info("bill created", slog.String("key", res.Key))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(res))
}
