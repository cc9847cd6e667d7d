// Package get обработчик GET /files/{key}: отдача файла-подтверждения.
package get

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/billed-app/billed/internal/filestore"
	"github.com/billed-app/billed/internal/http/response"
	"github.com/billed-app/billed/internal/lib/sl"
)

// Files открывает сохранённый файл по ключу.
type Files interface {
	Open(key string) (*os.File, error)
}

// Handler отдает файл с поддержкой Range и If-Modified-Since.
type Handler struct {
	log   *slog.Logger
	files Files
}

// New создает Handler.
func New(log *slog.Logger, files Files) *Handler {
	return &Handler{
		log:   log,
		files: files,
	}
}

// ServeHTTP godoc
// @Summary Файл-подтверждение
// @Tags Files
// @Produce image/jpeg,image/png
// @Param key path string true "Ключ файла"
// @Success 200 {file} file
// @Failure 400 {object} response.ErrorResponse "Некорректный ключ"
// @Failure 404 {object} response.ErrorResponse "Файл не найден"
// @Router /files/{key} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.files.get"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	key := chi.URLParam(r, "key")
	f, err := h.files.Open(key)
	switch {
	case errors.Is(err, filestore.ErrInvalidKey):
		log.Warn("invalid file key", slog.String("key", key))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid file key"))
		return
	case errors.Is(err, filestore.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("file not found"))
		return
	case err != nil:
		log.Error("failed to open file", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Error("failed to stat file", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	http.ServeContent(w, r, key, info.ModTime(), f)
}
