package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/billed-app/billed/internal/http/middlewarectx"
	"github.com/billed-app/billed/internal/models"
	"github.com/billed-app/billed/internal/services/bills"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Export(ctx context.Context, actor models.User) ([]byte, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_ServeHTTP(t *testing.T) {
	admin := models.User{Email: "admin@test.tld", Type: models.UserTypeAdmin}

	t.Run("success", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("Export", mock.Anything, admin).Return([]byte("PK-xlsx"), nil).Once()

		h := New(newNoopLogger(), svc)
		h.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

		req := httptest.NewRequest(http.MethodGet, "/bills/export", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), admin))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "bills-2024-03-01.xlsx")
		assert.Equal(t, "PK-xlsx", rec.Body.String())
	})

	t.Run("forbidden", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("Export", mock.Anything, admin).Return(nil, bills.ErrForbidden).Once()

		req := httptest.NewRequest(http.MethodGet, "/bills/export", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), admin))
		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("failure", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("Export", mock.Anything, admin).Return(nil, errors.New("boom")).Once()

		req := httptest.NewRequest(http.MethodGet, "/bills/export", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), admin))
		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
