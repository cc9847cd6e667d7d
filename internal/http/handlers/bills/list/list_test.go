package list

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/billed-app/billed/internal/http/middlewarectx"
	"github.com/billed-app/billed/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) List(ctx context.Context, actor models.User) ([]*models.Bill, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bill), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_ServeHTTP(t *testing.T) {
	employee := models.User{Email: "a@test.tld", Type: models.UserTypeEmployee}

	t.Run("success", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("List", mock.Anything, employee).Return([]*models.Bill{
			{ID: "1", Email: "a@test.tld", Date: "2004-04-04", Status: models.BillStatusPending},
		}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/bills", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), employee))
		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Status string         `json:"status"`
			Data   []*models.Bill `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "OK", resp.Status)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "2004-04-04", resp.Data[0].Date)
		svc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("List", mock.Anything, employee).Return(nil, errors.New("db down")).Once()

		req := httptest.NewRequest(http.MethodGet, "/bills", nil)
		req = req.WithContext(middlewarectx.WithUser(req.Context(), employee))
		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("no user", func(t *testing.T) {
		svc := new(ServiceMock)
		rec := httptest.NewRecorder()
		New(newNoopLogger(), svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bills", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}
