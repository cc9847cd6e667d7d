package create

import (
	"bytes"
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

	"github.com/billed-app/billed/internal/models"
	"github.com/billed-app/billed/internal/storage"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) CreateUser(ctx context.Context, userType, name, email, password string) (*models.User, error) {
	args := m.Called(ctx, userType, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_ServeHTTP(t *testing.T) {
	const body = `{"type":"Employee","name":"john","email":"john@test.tld","password":"secret"}`

	tests := []struct {
		name       string
		body       string
		setupMock  func(m *ServiceMock)
		wantStatus int
	}{
		{
			name: "created",
			body: body,
			setupMock: func(m *ServiceMock) {
				m.On("CreateUser", mock.Anything, "Employee", "john", "john@test.tld", "secret").
					Return(&models.User{ID: "uid", Type: "Employee", Name: "john", Email: "john@test.tld", PasswordHash: "hash"}, nil).Once()
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "duplicate",
			body: body,
			setupMock: func(m *ServiceMock) {
				m.On("CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, storage.ErrUserExists).Once()
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "storage failure",
			body: body,
			setupMock: func(m *ServiceMock) {
				m.On("CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(nil, errors.New("db down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "unknown type",
			body:       `{"type":"Boss","email":"john@test.tld","password":"secret"}`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "malformed json",
			body:       `[`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_PasswordHashNotExposed(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.User{ID: "uid", Email: "john@test.tld", PasswordHash: "secret-hash"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users",
		bytes.NewBufferString(`{"type":"Admin","email":"john@test.tld","password":"x"}`))
	rec := httptest.NewRecorder()
	New(newNoopLogger(), svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-hash")

	var resp struct {
		Data models.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "uid", resp.Data.ID)
}
