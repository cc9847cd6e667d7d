package login

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

	"github.com/billed-app/billed/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(m *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "success",
			body: `{"email":"employee@test.tld","password":"employee"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "employee@test.tld", "employee").Return("token", nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"OK","data":{"jwt":"token"}}`,
		},
		{
			name: "invalid credentials",
			body: `{"email":"employee@test.tld","password":"nope"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, "employee@test.tld", "nope").
					Return("", auth.ErrInvalidCredentials).Once()
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"status":"Error","error":"invalid credentials"}`,
		},
		{
			name: "service failure",
			body: `{"email":"employee@test.tld","password":"employee"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Login", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("db down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "malformed json",
			body:       `{"email":`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid email",
			body:       `{"email":"nope","password":"x"}`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			} else {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, "Error", resp["status"])
			}
			svc.AssertExpectations(t)
		})
	}
}
