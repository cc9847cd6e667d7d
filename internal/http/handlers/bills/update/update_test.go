package update

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/billed-app/billed/internal/http/middlewarectx"
	"github.com/billed-app/billed/internal/models"
	"github.com/billed-app/billed/internal/services/bills"
	"github.com/billed-app/billed/internal/storage"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Update(ctx context.Context, actor models.User, id string, patch models.BillPatch) (*models.Bill, error) {
	args := m.Called(ctx, actor, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bill), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(t *testing.T, svc *ServiceMock, actor models.User, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middlewarectx.WithUser(r.Context(), actor)))
		})
	})
	r.Patch("/bills/{id}", New(newNoopLogger(), svc).ServeHTTP)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/bills/b1", bytes.NewBufferString(body)))
	return rec
}

func TestHandler_ServeHTTP(t *testing.T) {
	admin := models.User{Email: "admin@test.tld", Type: models.UserTypeAdmin}
	accepted := models.BillStatusAccepted

	tests := []struct {
		name       string
		body       string
		setupMock  func(m *ServiceMock)
		wantStatus int
	}{
		{
			name: "accepted by admin",
			body: `{"status":"accepted","commentAdmin":"ok"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Update", mock.Anything, admin, "b1", mock.MatchedBy(func(p models.BillPatch) bool {
					return p.Status != nil && *p.Status == accepted &&
						p.CommentAdmin != nil && *p.CommentAdmin == "ok" && p.Amount == nil
				})).Return(&models.Bill{ID: "b1", Status: accepted}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "full bill with id is accepted",
			body: `{"id":"b1","email":"a@test.tld","type":"Transports","name":"train","amount":348,"date":"2004-04-04","vat":"70","pct":20,"commentary":"","fileUrl":"u","fileName":"f.jpg","status":"pending"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Update", mock.Anything, admin, "b1", mock.Anything).
					Return(&models.Bill{ID: "b1", Status: models.BillStatusPending}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown status",
			body:       `{"status":"lost"}`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown field",
			body:       `{"owner":"x"}`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "amount is string",
			body:       `{"amount":"100"}`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "any integer amount and pct",
			body: `{"amount":-5,"pct":150}`,
			setupMock: func(m *ServiceMock) {
				m.On("Update", mock.Anything, admin, "b1", mock.MatchedBy(func(p models.BillPatch) bool {
					return p.Amount != nil && *p.Amount == -5 && p.Pct != nil && *p.Pct == 150
				})).Return(&models.Bill{ID: "b1", Amount: -5, Pct: 150}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad email",
			body:       `{"email":"nope"}`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "malformed",
			body:       `{"status":`,
			setupMock:  func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "not found",
			body: `{"status":"refused"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Update", mock.Anything, admin, "b1", mock.Anything).Return(nil, storage.ErrBillNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "forbidden",
			body: `{"status":"refused"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Update", mock.Anything, admin, "b1", mock.Anything).Return(nil, bills.ErrForbidden).Once()
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "failure",
			body: `{"status":"refused"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Update", mock.Anything, admin, "b1", mock.Anything).Return(nil, errors.New("db down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			rec := serve(t, svc, admin, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
