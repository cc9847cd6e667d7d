package bills_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/billed-app/billed/internal/cache"
	"github.com/billed-app/billed/internal/models"
	"github.com/billed-app/billed/internal/services/bills"
	"github.com/billed-app/billed/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateBill(ctx context.Context, bill models.Bill) (*models.Bill, error) {
	args := m.Called(ctx, bill)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bill), args.Error(1)
}

func (m *RepoMock) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bill), args.Error(1)
}

func (m *RepoMock) ListBills(ctx context.Context, email string) ([]*models.Bill, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bill), args.Error(1)
}

func (m *RepoMock) UpdateBill(ctx context.Context, bill models.Bill) (*models.Bill, error) {
	args := m.Called(ctx, bill)
	if fn, ok := args.Get(0).(func(context.Context, models.Bill) *models.Bill); ok {
		return fn(ctx, bill), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bill), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

type FilesMock struct{ mock.Mock }

func (m *FilesMock) Save(ctx context.Context, ext string, content io.Reader) (string, error) {
	args := m.Called(ctx, ext, content)
	return args.String(0), args.Error(1)
}

func (m *FilesMock) URL(key string) string {
	return "http://store/files/" + key
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	employee = models.User{Email: "employee@test.tld", Type: models.UserTypeEmployee}
	admin    = models.User{Email: "admin@test.tld", Type: models.UserTypeAdmin}
)

type deps struct {
	repo  *RepoMock
	cache *CacheMock
	files *FilesMock
	pub   *PublisherMock
}

func newService() (*bills.Service, deps) {
	d := deps{new(RepoMock), new(CacheMock), new(FilesMock), new(PublisherMock)}
	return bills.NewService(d.repo, d.cache, d.files, d.pub, time.Minute, newNoopLogger()), d
}

func ptr[T any](v T) *T { return &v }

func TestService_List(t *testing.T) {
	own := []*models.Bill{{ID: "1", Email: employee.Email}}

	tests := []struct {
		name      string
		actor     models.User
		setup     func(d deps)
		wantBills []*models.Bill
		wantErr   bool
	}{
		{
			name:  "employee cache miss reads own bills and caches them",
			actor: employee,
			setup: func(d deps) {
				d.cache.On("Get", mock.Anything, cache.BillsKey(employee.Email), mock.Anything).Return(false, nil)
				d.repo.On("ListBills", mock.Anything, employee.Email).Return(own, nil)
				d.cache.On("Set", mock.Anything, cache.BillsKey(employee.Email), own, time.Minute).Return(nil)
			},
			wantBills: own,
		},
		{
			name:  "admin reads every bill",
			actor: admin,
			setup: func(d deps) {
				d.cache.On("Get", mock.Anything, cache.AllBillsKey, mock.Anything).Return(false, nil)
				d.repo.On("ListBills", mock.Anything, "").Return(own, nil)
				d.cache.On("Set", mock.Anything, cache.AllBillsKey, own, time.Minute).Return(nil)
			},
			wantBills: own,
		},
		{
			name:  "cache hit skips repository",
			actor: employee,
			setup: func(d deps) {
				d.cache.On("Get", mock.Anything, cache.BillsKey(employee.Email), mock.Anything).
					Run(func(args mock.Arguments) {
						*(args.Get(2).(*[]*models.Bill)) = own
					}).Return(true, nil)
			},
			wantBills: own,
		},
		{
			name:  "cache failure falls back to repository",
			actor: employee,
			setup: func(d deps) {
				d.cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
				d.repo.On("ListBills", mock.Anything, employee.Email).Return(own, nil)
				d.cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
			},
			wantBills: own,
		},
		{
			name:  "repository failure",
			actor: employee,
			setup: func(d deps) {
				d.cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
				d.repo.On("ListBills", mock.Anything, employee.Email).Return(nil, errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newService()
			tt.setup(d)

			got, err := svc.List(context.Background(), tt.actor)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBills, got)
			d.repo.AssertExpectations(t)
			d.cache.AssertExpectations(t)
		})
	}
}

func TestService_Get(t *testing.T) {
	svc, d := newService()
	d.repo.On("GetBill", mock.Anything, "1").Return(&models.Bill{ID: "1", Email: "other@test.tld"}, nil)
	d.repo.On("GetBill", mock.Anything, "missing").Return(nil, storage.ErrBillNotFound)

	_, err := svc.Get(context.Background(), employee, "1")
	require.ErrorIs(t, err, bills.ErrForbidden)

	got, err := svc.Get(context.Background(), admin, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	_, err = svc.Get(context.Background(), admin, "missing")
	require.ErrorIs(t, err, storage.ErrBillNotFound)
}

func TestService_Upload(t *testing.T) {
	t.Run("creates pending bill with default pct", func(t *testing.T) {
		svc, d := newService()
		content := strings.NewReader("png")
		d.files.On("Save", mock.Anything, "png", content).Return("k.png", nil)
		d.repo.On("CreateBill", mock.Anything, models.Bill{
			Email:    employee.Email,
			Pct:      20,
			FileURL:  "http://store/files/k.png",
			FileName: "Receipt.PNG",
			Status:   models.BillStatusPending,
		}).Return(&models.Bill{ID: "b1", Email: employee.Email, FileURL: "http://store/files/k.png"}, nil)
		d.cache.On("Invalidate", mock.Anything, []string{cache.AllBillsKey, cache.BillsKey(employee.Email)}).Return(nil)
		d.pub.On("Publish", mock.Anything, models.EventBillCreated, mock.MatchedBy(func(e models.BillEvent) bool {
			return e.BillID == "b1" && e.Kind == models.EventBillCreated
		})).Return(nil)

		res, err := svc.Upload(context.Background(), employee, "", "Receipt.PNG", content)
		require.NoError(t, err)
		assert.Equal(t, &models.UploadResult{FileURL: "http://store/files/k.png", Key: "b1"}, res)
		d.files.AssertExpectations(t)
		d.repo.AssertExpectations(t)
		d.cache.AssertExpectations(t)
		d.pub.AssertExpectations(t)
	})

	tests := []struct {
		name     string
		actor    models.User
		email    string
		fileName string
		wantErr  error
	}{
		{name: "pdf rejected", actor: employee, fileName: "receipt.pdf", wantErr: bills.ErrUnsupportedFile},
		{name: "no extension rejected", actor: employee, fileName: "receipt", wantErr: bills.ErrUnsupportedFile},
		{name: "employee uploading for someone else", actor: employee, email: "other@test.tld",
			fileName: "a.jpg", wantErr: bills.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newService()
			_, err := svc.Upload(context.Background(), tt.actor, tt.email, tt.fileName, strings.NewReader("x"))
			require.ErrorIs(t, err, tt.wantErr)
			d.files.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestService_Update(t *testing.T) {
	stored := func(email string) *models.Bill {
		return &models.Bill{ID: "b1", Email: email, Pct: 20, Status: models.BillStatusPending}
	}

	tests := []struct {
		name      string
		actor     models.User
		owner     string
		patch     models.BillPatch
		wantErr   error
		wantEvent string
		check     func(t *testing.T, b models.Bill)
	}{
		{
			name:      "employee submits own bill",
			actor:     employee,
			owner:     employee.Email,
			patch:     models.BillPatch{Name: ptr("vol"), Amount: ptr(348), Status: ptr(models.BillStatusPending)},
			wantEvent: models.EventBillSubmitted,
			check: func(t *testing.T, b models.Bill) {
				assert.Equal(t, "vol", b.Name)
				assert.Equal(t, 348, b.Amount)
				assert.Equal(t, 20, b.Pct)
			},
		},
		{
			name:    "employee edits someone else's bill",
			actor:   employee,
			owner:   "other@test.tld",
			patch:   models.BillPatch{Name: ptr("x")},
			wantErr: bills.ErrForbidden,
		},
		{
			name:    "employee cannot accept",
			actor:   employee,
			owner:   employee.Email,
			patch:   models.BillPatch{Status: ptr(models.BillStatusAccepted)},
			wantErr: bills.ErrForbidden,
		},
		{
			name:    "employee cannot comment as admin",
			actor:   employee,
			owner:   employee.Email,
			patch:   models.BillPatch{CommentAdmin: ptr("ok")},
			wantErr: bills.ErrForbidden,
		},
		{
			name:    "employee cannot change owner",
			actor:   employee,
			owner:   employee.Email,
			patch:   models.BillPatch{Email: ptr("other@test.tld")},
			wantErr: bills.ErrForbidden,
		},
		{
			name:      "admin refuses",
			actor:     admin,
			owner:     employee.Email,
			patch:     models.BillPatch{Status: ptr(models.BillStatusRefused), CommentAdmin: ptr("illisible")},
			wantEvent: models.EventBillReviewed,
			check: func(t *testing.T, b models.Bill) {
				assert.Equal(t, models.BillStatusRefused, b.Status)
				assert.Equal(t, "illisible", b.CommentAdmin)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newService()
			d.repo.On("GetBill", mock.Anything, "b1").Return(stored(tt.owner), nil)
			if tt.wantErr == nil {
				d.repo.On("UpdateBill", mock.Anything, mock.Anything).Return(func(_ context.Context, b models.Bill) *models.Bill {
					return &b
				}, nil)
				d.cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil)
				d.pub.On("Publish", mock.Anything, tt.wantEvent, mock.Anything).Return(nil)
			}

			got, err := svc.Update(context.Background(), tt.actor, "b1", tt.patch)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				d.repo.AssertNotCalled(t, "UpdateBill", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			tt.check(t, *got)
			d.pub.AssertExpectations(t)
		})
	}
}

func TestService_Update_NotFound(t *testing.T) {
	svc, d := newService()
	d.repo.On("GetBill", mock.Anything, "nope").Return(nil, storage.ErrBillNotFound)

	_, err := svc.Update(context.Background(), admin, "nope", models.BillPatch{})
	require.ErrorIs(t, err, storage.ErrBillNotFound)
}

func TestService_Export(t *testing.T) {
	svc, d := newService()
	d.repo.On("ListBills", mock.Anything, "").Return([]*models.Bill{{Email: "a@a", Date: "2004-04-04"}}, nil)

	_, err := svc.Export(context.Background(), employee)
	require.ErrorIs(t, err, bills.ErrForbidden)

	data, err := svc.Export(context.Background(), admin)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
