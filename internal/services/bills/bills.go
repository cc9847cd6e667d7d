// Package bills бизнес-логика заметок о расходах на стороне хранилища:
// права доступа сотрудника и администратора, кэш списков, загрузка
// подтверждений, публикация событий и выгрузка в XLSX.
package bills

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/billed-app/billed/internal/cache"
	"github.com/billed-app/billed/internal/export"
	"github.com/billed-app/billed/internal/lib/sl"
	"github.com/billed-app/billed/internal/lib/upload"
	"github.com/billed-app/billed/internal/models"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrUnsupportedFile = errors.New("unsupported file extension")
)

// Repository контракт хранения заметок.
type Repository interface {
	CreateBill(ctx context.Context, bill models.Bill) (*models.Bill, error)
	GetBill(ctx context.Context, id string) (*models.Bill, error)
	ListBills(ctx context.Context, email string) ([]*models.Bill, error)
	UpdateBill(ctx context.Context, bill models.Bill) (*models.Bill, error)
}

// Cache кэш списков заметок.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Files хранилище файлов-подтверждений.
type Files interface {
	Save(ctx context.Context, ext string, content io.Reader) (string, error)
	URL(key string) string
}

// Publisher публикация событий о заметках.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Service реализует операции над заметками.
type Service struct {
	repo      Repository
	cache     Cache
	files     Files
	publisher Publisher
	ttl       time.Duration
	log       *slog.Logger
}

// NewService создаёт Service. ttl время жизни кэша списков.
func NewService(repo Repository, c Cache, files Files, publisher Publisher, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		cache:     c,
		files:     files,
		publisher: publisher,
		ttl:       ttl,
		log:       log,
	}
}

func listKey(actor models.User) string {
	if actor.IsAdmin() {
		return cache.AllBillsKey
	}
	return cache.BillsKey(actor.Email)
}

// List возвращает все заметки администратору и собственные заметки сотруднику.
// Ошибки кэша не прерывают запрос.
func (s *Service) List(ctx context.Context, actor models.User) ([]*models.Bill, error) {
	const op = "bills.List"

	key := listKey(actor)
	var result []*models.Bill
	found, err := s.cache.Get(ctx, key, &result)
	if err != nil {
		s.log.Warn("failed to read bills from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return result, nil
	}

	email := actor.Email
	if actor.IsAdmin() {
		email = ""
	}
	result, err = s.repo.ListBills(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.cache.Set(ctx, key, result, s.ttl); err != nil {
		s.log.Warn("failed to cache bills", slog.String("key", key), sl.Err(err))
	}
	return result, nil
}

// Get возвращает заметку. Сотрудник видит только свои заметки.
func (s *Service) Get(ctx context.Context, actor models.User, id string) (*models.Bill, error) {
	const op = "bills.Get"

	bill, err := s.repo.GetBill(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !actor.IsAdmin() && bill.Email != actor.Email {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	return bill, nil
}

// Upload сохраняет файл-подтверждение и создаёт ожидающую заметку с ним.
// Ключ результата является ID заметки. Пустой email заменяется e-mail автора.
func (s *Service) Upload(ctx context.Context, actor models.User, email, fileName string, content io.Reader) (*models.UploadResult, error) {
	const op = "bills.Upload"

	if !upload.IsAllowed(fileName) {
		return nil, fmt.Errorf("%s: %w", op, ErrUnsupportedFile)
	}
	ext, _ := upload.Ext(fileName)
	if email == "" {
		email = actor.Email
	}
	if !actor.IsAdmin() && email != actor.Email {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	key, err := s.files.Save(ctx, ext, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	bill, err := s.repo.CreateBill(ctx, models.Bill{
		Email:    email,
		Pct:      models.DefaultPct,
		FileURL:  s.files.URL(key),
		FileName: fileName,
		Status:   models.BillStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("bill created", slog.String("id", bill.ID), slog.String("email", email))
	s.invalidate(ctx, email)
	s.publish(ctx, models.EventBillCreated, *bill)

	return &models.UploadResult{FileURL: bill.FileURL, Key: bill.ID}, nil
}

// Update применяет патч к заметке.
// Сотрудник изменяет только свои заметки, не может сменить владельца,
// выставить статус кроме pending или оставить комментарий администратора.
// Администратор, выставивший accepted или refused, публикует bill.reviewed,
// остальные изменения публикуют bill.submitted.
func (s *Service) Update(ctx context.Context, actor models.User, id string, patch models.BillPatch) (*models.Bill, error) {
	const op = "bills.Update"

	bill, err := s.repo.GetBill(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !actor.IsAdmin() {
		if err = checkEmployeePatch(actor, bill, patch); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	previousEmail := bill.Email
	patch.Apply(bill)
	if bill.Status == "" {
		bill.Status = models.BillStatusPending
	}

	updated, err := s.repo.UpdateBill(ctx, *bill)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(ctx, previousEmail, updated.Email)

	kind := models.EventBillSubmitted
	if actor.IsAdmin() && patch.Status != nil && *patch.Status != models.BillStatusPending {
		kind = models.EventBillReviewed
	}
	s.log.Info("bill updated", slog.String("id", updated.ID), slog.String("event", kind))
	s.publish(ctx, kind, *updated)

	return updated, nil
}

func checkEmployeePatch(actor models.User, bill *models.Bill, patch models.BillPatch) error {
	if bill.Email != actor.Email {
		return ErrForbidden
	}
	if patch.Email != nil && *patch.Email != actor.Email {
		return ErrForbidden
	}
	if patch.Status != nil && *patch.Status != models.BillStatusPending {
		return ErrForbidden
	}
	if patch.CommentAdmin != nil && *patch.CommentAdmin != bill.CommentAdmin {
		return ErrForbidden
	}
	return nil
}

// Export возвращает книгу XLSX со всеми заметками. Только для администратора.
func (s *Service) Export(ctx context.Context, actor models.User) ([]byte, error) {
	const op = "bills.Export"

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	all, err := s.repo.ListBills(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	data, err := export.BillsXLSX(all)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

func (s *Service) invalidate(ctx context.Context, emails ...string) {
	keys := []string{cache.AllBillsKey}
	for _, e := range emails {
		keys = append(keys, cache.BillsKey(e))
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate bills cache", sl.Err(err))
	}
}

func (s *Service) publish(ctx context.Context, kind string, bill models.Bill) {
	if err := s.publisher.Publish(ctx, kind, models.NewBillEvent(kind, bill)); err != nil {
		s.log.Warn("failed to publish bill event", slog.String("event", kind), sl.Err(err))
	}
}
