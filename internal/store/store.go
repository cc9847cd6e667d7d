// Package store реализует клиент REST-хранилища Billed: заметки о расходах,
// пользователи и вход. Каждый вызов принимает context.Context и завершается
// значением или ошибкой; отказ хранилища возвращается как *StatusError.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/billed-app/billed/internal/models"
)

// ErrUnavailable возвращается рабочими процессами, когда хранилище не подключено.
var ErrUnavailable = errors.New("store is not configured")

// ErrContentType возвращается Bills().Create без Headers.NoContentType:
// файл уходит только multipart-телом.
var ErrContentType = errors.New("file upload requires multipart content type")

// Store клиент хранилища.
type Store interface {
	Bills() BillsAPI
	Users() UsersAPI
	Login(ctx context.Context, creds Credentials) (*LoginResult, error)
}

// BillsAPI операции над заметками.
type BillsAPI interface {
	List(ctx context.Context) ([]models.Bill, error)
	Get(ctx context.Context, selector string) (*models.Bill, error)
	Create(ctx context.Context, req CreateRequest) (*models.UploadResult, error)
	Update(ctx context.Context, req UpdateRequest) (*models.Bill, error)
	Export(ctx context.Context) ([]byte, error)
}

// UsersAPI операции над пользователями.
type UsersAPI interface {
	Create(ctx context.Context, req UserCreateRequest) (*models.User, error)
	Get(ctx context.Context, selector string) (*models.User, error)
}

// Credentials учётные данные для входа.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult ответ на успешный вход.
type LoginResult struct {
	JWT string `json:"jwt"`
}

// Headers параметры заголовков запроса. NoContentType оставляет выбор
// Content-Type кодировщику тела (multipart с границей).
type Headers struct {
	NoContentType bool
}

// CreateRequest загрузка файла-подтверждения с созданием заметки.
type CreateRequest struct {
	Data    *FormData
	Headers Headers
}

// UpdateRequest обновление заметки Selector JSON-документом Data.
type UpdateRequest struct {
	Data     string
	Selector string
}

// UserCreateRequest создание пользователя по JSON-документу Data
// ({type, name, email, password}).
type UserCreateRequest struct {
	Data string
}

// StatusError отказ хранилища с HTTP-статусом. Текст ошибки показывается
// пользователю как есть.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Erreur %d", e.Code)
}

// IsNotFound сообщает, что хранилище ответило 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == 404
}
