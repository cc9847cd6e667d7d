// Package auth бизнес-логика пользователей хранилища: создание, поиск,
// вход по паролю и проверка JWT.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/billed-app/billed/internal/lib/jwt"
	"github.com/billed-app/billed/internal/lib/password"
	"github.com/billed-app/billed/internal/models"
	"github.com/billed-app/billed/internal/storage"
)

// ErrInvalidCredentials неизвестный e-mail или неверный пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository контракт хранения пользователей.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service отвечает за пользователей и токены.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// NewService создаёт Service.
func NewService(users UserRepository, jwtMaker jwt.Maker) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// CreateUser хеширует пароль и сохраняет пользователя. Пустое имя заменяется
// частью e-mail до "@". Дубликат e-mail возвращает storage.ErrUserExists.
func (s *Service) CreateUser(ctx context.Context, userType, name, email, rawPassword string) (*models.User, error) {
	const op = "auth.CreateUser"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	user, err := s.users.CreateUser(ctx, models.User{
		Type:         userType,
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// GetUser возвращает пользователя по e-mail.
func (s *Service) GetUser(ctx context.Context, email string) (*models.User, error) {
	const op = "auth.GetUser"
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Login проверяет пароль и выпускает JWT.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (string, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err = password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	token, err := s.jwtMaker.GenerateToken(user.Email, user.Type)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// ValidateToken разбирает JWT и возвращает данные пользователя из него.
func (s *Service) ValidateToken(_ context.Context, token string) (*models.User, error) {
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Email: claims.Email,
		Type:  claims.Type,
	}, nil
}
