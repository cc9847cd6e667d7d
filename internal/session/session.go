package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoSession возвращается, когда в хранилище нет вошедшего пользователя.
var ErrNoSession = errors.New("no session")

// StatusConnected статус пользователя после отправки формы входа.
const StatusConnected = "connected"

// User пользователь сеанса. Пароль живёт только в памяти процесса входа
// и в хранилище не записывается.
type User struct {
	Type     string `json:"type"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Status   string `json:"status"`
}

// Context явный контекст сеанса, передаваемый каждому рабочему процессу.
type Context struct {
	storage Storage
}

// New оборачивает хранилище в контекст сеанса.
func New(storage Storage) *Context {
	return &Context{storage: storage}
}

// User возвращает пользователя сеанса или ErrNoSession.
func (c *Context) User(ctx context.Context) (*User, error) {
	const op = "session.User"
	raw, ok, err := c.storage.GetItem(ctx, KeyUser)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok || raw == "" {
		return nil, ErrNoSession
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

// SetUser сохраняет пользователя сеанса. Токен прежнего пользователя удаляется.
func (c *Context) SetUser(ctx context.Context, u User) error {
	const op = "session.SetUser"
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.storage.RemoveItem(ctx, KeyJWT); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.storage.SetItem(ctx, KeyUser, string(raw)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Email возвращает почту пользователя сеанса или пустую строку.
func (c *Context) Email(ctx context.Context) string {
	u, err := c.User(ctx)
	if err != nil {
		return ""
	}
	return u.Email
}

// Token возвращает токен хранилища.
func (c *Context) Token(ctx context.Context) (string, bool, error) {
	return c.storage.GetItem(ctx, KeyJWT)
}

// SetToken сохраняет токен хранилища.
func (c *Context) SetToken(ctx context.Context, token string) error {
	return c.storage.SetItem(ctx, KeyJWT, token)
}

// PreviousLocation возвращает последний маршрут, на который перешёл пользователь.
func (c *Context) PreviousLocation(ctx context.Context) (string, bool, error) {
	return c.storage.GetItem(ctx, KeyPreviousLocation)
}

// SetPreviousLocation запоминает маршрут.
func (c *Context) SetPreviousLocation(ctx context.Context, path string) error {
	return c.storage.SetItem(ctx, KeyPreviousLocation, path)
}

// Clear удаляет все данные сеанса (выход).
func (c *Context) Clear(ctx context.Context) error {
	for _, key := range []string{KeyUser, KeyJWT, KeyPreviousLocation} {
		if err := c.storage.RemoveItem(ctx, key); err != nil {
			return fmt.Errorf("session.Clear: %w", err)
		}
	}
	return nil
}
