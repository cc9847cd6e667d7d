// Package login реализует рабочий процесс входа для объявленной роли:
// сохранение сеанса, вход в хранилище и создание учётной записи, если её нет.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/billed-app/billed/internal/lib/sl"
	"github.com/billed-app/billed/internal/models"
	"github.com/billed-app/billed/internal/session"
	"github.com/billed-app/billed/internal/store"
	"github.com/billed-app/billed/internal/ui"
)

// AlreadyExistsAlert сообщение, когда вход не удался, а учётная запись есть.
const AlreadyExistsAlert = "Utilisateur déjà existant. Veuillez vérifier vos informations."

// ErrUserExists возвращается, когда вход не удался для существующей учётной записи.
var ErrUserExists = errors.New("user already exists")

// Form значения формы входа.
type Form struct {
	Email    string
	Password string
}

// Container рабочий процесс входа.
type Container struct {
	store   store.Store
	nav     ui.Navigator
	alerter ui.Alerter
	session *session.Context
	log     *slog.Logger
}

// New создает Container. st может быть nil: хранилище не подключено.
func New(st store.Store, nav ui.Navigator, alerter ui.Alerter, sess *session.Context, log *slog.Logger) *Container {
	return &Container{
		store:   st,
		nav:     nav,
		alerter: alerter,
		session: sess,
		log:     log,
	}
}

// LandingRoute возвращает страницу, открываемую после входа для роли.
func LandingRoute(role string) string {
	if role == models.UserTypeAdmin {
		return ui.RouteDashboard
	}
	return ui.RouteBills
}

// HandleSubmit выполняет вход для роли role. Сеанс сохраняется сразу, до
// ответа хранилища. При неудаче учётная запись создаётся, если её нет;
// если она есть, пользователь получает сообщение и возвращается ErrUserExists.
func (c *Container) HandleSubmit(ctx context.Context, role string, form Form) error {
	const op = "login.HandleSubmit"
	log := c.log.With(slog.String("op", op), slog.String("role", role))

	user := session.User{
		Type:     role,
		Email:    form.Email,
		Password: form.Password,
		Status:   session.StatusConnected,
	}
	if err := c.session.SetUser(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	loginErr := c.login(ctx, user)
	if loginErr == nil {
		c.finalize(ctx, role)
		return nil
	}
	log.Info("login failed, probing account", sl.Err(loginErr))

	if c.userExists(ctx, user.Email) {
		log.Error("user already exists")
		c.alerter.Alert(AlreadyExistsAlert)
		return ErrUserExists
	}

	if err := c.createUser(ctx, user); err != nil {
		log.Error("failed to create user", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("user created", slog.String("email", user.Email))
	c.finalize(ctx, role)
	return nil
}

func (c *Container) login(ctx context.Context, user session.User) error {
	if c.store == nil {
		return store.ErrUnavailable
	}
	res, err := c.store.Login(ctx, store.Credentials{Email: user.Email, Password: user.Password})
	if err != nil {
		return err
	}
	return c.session.SetToken(ctx, res.JWT)
}

func (c *Container) createUser(ctx context.Context, user session.User) error {
	if c.store == nil {
		return store.ErrUnavailable
	}
	data, err := json.Marshal(map[string]string{
		"type":     user.Type,
		"name":     strings.SplitN(user.Email, "@", 2)[0],
		"email":    user.Email,
		"password": user.Password,
	})
	if err != nil {
		return err
	}
	if _, err := c.store.Users().Create(ctx, store.UserCreateRequest{Data: string(data)}); err != nil {
		return err
	}
	return c.login(ctx, user)
}

// userExists считает любой отказ хранилища отсутствием учётной записи.
func (c *Container) userExists(ctx context.Context, email string) bool {
	if c.store == nil {
		return false
	}
	_, err := c.store.Users().Get(ctx, email)
	return err == nil
}

func (c *Container) finalize(ctx context.Context, role string) {
	route := LandingRoute(role)
	c.nav.OnNavigate(route)
	if err := c.session.SetPreviousLocation(ctx, route); err != nil {
		c.log.Warn("failed to remember previous location", sl.Err(err))
	}
}
