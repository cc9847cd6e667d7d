package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/billed-app/billed/internal/models"
)

// TokenSource отдаёт токен, которым подписываются запросы.
type TokenSource interface {
	Token(ctx context.Context) (string, bool, error)
}

// Client HTTP-клиент хранилища.
type Client struct {
	apiURL     string
	httpClient *http.Client
	tokens     TokenSource
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient задаёт http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource подписывает запросы токеном сеанса.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// NewClient создаёт клиент для хранилища по адресу baseURL с таймаутом запросов.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		apiURL:     strings.TrimRight(baseURL, "/") + "/api/v1",
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

type billsAPI struct{ c *Client }

type usersAPI struct{ c *Client }

// Bills возвращает операции над заметками.
func (c *Client) Bills() BillsAPI { return billsAPI{c: c} }

// Users возвращает операции над пользователями.
func (c *Client) Users() UsersAPI { return usersAPI{c: c} }

// Login выполняет вход и возвращает токен.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	const op = "store.Login"
	body, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", bytes.NewReader(body), "application/json", &res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &res, nil
}

func (b billsAPI) List(ctx context.Context) ([]models.Bill, error) {
	const op = "store.Bills.List"
	var bills []models.Bill
	if err := b.c.do(ctx, http.MethodGet, "/bills", nil, "", &bills); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return bills, nil
}

func (b billsAPI) Get(ctx context.Context, selector string) (*models.Bill, error) {
	const op = "store.Bills.Get"
	var bill models.Bill
	if err := b.c.do(ctx, http.MethodGet, "/bills/"+url.PathEscape(selector), nil, "", &bill); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &bill, nil
}

func (b billsAPI) Create(ctx context.Context, req CreateRequest) (*models.UploadResult, error) {
	const op = "store.Bills.Create"
	if req.Data == nil {
		return nil, fmt.Errorf("%s: empty form data", op)
	}
	if !req.Headers.NoContentType {
		return nil, fmt.Errorf("%s: %w", op, ErrContentType)
	}
	body, contentType, err := req.Data.Encode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var res models.UploadResult
	if err := b.c.do(ctx, http.MethodPost, "/bills", bytes.NewReader(body), contentType, &res); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &res, nil
}

func (b billsAPI) Update(ctx context.Context, req UpdateRequest) (*models.Bill, error) {
	const op = "store.Bills.Update"
	if req.Selector == "" {
		return nil, fmt.Errorf("%s: empty selector", op)
	}
	var bill models.Bill
	path := "/bills/" + url.PathEscape(req.Selector)
	if err := b.c.do(ctx, http.MethodPatch, path, strings.NewReader(req.Data), "application/json", &bill); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &bill, nil
}

func (b billsAPI) Export(ctx context.Context) ([]byte, error) {
	const op = "store.Bills.Export"
	resp, err := b.c.send(ctx, http.MethodGet, "/bills/export", nil, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w", op, statusError(resp))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

func (u usersAPI) Create(ctx context.Context, req UserCreateRequest) (*models.User, error) {
	const op = "store.Users.Create"
	var user models.User
	if err := u.c.do(ctx, http.MethodPost, "/users", strings.NewReader(req.Data), "application/json", &user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

func (u usersAPI) Get(ctx context.Context, selector string) (*models.User, error) {
	const op = "store.Users.Get"
	var user models.User
	if err := u.c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(selector), nil, "", &user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		token, ok, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		if ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return c.httpClient.Do(req)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	resp, err := c.send(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func statusError(resp *http.Response) *StatusError {
	se := &StatusError{Code: resp.StatusCode}
	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&env); err == nil {
		se.Message = env.Error
	}
	return se
}
