package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billed-app/billed/internal/models"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, bool, error) {
	return string(s), s != "", nil
}

func ok(w http.ResponseWriter, r *http.Request, data any) {
	render.JSON(w, r, map[string]any{"status": "OK", "data": data})
}

func fail(w http.ResponseWriter, r *http.Request, code int, msg string) {
	render.Status(r, code)
	render.JSON(w, r, map[string]any{"status": "Error", "error": msg})
}

func newTestServer(t *testing.T) (*Client, *http.Request) {
	t.Helper()
	var last http.Request

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			last = *req
			next.ServeHTTP(w, req)
		})
	})
	r.Post("/api/v1/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var creds Credentials
		_ = json.NewDecoder(req.Body).Decode(&creds)
		if creds.Password != "good" {
			fail(w, req, http.StatusUnauthorized, "invalid credentials")
			return
		}
		ok(w, req, map[string]string{"jwt": "token-" + creds.Email})
	})
	r.Get("/api/v1/bills", func(w http.ResponseWriter, req *http.Request) {
		ok(w, req, []models.Bill{{ID: "1", Date: "2004-04-04", Status: models.BillStatusPending}})
	})
	r.Post("/api/v1/bills", func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			fail(w, req, http.StatusBadRequest, "invalid multipart")
			return
		}
		_, header, err := req.FormFile("file")
		if err != nil {
			fail(w, req, http.StatusBadRequest, "no file")
			return
		}
		ok(w, req, map[string]string{"fileUrl": "http://files/" + header.Filename, "key": "1234"})
	})
	r.Patch("/api/v1/bills/{id}", func(w http.ResponseWriter, req *http.Request) {
		var b models.Bill
		_ = json.NewDecoder(req.Body).Decode(&b)
		b.ID = chi.URLParam(req, "id")
		ok(w, req, b)
	})
	r.Get("/api/v1/bills/export", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("xlsx"))
	})
	r.Get("/api/v1/users/{email}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "email") != "known@a" {
			fail(w, req, http.StatusNotFound, "user not found")
			return
		}
		ok(w, req, models.User{Email: "known@a", Type: "Employee"})
	})
	r.Post("/api/v1/users", func(w http.ResponseWriter, req *http.Request) {
		var u models.User
		_ = json.NewDecoder(req.Body).Decode(&u)
		render.Status(req, http.StatusCreated)
		ok(w, req, u)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, 2*time.Second, WithTokenSource(staticToken("abc"))), &last
}

func TestClient_Login(t *testing.T) {
	c, last := newTestServer(t)
	ctx := context.Background()

	res, err := c.Login(ctx, Credentials{Email: "a@a", Password: "good"})
	require.NoError(t, err)
	assert.Equal(t, "token-a@a", res.JWT)
	assert.Equal(t, "application/json", last.Header.Get("Content-Type"))

	_, err = c.Login(ctx, Credentials{Email: "a@a", Password: "bad"})
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, "invalid credentials", se.Message)
	assert.Equal(t, "Erreur 401", se.Error())
}

func TestClient_BillsList(t *testing.T) {
	c, last := newTestServer(t)

	bills, err := c.Bills().List(context.Background())
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, "2004-04-04", bills[0].Date)
	assert.Equal(t, "Bearer abc", last.Header.Get("Authorization"))
}

func TestClient_BillsCreateAndUpdate(t *testing.T) {
	c, _ := newTestServer(t)
	ctx := context.Background()

	fd := NewFormData()
	fd.AppendFile("file", "receipt.jpg", []byte("jpeg-bytes"))
	fd.Append("email", "a@a")

	res, err := c.Bills().Create(ctx, CreateRequest{Data: fd, Headers: Headers{NoContentType: true}})
	require.NoError(t, err)
	assert.Equal(t, "http://files/receipt.jpg", res.FileURL)
	assert.Equal(t, "1234", res.Key)

	_, err = c.Bills().Create(ctx, CreateRequest{Data: fd})
	assert.ErrorIs(t, err, ErrContentType)

	bill, err := c.Bills().Update(ctx, UpdateRequest{Data: `{"name":"Hôtel","amount":400}`, Selector: res.Key})
	require.NoError(t, err)
	assert.Equal(t, "1234", bill.ID)
	assert.Equal(t, "Hôtel", bill.Name)
	assert.Equal(t, 400, bill.Amount)

	_, err = c.Bills().Update(ctx, UpdateRequest{Data: "{}"})
	assert.Error(t, err)
}

func TestClient_Export(t *testing.T) {
	c, _ := newTestServer(t)

	data, err := c.Bills().Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx"), data)
}

func TestClient_Users(t *testing.T) {
	c, _ := newTestServer(t)
	ctx := context.Background()

	u, err := c.Users().Get(ctx, "known@a")
	require.NoError(t, err)
	assert.Equal(t, "known@a", u.Email)

	_, err = c.Users().Get(ctx, "ghost@a")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	created, err := c.Users().Create(ctx, UserCreateRequest{Data: `{"type":"Employee","name":"new","email":"new@a","password":"x"}`})
	require.NoError(t, err)
	assert.Equal(t, "new@a", created.Email)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
		_, _ = io.WriteString(w, "{}")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond)
	_, err := c.Bills().List(context.Background())
	assert.Error(t, err)
}

func TestFormData(t *testing.T) {
	fd := NewFormData()
	fd.AppendFile("file", "a.png", []byte("x"))
	fd.Append("email", "a@a")

	email, found := fd.Get("email")
	assert.True(t, found)
	assert.Equal(t, "a@a", email)

	name, found := fd.FileName("file")
	assert.True(t, found)
	assert.Equal(t, "a.png", name)

	_, found = fd.Get("file")
	assert.False(t, found)

	body, ct, err := fd.Encode()
	require.NoError(t, err)
	assert.Contains(t, ct, "multipart/form-data; boundary=")
	assert.Contains(t, string(body), `filename="a.png"`)
}
