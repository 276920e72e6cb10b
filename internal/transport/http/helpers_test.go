package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tokens"
	"github.com/Skotchmaster/storefront/internal/transport"
)

var testSecret = []byte("test-jwt-secret")

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	E      *echo.Echo
	Repo   *repo.GormRepo
	Auth   *service.AuthService
	Events *recordingPublisher
}

type envOption func(d *Deps)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := &repo.GormRepo{DB: gdb}
	require.NoError(t, r.Migrate(context.Background()))

	pub := &recordingPublisher{}
	authSvc := &service.AuthService{Users: r, Tokens: tokens.NewManager(testSecret)}

	deps := &Deps{
		AuthHandler:    &AuthHTTP{Svc: authSvc, Events: pub},
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: r}},
		CartHandler:    &CartHTTP{Svc: &service.CartService{Repo: r, Products: r}, Events: pub},
		Verifier:       authSvc,
		Ready:          r.Ping,
	}
	for _, o := range opts {
		o(deps)
	}

	e := echo.New()
	Register(e, deps)

	return &testEnv{E: e, Repo: r, Auth: authSvc, Events: pub}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) register(t *testing.T, email, password string) transport.UserResponse {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/register", transport.RegisterRequest{
		Email:    email,
		Password: password,
		FullName: "Test User",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var u transport.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	return u
}

func (env *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/login", transport.LoginRequest{Email: email, Password: password}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok transport.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	require.Equal(t, "bearer", tok.TokenType)
	return tok.AccessToken
}

// signUp registers a fresh user and returns its id and a bearer token.
func (env *testEnv) signUp(t *testing.T) (string, string) {
	t.Helper()
	email := uuid.NewString()[:8] + "@example.com"
	u := env.register(t, email, "Secret123")
	return u.ID, env.login(t, email, "Secret123")
}

func (env *testEnv) addProduct(t *testing.T, name, description, category, price string) models.Product {
	t.Helper()
	p := models.Product{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Price:       decimal.RequireFromString(price),
		Category:    category,
		Stock:       10,
		Rating:      4.5,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, env.Repo.CreateProducts(context.Background(), []models.Product{p}))
	return p
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}
