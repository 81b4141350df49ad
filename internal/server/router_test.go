package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/recipe-box/internal/auth"
	"github.com/yourusername/recipe-box/internal/config"
	"github.com/yourusername/recipe-box/internal/recipes"
	"github.com/yourusername/recipe-box/internal/session"
	"github.com/yourusername/recipe-box/internal/storage"
)

func newTestConfig() *config.Config {
	return &config.Config{
		GinMode:            gin.TestMode,
		CORSAllowedOrigins: "http://localhost:5173",
		SessionSecret:      "test-secret",
		SessionMaxAge:      time.Hour,
		SessionBackend:     config.SessionBackendMemory,
		DatabaseDriver:     storage.DriverSQLite,
		DatabaseURL:        storage.MemoryDSN,
		BcryptCost:         bcrypt.MinCost,
	}
}

// newTestServer は実際のストアとメモリセッションで組み立てたルーターを返します。
func newTestServer(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := storage.Open(ctx, storage.Options{Driver: cfg.DatabaseDriver, DSN: cfg.DatabaseURL, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close(db) })
	require.NoError(t, storage.Migrate(ctx, db))

	sessions := session.NewManager(session.NewMemoryBackend(), cfg.SessionMaxAge)
	authSvc := auth.NewService(storage.NewUserStore(db), sessions, auth.NewBcryptHasher(cfg.BcryptCost))
	recipeSvc := recipes.NewService(storage.NewRecipeStore(db), recipes.Policy{
		RequireSessionForByID: cfg.RecipeByIDRequireLogin,
		EnforceOwnership:      cfg.RecipeEnforceOwnership,
	})

	return NewRouter(Dependencies{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Auth:    auth.NewManager(authSvc, auth.Options{MaxAge: cfg.SessionMaxAge, CSRFProtection: cfg.CSRFProtection}),
		Recipes: recipeSvc,
	})
}

// client はクッキーを引き継ぐテスト用クライアントです。
type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies []*http.Cookie
}

func (cl *client) do(method, path string, body any) *httptest.ResponseRecorder {
	cl.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(cl.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	cl.router.ServeHTTP(rec, req)
	if set := rec.Result().Cookies(); len(set) > 0 {
		cl.cookies = nil
		for _, c := range set {
			if c.MaxAge >= 0 {
				cl.cookies = append(cl.cookies, c)
			}
		}
	}
	return rec
}

func jsonBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload), rec.Body.String())
	return payload
}

func TestHealth(t *testing.T) {
	router := newTestServer(t, newTestConfig())
	cl := &client{t: t, router: router}

	rec := cl.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", jsonBody(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDIsPropagated(t *testing.T) {
	router := newTestServer(t, newTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestAuthFlow(t *testing.T) {
	router := newTestServer(t, newTestConfig())
	alice := &client{t: t, router: router}

	rec := alice.do(http.MethodPost, "/signup", gin.H{"username": "alice", "password": "pw1", "image_url": "", "bio": ""})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1,"username":"alice","image_url":"","bio":""}`, rec.Body.String())

	rec = alice.do(http.MethodGet, "/check_session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), jsonBody(t, rec)["id"])

	other := &client{t: t, router: router}
	rec = other.do(http.MethodPost, "/signup", gin.H{"username": "alice", "password": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "DUPLICATE_USERNAME", jsonBody(t, rec)["code"])

	rec = other.do(http.MethodPost, "/login", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = other.do(http.MethodGet, "/check_session", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = other.do(http.MethodPost, "/login", gin.H{"username": "alice", "password": "pw1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", jsonBody(t, rec)["username"])

	rec = other.do(http.MethodDelete, "/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = other.do(http.MethodGet, "/check_session", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// 別クライアントのログアウトは alice のセッションに影響しない
	rec = alice.do(http.MethodGet, "/check_session", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecipeFlow(t *testing.T) {
	router := newTestServer(t, newTestConfig())
	alice := &client{t: t, router: router}
	anonymous := &client{t: t, router: router}

	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/signup", gin.H{"username": "alice", "password": "pw1"}).Code)

	toast := gin.H{"title": "Toast", "instructions": "Toast the bread.", "minutes_to_complete": 5}
	assert.Equal(t, http.StatusUnauthorized, anonymous.do(http.MethodPost, "/recipes", toast).Code)
	assert.Equal(t, http.StatusUnauthorized, anonymous.do(http.MethodGet, "/recipes", nil).Code)

	rec := alice.do(http.MethodPost, "/recipes", toast)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"id": 1,
		"title": "Toast",
		"instructions": "Toast the bread.",
		"minutes_to_complete": 5,
		"is_member_only": false,
		"user": {"id": 1, "username": "alice", "image_url": "", "bio": ""}
	}`, rec.Body.String())

	rec = alice.do(http.MethodGet, "/recipes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Toast", list[0]["title"])

	// ID 指定の操作はデフォルトではログイン不要
	rec = anonymous.do(http.MethodGet, "/recipes/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", jsonBody(t, rec)["user"].(map[string]any)["username"])

	rec = anonymous.do(http.MethodPut, "/recipes/1", gin.H{"title": "Jam toast", "instructions": "Toast, then jam.", "minutes_to_complete": 6})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Jam toast", jsonBody(t, rec)["title"])

	rec = alice.do(http.MethodPost, "/recipes", gin.H{"title": "", "instructions": "x", "minutes_to_complete": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = anonymous.do(http.MethodDelete, "/recipes/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, anonymous.do(http.MethodGet, "/recipes/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, anonymous.do(http.MethodDelete, "/recipes/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, anonymous.do(http.MethodGet, "/recipes/abc", nil).Code)
}

func TestRecipeByIDRequireLogin(t *testing.T) {
	cfg := newTestConfig()
	cfg.RecipeByIDRequireLogin = true
	cfg.RecipeEnforceOwnership = true
	router := newTestServer(t, cfg)

	alice := &client{t: t, router: router}
	bob := &client{t: t, router: router}
	anonymous := &client{t: t, router: router}
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/signup", gin.H{"username": "alice", "password": "pw1"}).Code)
	require.Equal(t, http.StatusCreated, bob.do(http.MethodPost, "/signup", gin.H{"username": "bob", "password": "pw2"}).Code)
	require.Equal(t, http.StatusCreated, alice.do(http.MethodPost, "/recipes", gin.H{"title": "Toast", "instructions": "Toast the bread.", "minutes_to_complete": 5}).Code)

	assert.Equal(t, http.StatusUnauthorized, anonymous.do(http.MethodGet, "/recipes/1", nil).Code)
	assert.Equal(t, http.StatusOK, bob.do(http.MethodGet, "/recipes/1", nil).Code)
	assert.Equal(t, http.StatusForbidden, bob.do(http.MethodDelete, "/recipes/1", nil).Code)
	assert.Equal(t, http.StatusNoContent, alice.do(http.MethodDelete, "/recipes/1", nil).Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestServer(t, newTestConfig())

	req := httptest.NewRequest(http.MethodOptions, "/recipes", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
