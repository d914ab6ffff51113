package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/portfolio/internal/app"
	"github.com/templui/portfolio/internal/config"
	"github.com/templui/portfolio/internal/db/dbtest"
	"github.com/templui/portfolio/internal/markdown"
	"github.com/templui/portfolio/internal/repository"
	"github.com/templui/portfolio/internal/service"
	"github.com/templui/portfolio/internal/storage"
)

type captureMailer struct {
	mu   sync.Mutex
	urls []string
}

func (m *captureMailer) SendPasswordResetEmail(_ context.Context, _, _, resetURL string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, resetURL)
	return nil
}

func (m *captureMailer) token(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.urls)
	u, err := url.Parse(m.urls[len(m.urls)-1])
	require.NoError(t, err)
	return u.Query().Get("token")
}

type testServer struct {
	*httptest.Server
	mailer *captureMailer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		AppName:     "Portfolio",
		AppEnv:      "test",
		FrontendURL: "http://localhost:3000",
		UploadURL:   "/uploads",
	}

	database := dbtest.New(t)
	users := repository.NewUserRepository(database)
	projects := repository.NewProjectRepository(database)
	store, err := storage.NewLocalStorage(t.TempDir(), cfg.UploadURL)
	require.NoError(t, err)

	mailer := &captureMailer{}
	files := service.NewFileService(repository.NewFileRepository(database), store)
	md := markdown.NewParser()

	a := &app.App{
		Cfg:     cfg,
		DB:      database,
		Storage: store,
		AuthService: service.NewAuthService(
			users,
			service.NewPasswordHasher(10),
			service.NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour),
			service.NewResetTokens(users, 10*time.Minute),
			mailer,
			service.AuthConfig{FrontendURL: cfg.FrontendURL, ResetTokenExpiry: 10 * time.Minute},
		),
		ProfileService:   service.NewProfileService(users, files),
		ProjectService:   service.NewProjectService(projects, files, md),
		PortfolioService: service.NewPortfolioService(users, projects, files, md),
	}

	srv := httptest.NewServer(SetupRoutes(a))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, mailer: mailer}
}

type response struct {
	status int
	body   map[string]any
	raw    []byte
}

func (s *testServer) do(t *testing.T, method, path, token, contentType string, body io.Reader) response {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := response{status: resp.StatusCode, raw: raw}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func (s *testServer) json(t *testing.T, method, path, token string, payload any) response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return s.do(t, method, path, token, "application/json", body)
}

func (s *testServer) signup(t *testing.T, name, email string) (token, refresh string, id float64) {
	t.Helper()
	resp := s.json(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": name, "email": email, "password": "correct-horse-42",
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
	user := resp.body["user"].(map[string]any)
	return resp.body["token"].(string), resp.body["refreshToken"].(string), user["id"].(float64)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token, refresh, _ := s.signup(t, "Ada", "ada@example.com")

	// Duplicate signup
	resp := s.json(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "correct-horse-42",
	})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Email already registered", resp.body["message"])
	assert.Equal(t, false, resp.body["success"])

	// Me
	resp = s.json(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	user := resp.body["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, string(resp.raw), "password")
	assert.NotContains(t, string(resp.raw), "refresh")

	// Signin failures
	resp = s.json(t, http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "ada@example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Please provide email and password", resp.body["message"])

	resp = s.json(t, http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "ada@example.com", "password": "nope-nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, "Invalid credentials", resp.body["message"])

	// Refresh rotation
	resp = s.json(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, resp.status)
	assert.NotEqual(t, refresh, resp.body["refreshToken"])

	resp = s.json(t, http.MethodPost, "/api/auth/refresh-token", "", map[string]string{"refreshToken": refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	// Change password with the wrong current password must not look like a dead session
	resp = s.json(t, http.MethodPut, "/api/auth/password", token, map[string]string{
		"currentPassword": "wrong-one-1", "newPassword": "brand-new-pass-7",
	})
	assert.Equal(t, http.StatusBadRequest, resp.status)
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	s := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth/me"},
		{http.MethodPut, "/api/auth/profile"},
		{http.MethodPut, "/api/auth/password"},
		{http.MethodPost, "/api/projects"},
		{http.MethodPost, "/api/projects/import"},
		{http.MethodPut, "/api/projects/1"},
		{http.MethodDelete, "/api/projects/1"},
		{http.MethodPut, "/api/portfolio"},
	} {
		resp := s.json(t, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.status, route.path)
		assert.Equal(t, "Not authorized to access this route", resp.body["message"], route.path)
	}

	resp := s.json(t, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestPasswordReset(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "Ada", "ada@example.com")

	resp := s.json(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ada@example.com"})
	require.Equal(t, http.StatusOK, resp.status)

	// Unknown addresses get the same answer
	unknown := s.json(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, resp.status, unknown.status)
	assert.Equal(t, resp.body, unknown.body)

	token := s.mailer.token(t)
	resp = s.json(t, http.MethodPost, "/api/auth/reset-password/"+token, "", map[string]string{"password": "brand-new-pass-7"})
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
	assert.Equal(t, "Password reset successful", resp.body["message"])

	resp = s.json(t, http.MethodPost, "/api/auth/reset-password/"+token, "", map[string]string{"password": "brand-new-pass-8"})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Invalid or expired token", resp.body["message"])

	resp = s.json(t, http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "ada@example.com", "password": "brand-new-pass-7"})
	assert.Equal(t, http.StatusOK, resp.status)
}

func TestProjects(t *testing.T) {
	s := newTestServer(t)
	owner, _, ownerID := s.signup(t, "Ada", "ada@example.com")
	other, _, _ := s.signup(t, "Grace", "grace@example.com")

	resp := s.json(t, http.MethodPost, "/api/projects", owner, map[string]any{
		"title":        "Engine",
		"description":  "Computes *things*",
		"technologies": "go, sqlite, ",
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
	project := resp.body["data"].(map[string]any)
	assert.Equal(t, []any{"go", "sqlite"}, project["technologies"])
	id := fmt.Sprint(project["id"])

	resp = s.json(t, http.MethodGet, "/api/projects", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, float64(1), resp.body["count"])
	listed := resp.body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "Ada", listed["user"].(map[string]any)["name"])

	resp = s.json(t, http.MethodPut, "/api/projects/"+id, other, map[string]any{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = s.json(t, http.MethodDelete, "/api/projects/"+id, other, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = s.json(t, http.MethodPut, "/api/projects/"+id, owner, map[string]any{"technologies": []string{"go"}})
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "Engine", resp.body["data"].(map[string]any)["title"])

	resp = s.json(t, http.MethodGet, "/api/projects/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.status)

	resp = s.json(t, http.MethodGet, fmt.Sprintf("/api/portfolio/%d", int64(ownerID)), "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	data := resp.body["data"].(map[string]any)
	projects := data["projects"].([]any)
	require.Len(t, projects, 1)
	assert.Contains(t, projects[0].(map[string]any)["descriptionHtml"], "<em>things</em>")

	resp = s.json(t, http.MethodDelete, "/api/projects/"+id, owner, nil)
	assert.Equal(t, http.StatusOK, resp.status)

	resp = s.json(t, http.MethodGet, "/api/projects/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
}

func TestProjectImport(t *testing.T) {
	s := newTestServer(t)
	token, _, _ := s.signup(t, "Ada", "ada@example.com")

	doc := "---\ntitle: Engine\ntechnologies: [go, sqlite]\n---\nA machine.\n"
	resp := s.do(t, http.MethodPost, "/api/projects/import", token, "text/markdown", strings.NewReader(doc))
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
	assert.Equal(t, "Engine", resp.body["data"].(map[string]any)["title"])
}

func TestProfileUploadIsServed(t *testing.T) {
	s := newTestServer(t)
	token, _, _ := s.signup(t, "Ada", "ada@example.com")

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{1}, 32)...)
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("bio", "Analytical engines"))
	part, err := w.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = part.Write(png)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp := s.do(t, http.MethodPut, "/api/auth/profile", token, w.FormDataContentType(), &body)
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
	user := resp.body["user"].(map[string]any)
	assert.Equal(t, "Analytical engines", user["bio"])
	avatar := user["avatar"].(string)
	require.True(t, strings.HasPrefix(avatar, "avatars/"), avatar)

	served := s.do(t, http.MethodGet, "/uploads/"+avatar, "", "", nil)
	assert.Equal(t, http.StatusOK, served.status)
	assert.Equal(t, png, served.raw)

	listing := s.do(t, http.MethodGet, "/uploads/avatars/", "", "", nil)
	assert.Equal(t, http.StatusNotFound, listing.status)

	portfolio := s.json(t, http.MethodGet, fmt.Sprintf("/api/portfolio/%v", user["id"]), "", nil)
	require.Equal(t, http.StatusOK, portfolio.status)
	assert.Equal(t, "/uploads/"+avatar, portfolio.body["data"].(map[string]any)["avatarUrl"])
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	resp := s.json(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "ok", resp.body["status"])
}
