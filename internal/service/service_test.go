package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/templui/portfolio/internal/db/dbtest"
	"github.com/templui/portfolio/internal/markdown"
	"github.com/templui/portfolio/internal/repository"
	"github.com/templui/portfolio/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

type sentEmail struct {
	to        string
	name      string
	resetURL  string
	expiresIn time.Duration
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (m *fakeMailer) SendPasswordResetEmail(_ context.Context, to, name, resetURL string, expiresIn time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to: to, name: name, resetURL: resetURL, expiresIn: expiresIn})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentEmail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email was sent")
	return m.sent[len(m.sent)-1]
}

type testEnv struct {
	users     repository.UserRepository
	projects  repository.ProjectRepository
	files     repository.FileRepository
	storage   *storage.LocalStorage
	tokens    *TokenService
	resets    *ResetTokens
	mailer    *fakeMailer
	auth      *AuthService
	profile   *ProfileService
	project   *ProjectService
	portfolio *PortfolioService
}

func newTestEnv(t *testing.T, cfg AuthConfig) *testEnv {
	t.Helper()

	database := dbtest.New(t)
	users := repository.NewUserRepository(database)
	projects := repository.NewProjectRepository(database)
	files := repository.NewFileRepository(database)

	store, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)

	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:3000"
	}
	if cfg.ResetTokenExpiry == 0 {
		cfg.ResetTokenExpiry = 10 * time.Minute
	}

	hasher := &PasswordHasher{cost: bcrypt.MinCost}
	tokens := NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	resets := NewResetTokens(users, cfg.ResetTokenExpiry)
	mailer := &fakeMailer{}
	fileService := NewFileService(files, store)
	md := markdown.NewParser()

	return &testEnv{
		users:     users,
		projects:  projects,
		files:     files,
		storage:   store,
		tokens:    tokens,
		resets:    resets,
		mailer:    mailer,
		auth:      NewAuthService(users, hasher, tokens, resets, mailer, cfg),
		profile:   NewProfileService(users, fileService),
		project:   NewProjectService(projects, fileService, md),
		portfolio: NewPortfolioService(users, projects, fileService, md),
	}
}

func (e *testEnv) signup(t *testing.T, name, email string) *AuthResult {
	t.Helper()
	result, err := e.auth.Signup(context.Background(), name, email, "correct-horse-42")
	require.NoError(t, err)
	return result
}

// resetToken pulls the plaintext token out of the last reset email.
func (e *testEnv) resetToken(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(e.mailer.last(t).resetURL)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func fileHeader(t *testing.T, field, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File[field][0]
}
