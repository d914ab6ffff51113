package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/templui/portfolio/internal/model"
)

// authEndpoints answer 401 for bad credentials rather than a dead session,
// so a 401 from them must not clear the stored token.
var authEndpoints = []string{
	"/api/auth/signin",
	"/api/auth/signup",
	"/api/auth/forgot-password",
	"/api/auth/reset-password",
	"/api/auth/refresh-token",
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: status %d", e.Status)
	}
	return e.Message
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// API is an HTTP client for the portfolio backend. It attaches the stored
// bearer token to every request.
type API struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenStore
	onUnauthorized func()
}

func NewAPI(baseURL string, tokens TokenStore) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		tokens: tokens,
	}
}

// OnUnauthorized registers the hook run after a 401 from a non-auth endpoint
// has cleared the stored token. It must be set before the API is used.
func (a *API) OnUnauthorized(fn func()) {
	a.onUnauthorized = fn
}

// AuthResponse is the body of signin and signup.
type AuthResponse struct {
	Token        string            `json:"token"`
	RefreshToken string            `json:"refreshToken"`
	User         *model.PublicUser `json:"user"`
}

func (a *API) Signin(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := a.postJSON(ctx, "/api/auth/signin", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Signup(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := a.postJSON(ctx, "/api/auth/signup", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Me(ctx context.Context) (*model.PublicUser, error) {
	var out struct {
		User *model.PublicUser `json:"user"`
	}
	err := a.do(ctx, http.MethodGet, "/api/auth/me", nil, "", &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

// ProfileForm is a partial profile update. Avatar and CoverImage are local
// file paths; when either is set the request is sent as multipart.
type ProfileForm struct {
	model.ProfileUpdate
	Avatar     string
	CoverImage string
}

func (a *API) UpdateProfile(ctx context.Context, form ProfileForm) (*model.PublicUser, error) {
	var out struct {
		User *model.PublicUser `json:"user"`
	}

	if form.Avatar == "" && form.CoverImage == "" {
		err := a.putJSON(ctx, "/api/auth/profile", form.ProfileUpdate, &out)
		if err != nil {
			return nil, err
		}
		return out.User, nil
	}

	body, contentType, err := profileMultipart(form)
	if err != nil {
		return nil, err
	}
	err = a.do(ctx, http.MethodPut, "/api/auth/profile", body, contentType, &out)
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

func (a *API) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return a.putJSON(ctx, "/api/auth/password", map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}, nil)
}

func (a *API) ForgotPassword(ctx context.Context, email string) error {
	return a.postJSON(ctx, "/api/auth/forgot-password", map[string]string{"email": email}, nil)
}

func (a *API) ResetPassword(ctx context.Context, token, password string) error {
	path := "/api/auth/reset-password/" + url.PathEscape(token)
	return a.postJSON(ctx, path, map[string]string{"password": password}, nil)
}

func (a *API) Projects(ctx context.Context) ([]*model.ProjectWithOwner, error) {
	var out struct {
		Data []*model.ProjectWithOwner `json:"data"`
	}
	err := a.do(ctx, http.MethodGet, "/api/projects", nil, "", &out)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (a *API) postJSON(ctx context.Context, path string, in, out any) error {
	return a.sendJSON(ctx, http.MethodPost, path, in, out)
}

func (a *API) putJSON(ctx context.Context, path string, in, out any) error {
	return a.sendJSON(ctx, http.MethodPut, path, in, out)
}

func (a *API) sendJSON(ctx context.Context, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return a.do(ctx, method, path, bytes.NewReader(payload), "application/json", out)
}

func (a *API) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	token, err := a.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &failure)

		if resp.StatusCode == http.StatusUnauthorized && !isAuthEndpoint(path) {
			a.invalidate(ctx)
		}
		return &APIError{Status: resp.StatusCode, Message: failure.Message}
	}

	if out == nil {
		return nil
	}
	err = json.Unmarshal(raw, out)
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// invalidate drops the stored token after the server rejected it. Navigation
// is left to whoever observes the state change.
func (a *API) invalidate(ctx context.Context) {
	err := a.tokens.ClearToken(ctx)
	if err != nil {
		slog.Warn("failed to clear rejected token", "error", err)
	}
	if a.onUnauthorized != nil {
		a.onUnauthorized()
	}
}

func isAuthEndpoint(path string) bool {
	for _, p := range authEndpoints {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func profileMultipart(form ProfileForm) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]*string{
		"name":     form.Name,
		"email":    form.Email,
		"title":    form.Title,
		"bio":      form.Bio,
		"location": form.Location,
		"website":  form.Website,
		"github":   form.Github,
		"linkedin": form.Linkedin,
		"twitter":  form.Twitter,
	}
	for name, v := range fields {
		if v == nil {
			continue
		}
		err := w.WriteField(name, *v)
		if err != nil {
			return nil, "", err
		}
	}

	files := map[string]string{
		"avatar":     form.Avatar,
		"coverImage": form.CoverImage,
	}
	for field, path := range files {
		if path == "" {
			continue
		}
		err := attachFile(w, field, path)
		if err != nil {
			return nil, "", err
		}
	}

	err := w.Close()
	if err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func attachFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", field, err)
	}
	defer func() { _ = f.Close() }()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
