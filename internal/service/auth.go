package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/templui/portfolio/internal/apperr"
	"github.com/templui/portfolio/internal/model"
	"github.com/templui/portfolio/internal/repository"
	"github.com/templui/portfolio/internal/validation"
)

// AuthResult is returned by signup and signin.
type AuthResult struct {
	Token        string            `json:"token"`
	RefreshToken string            `json:"refreshToken"`
	User         *model.PublicUser `json:"user"`
}

type TokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type AuthConfig struct {
	FrontendURL string
	// RevealUnknownEmail makes forgot-password answer 404 for unknown
	// addresses instead of the uniform success response.
	RevealUnknownEmail bool
	ResetTokenExpiry   time.Duration
}

type AuthService struct {
	users  repository.UserRepository
	hasher *PasswordHasher
	tokens *TokenService
	resets *ResetTokens
	mailer Mailer
	cfg    AuthConfig

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	users repository.UserRepository,
	hasher *PasswordHasher,
	tokens *TokenService,
	resets *ResetTokens,
	mailer Mailer,
	cfg AuthConfig,
) *AuthService {
	cfg.FrontendURL = strings.TrimSuffix(cfg.FrontendURL, "/")
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		resets: resets,
		mailer: mailer,
		cfg:    cfg,
	}
}

func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = validation.NormalizeEmail(email)

	err := validation.ValidateName(name)
	if err != nil {
		return nil, invalid(err)
	}
	err = validation.ValidateEmail(email)
	if err != nil {
		return nil, invalid(err)
	}
	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, invalid(err)
	}

	_, err = s.users.ByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Avatar:       model.DefaultAvatar,
	}
	err = s.users.Create(ctx, user)
	if err != nil {
		// Lost a race with a concurrent signup for the same email
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user signed up", "user_id", user.ID)
	return s.startSession(ctx, user)
}

func (s *AuthService) Signin(ctx context.Context, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	email = validation.NormalizeEmail(email)

	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Spend the same bcrypt time as a real mismatch
			s.hasher.Verify(password, s.fakeHash())
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	slog.Info("user signed in", "user_id", user.ID)
	return s.startSession(ctx, user)
}

func (s *AuthService) Me(ctx context.Context, id model.ID) (*model.PublicUser, error) {
	user, err := s.users.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user.Public(), nil
}

// ForgotPassword stores a reset token digest and emails the plaintext link.
// Unknown addresses get the same response as known ones unless
// RevealUnknownEmail is set.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	err := validation.ValidateEmail(email)
	if err != nil {
		return invalid(err)
	}

	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			if s.cfg.RevealUnknownEmail {
				return ErrUserNotFound
			}
			slog.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	plaintext, hash, expiresAt, err := s.resets.Generate()
	if err != nil {
		return err
	}

	err = s.users.SetResetToken(ctx, user.ID, hash, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.FrontendURL, url.QueryEscape(plaintext))
	err = s.mailer.SendPasswordResetEmail(ctx, user.Email, user.Name, resetURL, s.cfg.ResetTokenExpiry)
	if err != nil {
		slog.Error("failed to send password reset email", "error", err, "user_id", user.ID)

		clearErr := s.users.ClearResetToken(ctx, user.ID)
		if clearErr != nil {
			slog.Error("failed to clear reset token after email failure", "error", clearErr, "user_id", user.ID)
		}
		return apperr.Wrap(apperr.KindInternal, "Email could not be sent", err)
	}

	slog.Info("password reset email sent", "user_id", user.ID)
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	err := validation.ValidatePassword(password)
	if err != nil {
		return invalid(err)
	}

	user, err := s.resets.Consume(ctx, token)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	err = s.users.CompleteReset(ctx, user.ID, HashResetToken(token), hash, s.resets.now())
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	slog.Info("password reset completed", "user_id", user.ID)
	return nil
}

// ChangePassword requires the current password. Other sessions keep working
// until their access tokens expire.
func (s *AuthService) ChangePassword(ctx context.Context, id model.ID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apperr.Validation("Current and new password are required")
	}

	user, err := s.users.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return ErrInvalidCurrentPassword
	}

	err = validation.ValidatePassword(newPassword)
	if err != nil {
		return invalid(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	err = s.users.Update(ctx, user, model.ChangePassword(hash))
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password changed", "user_id", user.ID)
	return nil
}

// Refresh exchanges the current refresh token for a new pair. The presented
// token must match the stored one exactly, and is replaced on every use.
// Two concurrent exchanges of the same token can both succeed; the later
// write wins and the earlier pair's refresh token stops working.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	id, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		slog.Debug("refresh token rejected", "error", err)
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.RefreshToken == nil || subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
		slog.Debug("refresh token does not match stored token", "user_id", user.ID)
		return nil, ErrInvalidRefreshToken
	}

	result, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Token: result.Token, RefreshToken: result.RefreshToken}, nil
}

// VerifyAccess is the token check used by the protected-route gate.
func (s *AuthService) VerifyAccess(token string) (*model.Claims, error) {
	return s.tokens.VerifyAccess(token)
}

// startSession issues an access token and rotates the stored refresh token.
func (s *AuthService) startSession(ctx context.Context, user *model.User) (*AuthResult, error) {
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}

	err = s.users.SetRefreshToken(ctx, user.ID, &refresh)
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	user.RefreshToken = &refresh

	return &AuthResult{
		Token:        access,
		RefreshToken: refresh,
		User:         user.Public(),
	}, nil
}

func (s *AuthService) fakeHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("not-a-real-password")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
