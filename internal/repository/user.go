package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/portfolio/internal/model"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrResetTokenNotFound = errors.New("reset token not found or expired")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id model.ID) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByResetTokenHash(ctx context.Context, hash string, now time.Time) (*model.User, error)
	Update(ctx context.Context, user *model.User, password model.PasswordUpdate) error
	SetResetToken(ctx context.Context, id model.ID, hash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id model.ID) error
	CompleteReset(ctx context.Context, id model.ID, tokenHash, passwordHash string, now time.Time) error
	SetRefreshToken(ctx context.Context, id model.ID, token *string) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt
	if user.Avatar == "" {
		user.Avatar = model.DefaultAvatar
	}

	query := `INSERT INTO users (email, password_hash, name, avatar, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	err := r.db.GetContext(ctx, &user.ID, query,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Avatar,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	return nil
}

func (r *userRepository) ByID(ctx context.Context, id model.ID) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE email = $1`

	err := r.db.GetContext(ctx, user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ByResetTokenHash finds the user holding an unexpired reset token.
func (r *userRepository) ByResetTokenHash(ctx context.Context, hash string, now time.Time) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE reset_token_hash = $1 AND reset_token_expires_at > $2`

	err := r.db.GetContext(ctx, user, query, hash, now.UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResetTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Update writes the profile columns. The password column is only touched when
// the caller passes model.ChangePassword.
func (r *userRepository) Update(ctx context.Context, user *model.User, password model.PasswordUpdate) error {
	user.UpdatedAt = time.Now().UTC()

	query := `UPDATE users
	          SET email = $1, name = $2, title = $3, avatar = $4, cover_image = $5, bio = $6,
	              location = $7, website = $8, github = $9, linkedin = $10, twitter = $11, updated_at = $12
	          WHERE id = $13`
	args := []any{
		user.Email,
		user.Name,
		user.Title,
		user.Avatar,
		user.CoverImage,
		user.Bio,
		user.Location,
		user.Website,
		user.Github,
		user.Linkedin,
		user.Twitter,
		user.UpdatedAt,
		user.ID,
	}

	if password.Changed() {
		query = `UPDATE users
		         SET email = $1, name = $2, title = $3, avatar = $4, cover_image = $5, bio = $6,
		             location = $7, website = $8, github = $9, linkedin = $10, twitter = $11, updated_at = $12,
		             password_hash = $14
		         WHERE id = $13`
		args = append(args, password.Hash())
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	err = expectOneRow(result, ErrUserNotFound)
	if err != nil {
		return err
	}

	if password.Changed() {
		user.PasswordHash = password.Hash()
	}
	return nil
}

func (r *userRepository) SetResetToken(ctx context.Context, id model.ID, hash string, expiresAt time.Time) error {
	query := `UPDATE users SET reset_token_hash = $1, reset_token_expires_at = $2, updated_at = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, hash, expiresAt.UTC(), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOneRow(result, ErrUserNotFound)
}

func (r *userRepository) ClearResetToken(ctx context.Context, id model.ID) error {
	query := `UPDATE users SET reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = $1 WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	return err
}

// CompleteReset atomically sets the new password and clears the reset token.
// The WHERE clause re-checks the digest and expiry, so only one of several
// concurrent requests presenting the same token can succeed. The stored
// refresh token is cleared as well.
func (r *userRepository) CompleteReset(ctx context.Context, id model.ID, tokenHash, passwordHash string, now time.Time) error {
	query := `
		UPDATE users
		SET password_hash = $1,
		    reset_token_hash = NULL,
		    reset_token_expires_at = NULL,
		    refresh_token = NULL,
		    updated_at = $2
		WHERE id = $3
		AND reset_token_hash = $4
		AND reset_token_expires_at > $2
	`

	result, err := r.db.ExecContext(ctx, query, passwordHash, now.UTC(), id, tokenHash)
	if err != nil {
		return err
	}
	return expectOneRow(result, ErrResetTokenNotFound)
}

// SetRefreshToken overwrites the stored refresh token. nil clears it.
func (r *userRepository) SetRefreshToken(ctx context.Context, id model.ID, token *string) error {
	query := `UPDATE users SET refresh_token = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, token, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, ErrUserNotFound)
}

// isUniqueViolation works for both SQLite and PostgreSQL
func isUniqueViolation(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value")
}

func expectOneRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
