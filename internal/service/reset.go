package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/templui/portfolio/internal/model"
	"github.com/templui/portfolio/internal/repository"
)

const resetTokenBytes = 20

// ResetTokens manages password-reset tokens. Only the SHA-256 digest is
// stored; the plaintext leaves the process once, in the reset email.
type ResetTokens struct {
	users repository.UserRepository
	ttl   time.Duration
	now   func() time.Time
}

func NewResetTokens(users repository.UserRepository, ttl time.Duration) *ResetTokens {
	return &ResetTokens{
		users: users,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Generate returns a fresh plaintext token, its digest and its expiry.
func (r *ResetTokens) Generate() (plaintext, hash string, expiresAt time.Time, err error) {
	buf := make([]byte, resetTokenBytes)
	_, err = rand.Read(buf)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("failed to generate reset token: %w", err)
	}

	plaintext = hex.EncodeToString(buf)
	return plaintext, HashResetToken(plaintext), r.now().Add(r.ttl), nil
}

// HashResetToken is deterministic so a presented token can be looked up.
func HashResetToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Consume finds the user owning an unexpired token. Unknown and expired
// tokens both yield ErrInvalidResetToken. The caller finishes the reset with
// UserRepository.CompleteReset, which re-checks the token atomically.
func (r *ResetTokens) Consume(ctx context.Context, plaintext string) (*model.User, error) {
	if plaintext == "" {
		return nil, ErrInvalidResetToken
	}

	user, err := r.users.ByResetTokenHash(ctx, HashResetToken(plaintext), r.now())
	if errors.Is(err, repository.ErrResetTokenNotFound) {
		return nil, ErrInvalidResetToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up reset token: %w", err)
	}

	return user, nil
}
