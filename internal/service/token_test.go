package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/portfolio/internal/model"
	"golang.org/x/crypto/bcrypt"
)

func testUser() *model.User {
	return &model.User{ID: 7, Email: "ada@example.com", Name: "Ada", Avatar: model.DefaultAvatar}
}

func TestTokenService_AccessRoundTrip(t *testing.T) {
	ts := NewTokenService("access", "refresh", time.Hour, 24*time.Hour)

	token, err := ts.IssueAccess(testUser())
	require.NoError(t, err)

	claims, err := ts.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, model.ID(7), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, model.TokenTypeAccess, claims.TokenType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenService_Expired(t *testing.T) {
	ts := NewTokenService("access", "refresh", time.Hour, 24*time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	ts.now = func() time.Time { return issued }

	token, err := ts.IssueAccess(testUser())
	require.NoError(t, err)

	ts.now = time.Now
	_, err = ts.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_BadSignature(t *testing.T) {
	issuer := NewTokenService("access", "refresh", time.Hour, time.Hour)
	verifier := NewTokenService("other-access", "other-refresh", time.Hour, time.Hour)

	token, err := issuer.IssueAccess(testUser())
	require.NoError(t, err)

	_, err = verifier.VerifyAccess(token)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestTokenService_TamperedPayload(t *testing.T) {
	ts := NewTokenService("access", "refresh", time.Hour, time.Hour)

	token, err := ts.IssueAccess(testUser())
	require.NoError(t, err)
	other := testUser()
	other.ID = 8
	forged, err := ts.IssueAccess(other)
	require.NoError(t, err)

	// Header and signature from one token, claims from another
	a := strings.Split(token, ".")
	b := strings.Split(forged, ".")
	tampered := strings.Join([]string{a[0], b[1], a[2]}, ".")

	_, err = ts.VerifyAccess(tampered)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestTokenService_Malformed(t *testing.T) {
	ts := NewTokenService("access", "refresh", time.Hour, time.Hour)

	for _, token := range []string{"", "not.a.jwt", "abc"} {
		_, err := ts.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrTokenMalformed, token)
	}
}

func TestTokenService_RejectsNoneAlgorithm(t *testing.T) {
	ts := NewTokenService("access", "refresh", time.Hour, time.Hour)

	claims := &model.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           7,
		TokenType:        model.TokenTypeAccess,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ts.VerifyAccess(token)
	assert.Error(t, err)
}

func TestTokenService_TypesAreNotInterchangeable(t *testing.T) {
	// Same secret for both kinds so only the type claim tells them apart
	ts := NewTokenService("shared", "shared", time.Hour, time.Hour)

	access, err := ts.IssueAccess(testUser())
	require.NoError(t, err)
	refresh, err := ts.IssueRefresh(7)
	require.NoError(t, err)

	_, err = ts.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrTokenWrongType)
	_, err = ts.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrTokenWrongType)
}

func TestTokenService_RefreshTokensAreUnique(t *testing.T) {
	ts := NewTokenService("access", "refresh", time.Hour, time.Hour)

	first, err := ts.IssueRefresh(7)
	require.NoError(t, err)
	second, err := ts.IssueRefresh(7)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	id, err := ts.VerifyRefresh(second)
	require.NoError(t, err)
	assert.Equal(t, model.ID(7), id)
}

func TestTokenService_SecretsAreSeparate(t *testing.T) {
	ts := NewTokenService("access", "refresh", time.Hour, time.Hour)

	refresh, err := ts.IssueRefresh(7)
	require.NoError(t, err)

	_, err = ts.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
}

func TestPasswordHasher(t *testing.T) {
	h := &PasswordHasher{cost: bcrypt.MinCost}

	first, err := h.Hash("correct-horse-42")
	require.NoError(t, err)
	second, err := h.Hash("correct-horse-42")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "salt must differ per hash")
	assert.True(t, h.Verify("correct-horse-42", first))
	assert.True(t, h.Verify("correct-horse-42", second))
	assert.False(t, h.Verify("wrong-password", first))
	assert.False(t, h.Verify("correct-horse-42", "not-a-hash"))
}

func TestNewPasswordHasher_MinimumCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(4).cost)
	assert.Equal(t, 12, NewPasswordHasher(12).cost)
}
