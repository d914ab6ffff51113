package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/portfolio/internal/apperr"
	"github.com/templui/portfolio/internal/model"
)

func strPtr(s string) *string {
	return &s
}

func TestProfileService_PartialUpdateKeepsPasswordHash(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, AuthConfig{})
	id := env.signup(t, "Ada", "ada@example.com").User.ID

	before, err := env.users.ByID(ctx, id)
	require.NoError(t, err)

	user, err := env.profile.UpdateProfile(ctx, id, model.ProfileUpdate{
		Bio:      strPtr("  Analytical engines  "),
		Location: strPtr("London"),
	}, ProfileUploads{})
	require.NoError(t, err)
	assert.Equal(t, "Analytical engines", user.Bio)
	assert.Equal(t, "London", user.Location)
	assert.Equal(t, "Ada", user.Name)

	after, err := env.users.ByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)

	_, err = env.auth.Signin(ctx, "ada@example.com", "correct-horse-42")
	require.NoError(t, err)
}

func TestProfileService_ClearOptionalField(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, AuthConfig{})
	id := env.signup(t, "Ada", "ada@example.com").User.ID

	_, err := env.profile.UpdateProfile(ctx, id, model.ProfileUpdate{Website: strPtr("https://ada.dev")}, ProfileUploads{})
	require.NoError(t, err)

	user, err := env.profile.UpdateProfile(ctx, id, model.ProfileUpdate{Website: strPtr("")}, ProfileUploads{})
	require.NoError(t, err)
	assert.Empty(t, user.Website)
}

func TestProfileService_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, AuthConfig{})
	id := env.signup(t, "Ada", "ada@example.com").User.ID
	env.signup(t, "Grace", "grace@example.com")

	tests := []struct {
		name   string
		update model.ProfileUpdate
		want   error
	}{
		{"blank name", model.ProfileUpdate{Name: strPtr("  ")}, nil},
		{"bad email", model.ProfileUpdate{Email: strPtr("nope")}, nil},
		{"bad website", model.ProfileUpdate{Website: strPtr("ftp://ada.dev")}, nil},
		{"long title", model.ProfileUpdate{Title: strPtr(strings.Repeat("x", 101))}, nil},
		{"taken email", model.ProfileUpdate{Email: strPtr("GRACE@example.com")}, ErrEmailTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.profile.UpdateProfile(ctx, id, tt.update, ProfileUploads{})
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Equal(t, 400, apperr.KindOf(err).Status())
		})
	}
}

func TestProfileService_UnknownUser(t *testing.T) {
	env := newTestEnv(t, AuthConfig{})
	_, err := env.profile.UpdateProfile(context.Background(), 404, model.ProfileUpdate{Name: strPtr("Ghost")}, ProfileUploads{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestProfileService_AvatarUploadReplacesOld(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, AuthConfig{})
	id := env.signup(t, "Ada", "ada@example.com").User.ID

	first, err := env.profile.UpdateProfile(ctx, id, model.ProfileUpdate{}, ProfileUploads{
		Avatar: fileHeader(t, "avatar", "me.png", pngBytes),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.Avatar, "avatars/"), first.Avatar)
	assert.FileExists(t, filepath.Join(env.storage.Root(), first.Avatar))

	second, err := env.profile.UpdateProfile(ctx, id, model.ProfileUpdate{}, ProfileUploads{
		Avatar:     fileHeader(t, "avatar", "me2.png", pngBytes),
		CoverImage: fileHeader(t, "coverImage", "cover.png", pngBytes),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.Avatar, second.Avatar)
	assert.True(t, strings.HasPrefix(second.CoverImage, "cover_images/"), second.CoverImage)

	_, err = os.Stat(filepath.Join(env.storage.Root(), first.Avatar))
	assert.True(t, os.IsNotExist(err), "old avatar should be removed")

	files, err := env.files.AllUserFiles(ctx, id)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestProfileService_RejectsNonImage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, AuthConfig{})
	id := env.signup(t, "Ada", "ada@example.com").User.ID

	_, err := env.profile.UpdateProfile(ctx, id, model.ProfileUpdate{}, ProfileUploads{
		Avatar: fileHeader(t, "avatar", "me.png", []byte("#!/bin/sh\necho pwned\n")),
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	user, err := env.auth.Me(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultAvatar, user.Avatar)
}
