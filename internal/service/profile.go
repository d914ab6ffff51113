package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/templui/portfolio/internal/model"
	"github.com/templui/portfolio/internal/repository"
	"github.com/templui/portfolio/internal/validation"
)

// ProfileUploads are optional image files sent with a profile update.
type ProfileUploads struct {
	Avatar     *multipart.FileHeader
	CoverImage *multipart.FileHeader
}

type ProfileService struct {
	users repository.UserRepository
	files *FileService
}

func NewProfileService(users repository.UserRepository, files *FileService) *ProfileService {
	return &ProfileService{
		users: users,
		files: files,
	}
}

// UpdateProfile merges the present fields into the stored user. The password
// hash is never touched here.
func (s *ProfileService) UpdateProfile(ctx context.Context, id model.ID, update model.ProfileUpdate, uploads ProfileUploads) (*model.PublicUser, error) {
	user, err := s.users.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = s.normalize(ctx, user, &update)
	if err != nil {
		return nil, err
	}

	oldAvatar := user.Avatar
	oldCover := ""
	if user.CoverImage != nil {
		oldCover = *user.CoverImage
	}

	var uploaded []string
	if uploads.Avatar != nil {
		file, err := s.files.Upload(ctx, user.ID, model.FileKindAvatar, uploads.Avatar)
		if err != nil {
			return nil, err
		}
		update.Avatar = &file.StoragePath
		uploaded = append(uploaded, file.StoragePath)
	}
	if uploads.CoverImage != nil {
		file, err := s.files.Upload(ctx, user.ID, model.FileKindCoverImage, uploads.CoverImage)
		if err != nil {
			s.discard(ctx, uploaded)
			return nil, err
		}
		update.CoverImage = &file.StoragePath
		uploaded = append(uploaded, file.StoragePath)
	}

	update.Apply(user)

	err = s.users.Update(ctx, user, model.KeepPassword())
	if err != nil {
		s.discard(ctx, uploaded)
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if update.Avatar != nil {
		s.files.Replace(ctx, oldAvatar, user.Avatar)
	}
	if update.CoverImage != nil && oldCover != "" {
		s.files.Replace(ctx, oldCover, *update.CoverImage)
	}

	slog.Info("profile updated", "user_id", user.ID)
	return user.Public(), nil
}

// normalize trims and validates the text fields of an update in place.
func (s *ProfileService) normalize(ctx context.Context, user *model.User, update *model.ProfileUpdate) error {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		err := validation.ValidateName(name)
		if err != nil {
			return invalid(err)
		}
		update.Name = &name
	}

	if update.Email != nil {
		email := validation.NormalizeEmail(*update.Email)
		err := validation.ValidateEmail(email)
		if err != nil {
			return invalid(err)
		}
		if email != user.Email {
			_, err = s.users.ByEmail(ctx, email)
			if err == nil {
				return ErrEmailTaken
			}
			if !errors.Is(err, repository.ErrUserNotFound) {
				return fmt.Errorf("failed to check email: %w", err)
			}
		}
		update.Email = &email
	}

	if update.Website != nil {
		website := strings.TrimSpace(*update.Website)
		if website != "" {
			err := validation.ValidateURL("website", website)
			if err != nil {
				return invalid(err)
			}
		}
		update.Website = &website
	}

	fields := []struct {
		name  string
		value **string
		max   int
	}{
		{"title", &update.Title, 100},
		{"bio", &update.Bio, 1000},
		{"location", &update.Location, 100},
		{"github", &update.Github, 255},
		{"linkedin", &update.Linkedin, 255},
		{"twitter", &update.Twitter, 255},
	}
	for _, f := range fields {
		if *f.value == nil {
			continue
		}
		v := strings.TrimSpace(**f.value)
		err := validation.ValidateLength(f.name, v, 0, f.max)
		if err != nil {
			return invalid(err)
		}
		*f.value = &v
	}

	return nil
}

func (s *ProfileService) discard(ctx context.Context, refs []string) {
	for _, ref := range refs {
		err := s.files.Remove(ctx, ref)
		if err != nil {
			slog.Warn("failed to discard upload", "error", err, "path", ref)
		}
	}
}
