package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/portfolio/internal/model"
	"github.com/templui/portfolio/internal/repository"
	"github.com/templui/portfolio/internal/storage"
	"github.com/templui/portfolio/internal/validation"
)

type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
	}
}

// Upload validates an image, stores it under <kind>s/<uuid><ext> and records
// it. The returned file's StoragePath is the value kept on the owning row.
func (s *FileService) Upload(ctx context.Context, userID model.ID, kind string, header *multipart.FileHeader) (*model.File, error) {
	mimeType, err := validation.ValidateFile(header, validation.ImageConstraints)
	if err != nil {
		return nil, invalid(err)
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = src.Close() }()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := uuid.NewString() + ext
	storagePath := path.Join(kind+"s", filename)

	err = s.storage.Save(ctx, storagePath, src)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	file := &model.File{
		ID:           uuid.NewString(),
		UserID:       userID,
		Kind:         kind,
		Filename:     filename,
		OriginalName: filepath.Base(header.Filename),
		MimeType:     mimeType,
		Size:         header.Size,
		StoragePath:  storagePath,
		CreatedAt:    time.Now().UTC(),
	}

	err = s.fileRepo.Create(ctx, file)
	if err != nil {
		delErr := s.storage.Delete(ctx, storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	slog.Debug("file uploaded", "user_id", userID, "kind", kind, "path", storagePath, "size", header.Size)
	return file, nil
}

// Remove deletes a previously uploaded file by its storage path. Built-in
// placeholders and references without a file record are ignored.
func (s *FileService) Remove(ctx context.Context, ref string) error {
	if ref == "" || ref == model.DefaultAvatar || ref == model.DefaultProjectImage {
		return nil
	}

	file, err := s.fileRepo.ByStoragePath(ctx, ref)
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	delErr := s.storage.Delete(ctx, file.StoragePath)
	if delErr != nil {
		slog.Error("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
	}

	err = s.fileRepo.Delete(ctx, file.ID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return nil
}

// Replace removes the old upload after a new reference has been saved.
// Failures are logged; the new reference is already in place.
func (s *FileService) Replace(ctx context.Context, oldRef, newRef string) {
	if oldRef == newRef {
		return
	}
	err := s.Remove(ctx, oldRef)
	if err != nil {
		slog.Warn("failed to remove replaced file", "error", err, "path", oldRef)
	}
}

// URL resolves a stored reference for clients. Placeholders have no stored
// object and resolve to "".
func (s *FileService) URL(ref string) string {
	if ref == "" || ref == model.DefaultAvatar || ref == model.DefaultProjectImage {
		return ""
	}
	return s.storage.URL(ref)
}
