package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cfg "github.com/templui/portfolio/internal/config"
)

// Storage defines the interface for uploaded file storage
type Storage interface {
	// Save stores a file at the given path
	Save(ctx context.Context, path string, file io.Reader) error

	// Delete removes a file at the given path
	Delete(ctx context.Context, path string) error

	// URL returns the public URL for accessing the file
	URL(path string) string
}

// New selects the storage backend from app config.
func New(ctx context.Context, c *cfg.Config) (Storage, error) {
	switch c.StorageDriver {
	case "local", "":
		slog.Info("initializing local storage", "dir", c.UploadDir, "url", c.UploadURL)
		return NewLocalStorage(c.UploadDir, c.UploadURL)
	case "s3":
		slog.Info("initializing S3 storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3Storage(ctx, S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}
