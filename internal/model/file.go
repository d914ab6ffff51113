package model

import (
	"time"
)

const (
	FileKindAvatar       = "avatar"
	FileKindCoverImage   = "cover_image"
	FileKindProjectImage = "project_image"
)

type File struct {
	ID           string    `db:"id"`
	UserID       ID        `db:"user_id"`
	Kind         string    `db:"kind"`
	Filename     string    `db:"filename"`
	OriginalName string    `db:"original_name"`
	MimeType     string    `db:"mime_type"`
	Size         int64     `db:"size"`
	StoragePath  string    `db:"storage_path"` // Referenced by users.avatar, projects.image, ...
	CreatedAt    time.Time `db:"created_at"`
}
