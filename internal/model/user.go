package model

import (
	"time"
)

const (
	DefaultAvatar       = "default.jpg"
	DefaultProjectImage = "no-photo.jpg"
)

// User is the stored account record. It carries secrets and is never written
// to a response directly; use Public for that.
type User struct {
	ID                  ID         `db:"id"`
	Email               string     `db:"email"`
	PasswordHash        string     `db:"password_hash"`
	Name                string     `db:"name"`
	Title               *string    `db:"title"`
	Avatar              string     `db:"avatar"`
	CoverImage          *string    `db:"cover_image"`
	Bio                 *string    `db:"bio"`
	Location            *string    `db:"location"`
	Website             *string    `db:"website"`
	Github              *string    `db:"github"`
	Linkedin            *string    `db:"linkedin"`
	Twitter             *string    `db:"twitter"`
	ResetTokenHash      *string    `db:"reset_token_hash"`
	ResetTokenExpiresAt *time.Time `db:"reset_token_expires_at"`
	RefreshToken        *string    `db:"refresh_token"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

// SetResetToken stores the digest and expiry together.
func (u *User) SetResetToken(hash string, expiresAt time.Time) {
	u.ResetTokenHash = &hash
	u.ResetTokenExpiresAt = &expiresAt
}

func (u *User) ClearResetToken() {
	u.ResetTokenHash = nil
	u.ResetTokenExpiresAt = nil
}

func (u *User) HasResetToken() bool {
	return u.ResetTokenHash != nil && u.ResetTokenExpiresAt != nil
}

// PublicUser is the sanitized shape returned by the API.
type PublicUser struct {
	ID         ID        `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage,omitempty"`
	Title      string    `json:"title,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Location   string    `json:"location,omitempty"`
	Website    string    `json:"website,omitempty"`
	Github     string    `json:"github,omitempty"`
	Linkedin   string    `json:"linkedin,omitempty"`
	Twitter    string    `json:"twitter,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Avatar:     u.Avatar,
		CoverImage: deref(u.CoverImage),
		Title:      deref(u.Title),
		Bio:        deref(u.Bio),
		Location:   deref(u.Location),
		Website:    deref(u.Website),
		Github:     deref(u.Github),
		Linkedin:   deref(u.Linkedin),
		Twitter:    deref(u.Twitter),
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// ProfileUpdate is a partial update: nil fields are left untouched.
// Password changes go through PasswordUpdate so a profile save can never
// re-hash an existing digest.
type ProfileUpdate struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Title      *string `json:"title"`
	Bio        *string `json:"bio"`
	Location   *string `json:"location"`
	Website    *string `json:"website"`
	Github     *string `json:"github"`
	Linkedin   *string `json:"linkedin"`
	Twitter    *string `json:"twitter"`
	Avatar     *string `json:"-"`
	CoverImage *string `json:"-"`
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Title == nil && p.Bio == nil &&
		p.Location == nil && p.Website == nil && p.Github == nil &&
		p.Linkedin == nil && p.Twitter == nil && p.Avatar == nil && p.CoverImage == nil
}

// Apply merges the present fields into u.
func (p ProfileUpdate) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	mergeOptional(&u.Title, p.Title)
	mergeOptional(&u.Bio, p.Bio)
	mergeOptional(&u.Location, p.Location)
	mergeOptional(&u.Website, p.Website)
	mergeOptional(&u.Github, p.Github)
	mergeOptional(&u.Linkedin, p.Linkedin)
	mergeOptional(&u.Twitter, p.Twitter)
	mergeOptional(&u.CoverImage, p.CoverImage)
}

// PasswordUpdate says whether a write carries a new password digest.
// The zero value keeps the stored hash.
type PasswordUpdate struct {
	hash    string
	changed bool
}

func KeepPassword() PasswordUpdate {
	return PasswordUpdate{}
}

// ChangePassword wraps an already computed bcrypt digest.
func ChangePassword(hash string) PasswordUpdate {
	return PasswordUpdate{hash: hash, changed: true}
}

func (p PasswordUpdate) Changed() bool {
	return p.changed
}

func (p PasswordUpdate) Hash() string {
	return p.hash
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// mergeOptional sets dst from src when src is present. An empty string clears
// the column.
func mergeOptional(dst **string, src *string) {
	if src == nil {
		return
	}
	if *src == "" {
		*dst = nil
		return
	}
	v := *src
	*dst = &v
}
