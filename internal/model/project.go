package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Project struct {
	ID           ID           `db:"id" json:"id"`
	UserID       ID           `db:"user_id" json:"userId"`
	Title        string       `db:"title" json:"title"`
	Description  string       `db:"description" json:"description"`
	Image        string       `db:"image" json:"image"`
	Technologies Technologies `db:"technologies" json:"technologies"`
	GithubURL    *string      `db:"github_url" json:"githubUrl,omitempty"`
	LiveURL      *string      `db:"live_url" json:"liveUrl,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updatedAt"`
}

// OwnedBy reports whether userID owns the project.
func (p *Project) OwnedBy(userID ID) bool {
	return !userID.IsZero() && p.UserID == userID
}

// Owner is the summary of a project's author shown in listings.
type Owner struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type ProjectWithOwner struct {
	Project
	Owner Owner `json:"user"`
}

// ProjectInput carries create and update payloads. Nil fields are untouched
// on update. The image is only ever set from an upload.
type ProjectInput struct {
	Title        *string
	Description  *string
	Technologies *Technologies
	GithubURL    *string
	LiveURL      *string
}

// Technologies is stored as a JSON array in a text column so the same schema
// works on SQLite and Postgres.
type Technologies []string

// ParseTechnologies accepts either a comma-separated string or a list and
// returns the trimmed, non-empty entries.
func ParseTechnologies(raw []string) Technologies {
	var out Technologies
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (t Technologies) Value() (driver.Value, error) {
	if t == nil {
		t = Technologies{}
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *Technologies) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*t = Technologies{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("technologies: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return errors.New("technologies: invalid json")
	}
	*t = out
	return nil
}

// UnmarshalJSON accepts ["go","sql"] or "go, sql".
func (t *Technologies) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = ParseTechnologies(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("technologies must be a list or a comma-separated string")
	}
	*t = ParseTechnologies([]string{s})
	return nil
}
