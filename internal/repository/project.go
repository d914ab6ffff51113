package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/portfolio/internal/model"
)

var (
	ErrProjectNotFound = errors.New("project not found")
)

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	ByID(ctx context.Context, id model.ID) (*model.ProjectWithOwner, error)
	All(ctx context.Context) ([]*model.ProjectWithOwner, error)
	ByUser(ctx context.Context, userID model.ID) ([]*model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id model.ID) error
}

type projectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) ProjectRepository {
	return &projectRepository{db: db}
}

// projectRow is a project joined with its owner's public fields.
type projectRow struct {
	model.Project
	OwnerName   string `db:"owner_name"`
	OwnerAvatar string `db:"owner_avatar"`
}

func (row *projectRow) toModel() *model.ProjectWithOwner {
	return &model.ProjectWithOwner{
		Project: row.Project,
		Owner: model.Owner{
			ID:     row.UserID,
			Name:   row.OwnerName,
			Avatar: row.OwnerAvatar,
		},
	}
}

const selectProjectWithOwner = `
	SELECT p.id, p.user_id, p.title, p.description, p.image, p.technologies,
	       p.github_url, p.live_url, p.created_at, p.updated_at,
	       u.name AS owner_name, u.avatar AS owner_avatar
	FROM projects p
	JOIN users u ON u.id = p.user_id`

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.Image == "" {
		project.Image = model.DefaultProjectImage
	}

	query := `INSERT INTO projects (user_id, title, description, image, technologies, github_url, live_url, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`

	return r.db.GetContext(ctx, &project.ID, query,
		project.UserID,
		project.Title,
		project.Description,
		project.Image,
		project.Technologies,
		project.GithubURL,
		project.LiveURL,
		project.CreatedAt,
		project.UpdatedAt,
	)
}

func (r *projectRepository) ByID(ctx context.Context, id model.ID) (*model.ProjectWithOwner, error) {
	row := &projectRow{}
	query := selectProjectWithOwner + ` WHERE p.id = $1`

	err := r.db.GetContext(ctx, row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	return row.toModel(), nil
}

// All returns every project, newest first.
func (r *projectRepository) All(ctx context.Context) ([]*model.ProjectWithOwner, error) {
	var rows []*projectRow
	query := selectProjectWithOwner + ` ORDER BY p.created_at DESC, p.id DESC`

	err := r.db.SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, err
	}

	projects := make([]*model.ProjectWithOwner, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, row.toModel())
	}
	return projects, nil
}

func (r *projectRepository) ByUser(ctx context.Context, userID model.ID) ([]*model.Project, error) {
	projects := []*model.Project{}
	query := `SELECT * FROM projects WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	err := r.db.SelectContext(ctx, &projects, query, userID)
	if err != nil {
		return nil, err
	}

	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) error {
	project.UpdatedAt = time.Now().UTC()

	query := `UPDATE projects
	          SET title = $1, description = $2, image = $3, technologies = $4, github_url = $5, live_url = $6, updated_at = $7
	          WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		project.Title,
		project.Description,
		project.Image,
		project.Technologies,
		project.GithubURL,
		project.LiveURL,
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return err
	}

	return expectOneRow(result, ErrProjectNotFound)
}

func (r *projectRepository) Delete(ctx context.Context, id model.ID) error {
	query := `DELETE FROM projects WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return expectOneRow(result, ErrProjectNotFound)
}
