package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/templui/portfolio/internal/markdown"
	"github.com/templui/portfolio/internal/model"
	"github.com/templui/portfolio/internal/repository"
)

// PortfolioProject is a project with its description rendered to HTML.
type PortfolioProject struct {
	*model.Project
	DescriptionHTML string `json:"descriptionHtml"`
	ImageURL        string `json:"imageUrl,omitempty"`
}

// Portfolio is the public page of one user. The *URL fields resolve stored
// file references through the configured storage backend.
type Portfolio struct {
	*model.PublicUser
	AvatarURL     string             `json:"avatarUrl,omitempty"`
	CoverImageURL string             `json:"coverImageUrl,omitempty"`
	Projects      []PortfolioProject `json:"projects"`
}

type PortfolioService struct {
	users    repository.UserRepository
	projects repository.ProjectRepository
	files    *FileService
	markdown *markdown.Parser
}

func NewPortfolioService(users repository.UserRepository, projects repository.ProjectRepository, files *FileService, md *markdown.Parser) *PortfolioService {
	return &PortfolioService{
		users:    users,
		projects: projects,
		files:    files,
		markdown: md,
	}
}

func (s *PortfolioService) Get(ctx context.Context, userID model.ID) (*Portfolio, error) {
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	projects, err := s.projects.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get projects: %w", err)
	}

	public := user.Public()
	portfolio := &Portfolio{
		PublicUser:    public,
		AvatarURL:     s.files.URL(public.Avatar),
		CoverImageURL: s.files.URL(public.CoverImage),
		Projects:      make([]PortfolioProject, 0, len(projects)),
	}
	for _, p := range projects {
		html, err := s.markdown.Render(p.Description)
		if err != nil {
			// An unrenderable description leaves descriptionHtml empty
			slog.Warn("failed to render project description", "error", err, "project_id", p.ID)
			html = ""
		}
		portfolio.Projects = append(portfolio.Projects, PortfolioProject{
			Project:         p,
			DescriptionHTML: html,
			ImageURL:        s.files.URL(p.Image),
		})
	}

	return portfolio, nil
}
