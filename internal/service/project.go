package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/templui/portfolio/internal/markdown"
	"github.com/templui/portfolio/internal/model"
	"github.com/templui/portfolio/internal/repository"
	"github.com/templui/portfolio/internal/validation"
)

type ProjectService struct {
	projects repository.ProjectRepository
	files    *FileService
	markdown *markdown.Parser
}

func NewProjectService(projects repository.ProjectRepository, files *FileService, md *markdown.Parser) *ProjectService {
	return &ProjectService{
		projects: projects,
		files:    files,
		markdown: md,
	}
}

func (s *ProjectService) List(ctx context.Context) ([]*model.ProjectWithOwner, error) {
	projects, err := s.projects.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectService) Get(ctx context.Context, id model.ID) (*model.ProjectWithOwner, error) {
	project, err := s.projects.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// Create stores a new project owned by userID. Title, description and at
// least one technology are required.
func (s *ProjectService) Create(ctx context.Context, userID model.ID, input model.ProjectInput, image *multipart.FileHeader) (*model.Project, error) {
	project := &model.Project{UserID: userID}

	err := applyProjectInput(project, input, true)
	if err != nil {
		return nil, err
	}

	if image != nil {
		file, err := s.files.Upload(ctx, userID, model.FileKindProjectImage, image)
		if err != nil {
			return nil, err
		}
		project.Image = file.StoragePath
	}

	err = s.projects.Create(ctx, project)
	if err != nil {
		if image != nil {
			s.files.Replace(ctx, project.Image, "")
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	slog.Info("project created", "project_id", project.ID, "user_id", userID)
	return project, nil
}

// Update applies a partial update. Only the owner may modify a project.
func (s *ProjectService) Update(ctx context.Context, userID, id model.ID, input model.ProjectInput, image *multipart.FileHeader) (*model.Project, error) {
	existing, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	project := &existing.Project
	oldImage := project.Image

	err = applyProjectInput(project, input, false)
	if err != nil {
		return nil, err
	}

	if image != nil {
		file, err := s.files.Upload(ctx, userID, model.FileKindProjectImage, image)
		if err != nil {
			return nil, err
		}
		project.Image = file.StoragePath
	}

	err = s.projects.Update(ctx, project)
	if err != nil {
		if image != nil {
			s.files.Replace(ctx, project.Image, "")
		}
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.files.Replace(ctx, oldImage, project.Image)

	slog.Info("project updated", "project_id", project.ID, "user_id", userID)
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, userID, id model.ID) error {
	existing, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	err = s.projects.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.files.Replace(ctx, existing.Image, "")

	slog.Info("project deleted", "project_id", id, "user_id", userID)
	return nil
}

// Import creates a project from a markdown document with YAML frontmatter.
// The document body becomes the description.
func (s *ProjectService) Import(ctx context.Context, userID model.ID, source []byte) (*model.Project, error) {
	doc, err := s.markdown.ParseProject(source)
	if err != nil {
		return nil, invalid(err)
	}

	technologies := model.ParseTechnologies(doc.Technologies)
	input := model.ProjectInput{
		Title:        &doc.Title,
		Description:  &doc.Body,
		Technologies: &technologies,
	}
	if doc.GithubURL != "" {
		input.GithubURL = &doc.GithubURL
	}
	if doc.LiveURL != "" {
		input.LiveURL = &doc.LiveURL
	}

	return s.Create(ctx, userID, input, nil)
}

// owned loads a project and checks that userID owns it.
func (s *ProjectService) owned(ctx context.Context, userID, id model.ID) (*model.ProjectWithOwner, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !project.OwnedBy(userID) {
		slog.Warn("project ownership check failed", "project_id", id, "user_id", userID)
		return nil, ErrNotProjectOwner
	}
	return project, nil
}

// applyProjectInput validates the present fields and copies them onto p.
// On create every required field must be present.
func applyProjectInput(p *model.Project, input model.ProjectInput, create bool) error {
	if input.Title != nil || create {
		title := strings.TrimSpace(deref(input.Title))
		err := validation.ValidateProjectTitle(title)
		if err != nil {
			return invalid(err)
		}
		p.Title = title
	}

	if input.Description != nil || create {
		description := strings.TrimSpace(deref(input.Description))
		err := validation.ValidateProjectDescription(description)
		if err != nil {
			return invalid(err)
		}
		p.Description = description
	}

	if input.Technologies != nil || create {
		var technologies model.Technologies
		if input.Technologies != nil {
			technologies = *input.Technologies
		}
		err := validation.ValidateTechnologies(technologies)
		if err != nil {
			return invalid(err)
		}
		p.Technologies = technologies
	}

	var err error
	p.GithubURL, err = optionalURL("githubUrl", p.GithubURL, input.GithubURL)
	if err != nil {
		return err
	}
	p.LiveURL, err = optionalURL("liveUrl", p.LiveURL, input.LiveURL)
	if err != nil {
		return err
	}

	return nil
}

// optionalURL keeps current when raw is absent and clears it when raw is empty.
func optionalURL(field string, current, raw *string) (*string, error) {
	if raw == nil {
		return current, nil
	}
	v := strings.TrimSpace(*raw)
	if v == "" {
		return nil, nil
	}
	err := validation.ValidateURL(field, v)
	if err != nil {
		return nil, invalid(err)
	}
	return &v, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
