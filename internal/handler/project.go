package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/templui/portfolio/internal/apperr"
	"github.com/templui/portfolio/internal/ctxkeys"
	"github.com/templui/portfolio/internal/model"
	"github.com/templui/portfolio/internal/service"
)

const maxMarkdownBody = 256 << 10 // 256KB

type ProjectHandler struct {
	projectService *service.ProjectService
}

func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

type projectRequest struct {
	Title        *string             `json:"title"`
	Description  *string             `json:"description"`
	Technologies *model.Technologies `json:"technologies"`
	GithubURL    *string             `json:"githubUrl"`
	LiveURL      *string             `json:"liveUrl"`
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"count": len(projects),
		"data":  projects,
	})
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, service.ErrProjectNotFound)
		return
	}

	project, err := h.projectService.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"data": project})
}

// Create accepts JSON or multipart; multipart requests may carry an "image" file.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, f, err := readProjectInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer f.cleanup()

	project, err := h.projectService.Create(r.Context(), ctxkeys.UserID(r.Context()), input, f.file("image"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, envelope{"data": project})
}

// Import creates a project from a markdown document with YAML frontmatter
// sent as the raw request body.
func (h *ProjectHandler) Import(w http.ResponseWriter, r *http.Request) {
	source, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMarkdownBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, apperr.Wrap(apperr.KindValidation, "Request body too large", err))
			return
		}
		writeError(w, r, apperr.Wrap(apperr.KindValidation, errInvalidBody.Message, err))
		return
	}

	project, err := h.projectService.Import(r.Context(), ctxkeys.UserID(r.Context()), source)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, envelope{"data": project})
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, service.ErrProjectNotFound)
		return
	}

	input, f, err := readProjectInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer f.cleanup()

	project, err := h.projectService.Update(r.Context(), ctxkeys.UserID(r.Context()), id, input, f.file("image"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"data": project})
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, service.ErrProjectNotFound)
		return
	}

	err = h.projectService.Delete(r.Context(), ctxkeys.UserID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"data": envelope{}})
}

// readProjectInput parses JSON or multipart project fields. The returned form
// is never nil; for JSON bodies it simply holds no files.
func readProjectInput(w http.ResponseWriter, r *http.Request) (model.ProjectInput, *form, error) {
	if !isMultipart(r) {
		var req projectRequest
		err := decodeJSON(w, r, &req)
		return model.ProjectInput{
			Title:        req.Title,
			Description:  req.Description,
			Technologies: req.Technologies,
			GithubURL:    req.GithubURL,
			LiveURL:      req.LiveURL,
		}, &form{}, err
	}

	f, err := parseMultipart(w, r)
	if err != nil {
		return model.ProjectInput{}, &form{}, err
	}

	input := model.ProjectInput{
		Title:       f.value("title"),
		Description: f.value("description"),
		GithubURL:   f.value("githubUrl"),
		LiveURL:     f.value("liveUrl"),
	}
	if raw := f.values("technologies"); raw != nil {
		technologies := model.ParseTechnologies(raw)
		input.Technologies = &technologies
	}

	return input, f, nil
}
