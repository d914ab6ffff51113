package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/templui/portfolio/internal/ctxkeys"
	"github.com/templui/portfolio/internal/model"
	"github.com/templui/portfolio/internal/service"
)

type PortfolioHandler struct {
	portfolioService *service.PortfolioService
	profileService   *service.ProfileService
}

func NewPortfolioHandler(portfolioService *service.PortfolioService, profileService *service.ProfileService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
		profileService:   profileService,
	}
}

func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := model.ParseID(chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, service.ErrUserNotFound)
		return
	}

	portfolio, err := h.portfolioService.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"data": portfolio})
}

// Update is the profile update with an optional "avatar" file.
func (h *PortfolioHandler) Update(w http.ResponseWriter, r *http.Request) {
	update, uploads, cleanup, err := readProfileUpdate(w, r, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cleanup()

	user, err := h.profileService.UpdateProfile(r.Context(), ctxkeys.UserID(r.Context()), update, uploads)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"data": user})
}
