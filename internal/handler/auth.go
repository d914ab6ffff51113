package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/templui/portfolio/internal/ctxkeys"
	"github.com/templui/portfolio/internal/model"
	"github.com/templui/portfolio/internal/service"
)

type AuthHandler struct {
	authService    *service.AuthService
	profileService *service.ProfileService
}

func NewAuthHandler(authService *service.AuthService, profileService *service.ProfileService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		profileService: profileService,
	}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.authService.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, sessionBody(result))
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.authService.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, sessionBody(result))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"user": user})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.authService.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"message": "Password reset email sent"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.authService.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"message": "Password reset successful"})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.authService.ChangePassword(r.Context(), ctxkeys.UserID(r.Context()), req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{"message": "Password updated successfully"})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, envelope{
		"token":        pair.Token,
		"refreshToken": pair.RefreshToken,
	})
}

// UpdateProfile accepts JSON or multipart. Multipart requests may carry
// "avatar" and "coverImage" files.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	update, uploads, cleanup, err := readProfileUpdate(w, r, true)
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

	writeSuccess(w, http.StatusOK, envelope{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func sessionBody(result *service.AuthResult) envelope {
	return envelope{
		"token":        result.Token,
		"refreshToken": result.RefreshToken,
		"user":         result.User,
	}
}

// readProfileUpdate parses a profile update from JSON or multipart. The
// returned cleanup releases multipart temp files.
func readProfileUpdate(w http.ResponseWriter, r *http.Request, allowCover bool) (model.ProfileUpdate, service.ProfileUploads, func(), error) {
	var update model.ProfileUpdate
	var uploads service.ProfileUploads
	noop := func() {}

	if !isMultipart(r) {
		err := decodeJSON(w, r, &update)
		return update, uploads, noop, err
	}

	f, err := parseMultipart(w, r)
	if err != nil {
		return update, uploads, noop, err
	}

	fields := map[string]**string{
		"name":     &update.Name,
		"email":    &update.Email,
		"title":    &update.Title,
		"bio":      &update.Bio,
		"location": &update.Location,
		"website":  &update.Website,
		"github":   &update.Github,
		"linkedin": &update.Linkedin,
		"twitter":  &update.Twitter,
	}
	for name, dst := range fields {
		*dst = f.value(name)
	}

	uploads.Avatar = f.file("avatar")
	if allowCover {
		uploads.CoverImage = f.file("coverImage")
	}

	return update, uploads, f.cleanup, nil
}
