package service

import "github.com/templui/portfolio/internal/apperr"

// Client-facing failures. Handlers translate these through apperr; messages
// are part of the API contract.
var (
	ErrMissingCredentials     = apperr.Validation("Please provide email and password")
	ErrInvalidCredentials     = apperr.New(apperr.KindAuthentication, "Invalid credentials")
	ErrEmailTaken             = apperr.New(apperr.KindConflict, "Email already registered")
	ErrUserNotFound           = apperr.NotFound("User not found")
	ErrInvalidResetToken      = apperr.Validation("Invalid or expired token")
	ErrInvalidRefreshToken    = apperr.New(apperr.KindAuthentication, "Invalid refresh token")
	ErrInvalidCurrentPassword = apperr.Validation("Current password is incorrect")
	ErrProjectNotFound        = apperr.NotFound("Project not found")
	ErrNotProjectOwner        = apperr.New(apperr.KindAuthorization, "Not authorized to modify this project")
)

func invalid(err error) error {
	return apperr.Wrap(apperr.KindValidation, err.Error(), err)
}
