package validation

import (
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/text/cases"
)

var emailFolder = cases.Fold()

// NormalizeEmail trims and case-folds an address so uniqueness does not depend
// on the store's collation.
func NormalizeEmail(email string) string {
	return emailFolder.String(strings.TrimSpace(email))
}

// ValidateEmail validates email format and length
// Uses Go's built-in net/mail parser which follows RFC 5322
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}

	// RFC 5321: total max 254 with @
	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email address format")
	}

	return nil
}
