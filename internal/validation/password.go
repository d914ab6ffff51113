package validation

import (
	"errors"
	"strings"
)

const (
	MinPasswordLength = 8
	// bcrypt silently truncates input longer than 72 bytes
	MaxPasswordLength = 72
)

var commonPatterns = []string{
	"password", "123456", "qwerty", "admin", "letmein",
	"welcome", "monkey", "dragon", "master", "sunshine",
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password is required")
	}

	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}

	if len(password) > MaxPasswordLength {
		return errors.New("password must not exceed 72 bytes")
	}

	lower := strings.ToLower(password)
	for _, pattern := range commonPatterns {
		if strings.Contains(lower, pattern) {
			return errors.New("password is too common, please choose a stronger one")
		}
	}

	return nil
}
