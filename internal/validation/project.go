package validation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// ValidateLength checks that a trimmed field holds between min and max runes.
func ValidateLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < min {
		if min == 1 {
			return fmt.Errorf("%s is required", field)
		}
		return fmt.Errorf("%s must be at least %d characters", field, min)
	}
	if n > max {
		return fmt.Errorf("%s is too long (max %d characters)", field, max)
	}
	return nil
}

func ValidateProjectTitle(title string) error {
	return ValidateLength("title", title, 1, 100)
}

func ValidateProjectDescription(description string) error {
	return ValidateLength("description", description, 1, 500)
}

func ValidateTechnologies(technologies []string) error {
	if len(technologies) == 0 {
		return errors.New("at least one technology is required")
	}
	return nil
}

// ValidateURL accepts absolute http(s) URLs.
func ValidateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be a valid URL", field)
	}
	return nil
}
