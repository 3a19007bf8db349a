// Package validate holds the field-level input rules shared by the user
// services. Every rule rejects input before it reaches a repository.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxTextLength     = 100
	minPasswordLength = 8
	maxPasswordLength = 72
)

var (
	emailPattern      = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern   = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)
	postalCodePattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	uppercasePattern  = regexp.MustCompile(`[A-Z]`)
	lowercasePattern  = regexp.MustCompile(`[a-z]`)
	digitPattern      = regexp.MustCompile(`\d`)
	symbolPattern     = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// FieldError reports a single invalid field. Handlers surface the message as
// an unprocessable-entity response.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

func fieldErr(field, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Email checks that s is a well-formed address.
func Email(s string) error {
	if !emailPattern.MatchString(s) {
		return fieldErr("email", "Invalid email address")
	}
	return nil
}

// Username checks the 3-32 char alphanumeric/underscore/hyphen rule.
func Username(s string) error {
	if !usernamePattern.MatchString(s) {
		return fieldErr("username", "Username must be 3-32 characters of letters, digits, underscore or hyphen")
	}
	return nil
}

// Password enforces length bounds and the four character-class requirements.
func Password(s string) error {
	if len(s) < minPasswordLength || len(s) > maxPasswordLength {
		return fieldErr("password", "Password must be %d-%d characters long", minPasswordLength, maxPasswordLength)
	}
	if !uppercasePattern.MatchString(s) {
		return fieldErr("password", "Password must contain at least one uppercase letter")
	}
	if !lowercasePattern.MatchString(s) {
		return fieldErr("password", "Password must contain at least one lowercase letter")
	}
	if !digitPattern.MatchString(s) {
		return fieldErr("password", "Password must contain at least one number")
	}
	if !symbolPattern.MatchString(s) {
		return fieldErr("password", "Password must contain at least one special character")
	}
	return nil
}

// RequiredText trims s and checks it is non-empty, within length bounds, and
// free of angle brackets. The trimmed value is returned.
func RequiredText(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fieldErr(field, "%s must not be empty", displayName(field))
	}
	if len(s) > maxTextLength {
		return "", fieldErr(field, "%s must be at most %d characters", displayName(field), maxTextLength)
	}
	if err := NoHTML(field, s); err != nil {
		return "", err
	}
	return s, nil
}

// OptionalText is RequiredText without the non-empty rule.
func OptionalText(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) > maxTextLength {
		return "", fieldErr(field, "%s must be at most %d characters", displayName(field), maxTextLength)
	}
	if err := NoHTML(field, s); err != nil {
		return "", err
	}
	return s, nil
}

// PostalCode checks the five-digit (optionally plus-four) form.
func PostalCode(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !postalCodePattern.MatchString(s) {
		return "", fieldErr("postal_code", "Invalid postal code format")
	}
	return s, nil
}

// NoHTML rejects strings carrying angle brackets.
func NoHTML(field, s string) error {
	if strings.ContainsAny(s, "<>") {
		return fieldErr(field, "HTML tags are not allowed")
	}
	return nil
}

func displayName(field string) string {
	name := strings.ReplaceAll(field, "_", " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
