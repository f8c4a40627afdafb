package middleware

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/convodoc/internal/domain/artifacts"
)

// Input validation and sanitization utilities

// ValidationError marks a request input the router answers with 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var agentIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// MaxTitleLength caps document titles after sanitizing.
const MaxTitleLength = 200

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateTitle sanitizes a document title and enforces the length cap.
func ValidateTitle(title string) (string, error) {
	title = SanitizeString(title)
	if len([]rune(title)) > MaxTitleLength {
		return "", &ValidationError{Field: "title", Reason: fmt.Sprintf("longer than %d characters", MaxTitleLength)}
	}
	return title, nil
}

// ValidateUUID validates run and document identifiers
func ValidateUUID(field, id string) error {
	if id == "" {
		return &ValidationError{Field: field, Reason: "cannot be empty"}
	}
	if _, err := uuid.Parse(id); err != nil {
		return &ValidationError{Field: field, Reason: "not a uuid"}
	}
	return nil
}

// ValidateAgentID validates agent ID format (lowercase, dash, underscore, max 64 chars)
func ValidateAgentID(id string) error {
	if !agentIDPattern.MatchString(id) {
		return &ValidationError{Field: "agent id", Reason: "lowercase alphanumeric, dash, underscore only, max 64 chars"}
	}
	return nil
}

// ValidateFormat parses an artifact format name.
func ValidateFormat(s string) (artifacts.Format, error) {
	f, err := artifacts.ParseFormat(strings.ToLower(s))
	if err != nil {
		return "", &ValidationError{Field: "format", Reason: err.Error()}
	}
	return f, nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
