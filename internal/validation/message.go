package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"warbler/internal/models"
)

// NormalizeMessageText trims surrounding whitespace and checks the result is
// non-empty and at most models.MaxMessageLength characters.
func NormalizeMessageText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("message text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return "", fmt.Errorf("message must be at most %d characters", models.MaxMessageLength)
	}
	return text, nil
}
