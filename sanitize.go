package mealplanner

import (
	"fmt"
	"regexp"
	"strings"
)

const maxInputLength = 100

var allowedInput = regexp.MustCompile(`^[\p{Hangul}a-zA-Z0-9\s\-]+$`)

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+.*(previous|above|all|prior).*\s+instructions?`),
	regexp.MustCompile(`(?i)system\s*:`),
	regexp.MustCompile(`(?i)<\s*system\s*>`),
	regexp.MustCompile(`(?i)you\s+are\s+(now|a)`),
	regexp.MustCompile(`(?i)forget\s+(everything|all|previous)`),
	regexp.MustCompile(`(?i)act\s+as\s+`),
	regexp.MustCompile(`(?i)pretend\s+(you|to)\s+`),
	regexp.MustCompile(`(?i)\|\s*sudo\s+`),
	regexp.MustCompile("```"),
}

// Sanitize rejects user strings that are too long, contain unexpected
// characters, or look like prompt injection.
func Sanitize(value, field string) (string, error) {
	if value == "" {
		return value, nil
	}
	if len([]rune(value)) > maxInputLength {
		return "", fmt.Errorf("%s is too long: max %d characters", field, maxInputLength)
	}
	if !allowedInput.MatchString(value) {
		return "", fmt.Errorf("%s contains characters that are not allowed", field)
	}
	for _, p := range injectionPatterns {
		if p.MatchString(value) {
			return "", fmt.Errorf("%s contains a disallowed pattern", field)
		}
	}
	return strings.TrimSpace(value), nil
}

func SanitizeList(values []string, field string) ([]string, error) {
	if len(values) == 0 {
		return values, nil
	}
	out := make([]string, 0, len(values))
	for i, v := range values {
		s, err := Sanitize(v, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

var promptEscaper = strings.NewReplacer(
	"{", "(",
	"}", ")",
	"`", "'",
	"\n", " ",
	"\r", " ",
)

// EscapeForPrompt neutralises characters that could break prompt structure.
func EscapeForPrompt(s string) string {
	return strings.TrimSpace(promptEscaper.Replace(s))
}
