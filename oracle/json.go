package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	jsonFence        = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	anyFence         = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")
	thousandsInTotal = regexp.MustCompile(`(\d),(\d{3})`)
)

// ExtractJSON pulls the JSON object out of free oracle text. A ```json fenced
// block wins, then any fenced block, then the outermost balanced object in the
// whole text. Thousands separators inside numbers are removed.
func ExtractJSON(text string) (string, error) {
	candidate := text
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else if m := anyFence.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	}

	obj, ok := outermostObject(candidate)
	if !ok && candidate != text {
		obj, ok = outermostObject(text)
	}
	if !ok {
		return "", ErrNoJSON
	}

	return stripThousands(obj), nil
}

// Decode extracts and unmarshals the JSON object in text into T.
func Decode[T any](text string) (T, error) {
	var v T
	raw, err := ExtractJSON(text)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("failed to decode oracle JSON: %w", err)
	}
	return v, nil
}

// outermostObject returns the first balanced {...} span, skipping braces that
// appear inside JSON strings.
func outermostObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func stripThousands(s string) string {
	for {
		next := thousandsInTotal.ReplaceAllString(s, "$1$2")
		if next == s {
			return s
		}
		s = next
	}
}
