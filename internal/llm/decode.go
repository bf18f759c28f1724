// AngelaMos | 2026
// decode.go

package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoJSON          = errors.New("no JSON object in model output")
	ErrMalformedJSON   = errors.New("malformed JSON in model output")
	ErrSchemaViolation = errors.New("model output violates schema")
)

// DecodeJSON parses model text as T, falling back to the first object that
// starts at a '{' when the text carries prose around it. Text after that
// object is ignored.
func DecodeJSON[T any](text string) (T, error) {
	var out T

	s := strings.TrimSpace(text)
	if s == "" {
		return out, ErrNoJSON
	}

	if err := json.Unmarshal([]byte(s), &out); err == nil {
		return out, nil
	}

	start := strings.IndexByte(s, '{')
	if start == -1 {
		return out, fmt.Errorf("%w (len=%d)", ErrNoJSON, len(s))
	}

	out = *new(T)
	if err := json.NewDecoder(strings.NewReader(s[start:])).Decode(&out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	return out, nil
}

// DecodeValidated decodes then runs check, wrapping its failure as
// ErrSchemaViolation.
func DecodeValidated[T any](text string, check func(T) error) (T, error) {
	out, err := DecodeJSON[T](text)
	if err != nil {
		return out, err
	}

	if err := check(out); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	return out, nil
}

// SplitLines returns the non-blank lines of text with list markers removed,
// failing unless exactly want remain.
func SplitLines(text string, want int) ([]string, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	items := make([]string, 0, want)
	for _, line := range lines {
		item := stripListMarker(strings.TrimSpace(line))
		if item == "" {
			continue
		}
		items = append(items, item)
	}

	if len(items) != want {
		return nil, fmt.Errorf(
			"%w: want %d items, got %d",
			ErrSchemaViolation,
			want,
			len(items),
		)
	}

	return items, nil
}

func stripListMarker(s string) string {
	switch {
	case strings.HasPrefix(s, "- "), strings.HasPrefix(s, "* "), strings.HasPrefix(s, "• "):
		_, rest, _ := strings.Cut(s, " ")
		return strings.TrimSpace(rest)
	}

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i+1 < len(s) && (s[i] == '.' || s[i] == ')') && isSpace(s[i+1]) {
		return strings.TrimSpace(s[i+1:])
	}

	return s
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}
