package llm

import (
	"regexp"
	"strings"

	"github.com/dbquery-io/dbquery-engine/pkg/apperrors"
)

var (
	fencedSQLPattern = regexp.MustCompile("(?is)```(?:sql)?\\s*\\n?(.*?)```")
	selectPattern    = regexp.MustCompile(`(?is)\b(SELECT|WITH)\b.*`)
)

// ExtractSQL pulls a SQL statement out of a model completion. Fenced
// code blocks win; otherwise the text from the first SELECT or WITH
// keyword onward is taken. The result is trimmed to the first
// statement terminator.
func ExtractSQL(completion string) (string, error) {
	text := strings.TrimSpace(completion)
	if text == "" {
		return "", apperrors.New(apperrors.KindGeneration,
			"generation service returned an empty response")
	}

	if m := fencedSQLPattern.FindStringSubmatch(text); m != nil {
		if candidate := normalizeStatement(m[1]); candidate != "" {
			return candidate, nil
		}
	}

	if m := selectPattern.FindString(text); m != "" {
		if candidate := normalizeStatement(m); candidate != "" {
			return candidate, nil
		}
	}

	return "", apperrors.New(apperrors.KindGeneration,
		"no SQL statement found in generated response")
}

// normalizeStatement trims whitespace and cuts at the first semicolon
// so trailing prose or a second statement cannot ride along.
func normalizeStatement(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ";"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
