package resolver

import "strings"

// NormalizeLanguage matches the requested language against the supported set
// case-insensitively and returns the canonical tag. "english", "ENGLISH",
// and "English" all normalize to "English".
func NormalizeLanguage(requested string, supported []string) (string, bool) {
	requested = strings.TrimSpace(requested)
	for _, lang := range supported {
		if strings.EqualFold(requested, lang) {
			return lang, true
		}
	}
	return "", false
}
