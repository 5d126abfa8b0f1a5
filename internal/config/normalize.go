package config

import (
	"regexp"
	"strings"
)

var (
	validPersonaIDRe    = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)
	personaInvalidChars = regexp.MustCompile(`[^a-z0-9_-]+`)
	personaLeadingDash  = regexp.MustCompile(`^-+`)
	personaTrailingDash = regexp.MustCompile(`-+$`)
)

// NormalizePersonaID converts a user-provided persona name (e.g. a YAML map
// key like "Research Specialist") into a stable ID:
//   - Lowercase, max 64 chars
//   - Only [a-z0-9_-] allowed
//   - Invalid chars replaced with "-"
//   - Leading/trailing dashes stripped
//
// An empty result returns "" so the caller can reject the entry.
func NormalizePersonaID(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}

	lower := strings.ToLower(trimmed)
	if validPersonaIDRe.MatchString(lower) {
		return lower
	}

	// Best-effort: collapse invalid chars to "-"
	result := personaInvalidChars.ReplaceAllString(lower, "-")
	result = personaLeadingDash.ReplaceAllString(result, "")
	result = personaTrailingDash.ReplaceAllString(result, "")

	if len(result) > 64 {
		result = result[:64]
	}
	return result
}
