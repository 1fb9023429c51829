// Package redact provides utilities for redacting sensitive information from
// strings before they are logged or returned in error responses. Errors that
// bubble up from the database, the AI provider, or the wearable client can
// embed connection strings, API keys, tokens, or query text; everything that
// reaches a log line or a client payload goes through this package first.
package redact

import "regexp"

// Redaction placeholders.
const (
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
)

// rule pairs a pattern with the placeholder that replaces its matches.
// Rules are applied in order: credentials and tokens first, then query
// and trace fragments, then addresses and paths, so that a later rule
// never re-matches text an earlier rule has already replaced.
type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

var rules = []rule{
	// Database connection strings with embedded credentials
	{
		pattern:     regexp.MustCompile(`(?i)(postgres|mysql|mongodb|db|database|connection)://[^@]+@`),
		placeholder: RedactedCredentialPlaceholder,
	},
	// Standard three-part base64url-encoded JWT tokens
	{
		pattern:     regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		placeholder: "[REDACTED_JWT]",
	},
	// Google API keys as used by the AI provider client
	{
		pattern:     regexp.MustCompile(`AIza[0-9A-Za-z_-]{10,}`),
		placeholder: RedactedKeyPlaceholder,
	},
	// Password key/value fragments
	{
		pattern:     regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`),
		placeholder: RedactedCredentialPlaceholder,
	},
	// Generic API keys, bearer tokens, and secrets
	{
		pattern:     regexp.MustCompile(`(?i)(api[_-]?key|token|secret|key|access|auth)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		placeholder: RedactedKeyPlaceholder,
	},
	// SQL queries and fragments leaked from driver errors
	{
		pattern:     regexp.MustCompile(`(?i)(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP|GRANT)[\s\w,*()]+(?:FROM|INTO|SET|TABLE|DATABASE|SCHEMA|VIEW)(?:[\s\w,*()='"]+)?`),
		placeholder: "[REDACTED_SQL]",
	},
	// Stack trace fragments
	{
		pattern:     regexp.MustCompile(`(?:goroutine \d+|panic:)[\s\S]*?(\n\t.*)+`),
		placeholder: "[STACK_TRACE_REDACTED]",
	},
	// Email addresses count as user identifiers here
	{
		pattern:     regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`),
		placeholder: "[REDACTED_EMAIL]",
	},
	// Filesystem paths
	{
		pattern:     regexp.MustCompile(`(/[\w.-]+){2,}`),
		placeholder: RedactedPathPlaceholder,
	},
	// Hostnames with optional ports, e.g. upstream provider addresses
	{
		pattern:     regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?\b`),
		placeholder: "[REDACTED_HOST]",
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
// Returns an empty string for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
