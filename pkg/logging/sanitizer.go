package logging

import (
	"regexp"
	"strings"
)

const (
	// MaxQueryLogLength is the longest query text written to the log.
	MaxQueryLogLength = 160
	// RedactedText replaces credentials in logged text.
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx up to the next delimiter
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// user:pass@host in URL-style connection strings
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)

	whitespace = regexp.MustCompile(`\s+`)
)

// SanitizeConnectionString removes credentials from a DSN or URL before logging.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeError renders an error from the database layer with credentials removed.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeConnectionString(err.Error())
}

// SanitizeQuery collapses whitespace in a SQL statement and truncates it to
// MaxQueryLogLength so multi-line queries fit on one log line.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}
	sanitized := strings.TrimSpace(whitespace.ReplaceAllString(query, " "))
	sanitized = passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return TruncateString(sanitized, MaxQueryLogLength)
}

// TruncateString shortens s to at most maxLen runes, adding an ellipsis when cut.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
