// Package logging provides the engine's zap logger construction and
// redaction helpers. Connection URLs carry credentials, so anything
// derived from one must pass through a sanitizer before it is logged
// or returned to a caller.
package logging

import (
	"regexp"
)

// RedactedText replaces sensitive values in sanitized output.
const RedactedText = "[REDACTED]"

// maxQueryLogLength caps SQL text in log lines.
const maxQueryLogLength = 120

var (
	// password=x, pwd=x, pass=x in keyword/value connection strings
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// user:pass@host in URL-style connection strings
	credentialsPattern = regexp.MustCompile(`://[^:/@\s]+:[^@\s]+@`)

	// api_key=... style values
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey)=[A-Za-z0-9-_]{8,}`)
)

// SanitizeConnectionString masks credentials in a connection string or
// URL. Host, port, and database name are preserved so the result stays
// useful for display.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return credentialsPattern.ReplaceAllString(sanitized, "://"+RedactedText+":"+RedactedText+"@")
}

// SanitizeError returns err's message with credential material removed.
// Driver errors can echo the full connection string, so this must be
// applied to any error that touched a pool.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return credentialsPattern.ReplaceAllString(sanitized, "://"+RedactedText+":"+RedactedText+"@")
}

// SanitizeQuery truncates SQL text for logging. Queries are user input
// and can be arbitrarily long; logs only need the head.
func SanitizeQuery(query string) string {
	if len(query) > maxQueryLogLength {
		return query[:maxQueryLogLength] + "..."
	}
	return query
}
