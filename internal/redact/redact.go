// Package redact masks credentials in text that is about to be persisted to a
// shared file such as the debt ledger.
package redact

import "regexp"

const mask = "[REDACTED]"

var rules = []*regexp.Regexp{
	// AWS access key IDs
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// Google / Firebase API keys
	regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`),
	// GitHub tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{20,}`),
	// Slack tokens
	regexp.MustCompile(`xox[abprs]-[A-Za-z0-9-]{10,}`),
	// Private key blocks
	regexp.MustCompile(`-----BEGIN [A-Z ]+PRIVATE KEY-----[\s\S]*?-----END [A-Z ]+PRIVATE KEY-----`),
	// Bearer tokens
	regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-._~+/]+=*`),
	// key/secret/token/password assignments
	regexp.MustCompile(`(?i)(api[_-]?key|api[_-]?secret|secret[_-]?key|client[_-]?secret|token|password|passwd|credentials)\s*[:=]\s*\S+`),
}

// Redact replaces credential patterns in text with [REDACTED].
func Redact(text string) string {
	for _, r := range rules {
		text = r.ReplaceAllString(text, mask)
	}
	return text
}
