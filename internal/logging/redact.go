package logging

import (
	"regexp"
	"strings"
)

const RedactedPlaceholder = "[REDACTED]"

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(sk-[a-zA-Z0-9_-]{20,})`),         // OpenAI and Anthropic keys
	regexp.MustCompile(`(?i)(bearer\s+[a-zA-Z0-9._~+/-]{8,}=*)`), // Authorization headers
	regexp.MustCompile(`(?i)(token\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(api_key\s*[:=]\s*[^\s,;]{8,})`),
}

var sensitiveKeys = []string{
	"API_KEY",
	"APIKEY",
	"TOKEN",
	"CREDENTIAL",
	"AUTHORIZATION",
	"SECRET",
}

// RedactSensitiveData replaces anything that looks like a key or bearer
// token in value.
func RedactSensitiveData(value string) string {
	if value == "" {
		return value
	}
	for _, p := range sensitivePatterns {
		value = p.ReplaceAllString(value, RedactedPlaceholder)
	}
	return value
}

// IsSensitiveField reports whether a field named key must never be logged.
func IsSensitiveField(key string) bool {
	upper := strings.ToUpper(key)
	for _, k := range sensitiveKeys {
		if strings.Contains(upper, k) {
			return true
		}
	}
	return false
}
