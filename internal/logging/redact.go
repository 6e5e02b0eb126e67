package logging

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	// FilterMarker replaces any value whose key matches the sensitive
	// predicate. Redaction is total: the original value is gone before
	// the record leaves the enricher.
	FilterMarker = "[FILTERED]"

	// TruncationSuffix is appended to over-long string values.
	TruncationSuffix = "...[TRUNCATED]"

	// maxStringLength is the cutoff past which string values are
	// truncated regardless of key name.
	maxStringLength = 100
)

// sensitiveFields is the fixed deny-list. A key matches when its
// lowercased form contains any of these substrings.
var sensitiveFields = []string{
	"password", "passwd", "pwd", "secret", "token", "key", "auth",
	"authorization", "cookie", "session", "csrf", "api_key",
	"access_token", "refresh_token", "bearer", "signature",
	"email", "phone", "ssn", "credit_card", "cc_number",
	"address", "personal_info", "pii", "private",
}

// sensitiveHeaders is the deny-list applied to HTTP header names.
var sensitiveHeaders = []string{
	"authorization", "cookie", "x-api-key", "x-auth-token",
	"x-csrf-token", "x-session-id", "x-user-token",
}

// isSensitiveKey reports whether a map key matches the deny-list.
func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveFields {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func isSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range sensitiveHeaders {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Redact recursively sanitizes a value for logging: map entries with
// sensitive keys are replaced wholesale with the filter marker, nested
// maps and slices are walked, and string values longer than the cutoff
// are truncated regardless of key name.
func Redact(value any) any {
	return redactValue(value, "")
}

func redactValue(value any, keyName string) any {
	switch v := value.(type) {
	case map[string]any:
		filtered := make(map[string]any, len(v))
		for key, inner := range v {
			if isSensitiveKey(key) {
				filtered[key] = FilterMarker
			} else {
				filtered[key] = redactValue(inner, key)
			}
		}
		return filtered
	case []any:
		filtered := make([]any, len(v))
		for i, item := range v {
			filtered[i] = redactValue(item, "")
		}
		return filtered
	case string:
		if len(v) > maxStringLength {
			return v[:maxStringLength] + TruncationSuffix
		}
		if keyName != "" && isSensitiveKey(keyName) {
			return FilterMarker
		}
		return v
	default:
		if keyName != "" && isSensitiveKey(keyName) {
			return FilterMarker
		}
		return value
	}
}

// RedactHeaders flattens request headers into a loggable map, filtering
// sensitive names and truncating oversized user agents.
func RedactHeaders(headers http.Header) map[string]string {
	filtered := make(map[string]string, len(headers))
	for name, values := range headers {
		lower := strings.ToLower(name)
		value := strings.Join(values, ", ")
		switch {
		case isSensitiveHeader(lower):
			filtered[lower] = FilterMarker
		case lower == "user-agent" && len(value) > 200:
			filtered[lower] = value[:200] + TruncationSuffix
		default:
			filtered[lower] = value
		}
	}
	return filtered
}

// RedactQuery filters sensitive parameters out of a raw query string.
// An unparseable query is replaced with a fixed placeholder rather than
// risking a sensitive value in the logs.
func RedactQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "[QUERY_PARSE_ERROR]"
	}
	for key := range params {
		if isSensitiveKey(key) {
			params[key] = []string{FilterMarker}
		}
	}
	return params.Encode()
}
