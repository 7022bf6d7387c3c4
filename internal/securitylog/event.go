// Package securitylog records security relevant pipeline events. Details
// never carry clear-text payer names or custom pattern text; callers pass
// them through Hash first.
package securitylog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

type EventType string

const (
	EventPaymentParsed       EventType = "payment_parsed"
	EventInvalidPattern      EventType = "invalid_regex_pattern"
	EventRateLimitExceeded   EventType = "rate_limit_exceeded"
	EventParsingError        EventType = "parsing_error"
	EventPatternTest         EventType = "pattern_test"
	EventPatternTestError    EventType = "pattern_test_error"
	EventSuspiciousContent   EventType = "suspicious_content"
	EventInvalidInput        EventType = "invalid_input"
	EventAuthorizationDenied EventType = "authorization_denied"
)

type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"event_type"`
	Severity  Severity       `json:"severity"`
	Details   map[string]any `json:"details"`
}

type Sink interface {
	Record(ctx context.Context, event Event)
}

// Hash returns the hex SHA-256 digest of value.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

const maskToken = "****"

// MaskSecret redacts a credential, keeping its type prefix and last four
// characters: "pb_abcdef123456" becomes "pb_****3456".
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	prefix, remainder := splitPrefix(trimmed)
	if len(remainder) <= 4 {
		return prefix + maskToken
	}
	return prefix + maskToken + remainder[len(remainder)-4:]
}

// splitPrefix splits on the first underscore; the random part of a key may
// contain underscores of its own.
func splitPrefix(value string) (string, string) {
	i := strings.IndexByte(value, '_')
	if i <= 0 || i == len(value)-1 {
		return "", value
	}
	return value[:i+1], value[i+1:]
}
