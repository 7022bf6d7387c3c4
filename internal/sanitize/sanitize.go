// Package sanitize normalizes and defangs untrusted text before any pattern
// runs against it or any value is logged or stored.
package sanitize

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/smallbiznis/paysignal/internal/validation"
	"golang.org/x/text/unicode/norm"
)

const (
	MaxMessageLength   = 5000
	MaxGroupIDLength   = 50
	MaxPayerNameLength = 100
)

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)eval\(`),
	regexp.MustCompile(`(?i)exec\(`),
	regexp.MustCompile(`(?i)import\s+os`),
	regexp.MustCompile(`(?i)import\s+subprocess`),
	regexp.MustCompile(`(?i)__import__`),
	regexp.MustCompile(`\$\{.*\}`),
	regexp.MustCompile(`#\{.*\}`),
}

type MessageResult struct {
	validation.Result
	Sanitized string
}

type TenantResult struct {
	validation.Result
	Sanitized string
}

type PayerResult struct {
	validation.Result
	Sanitized string
}

// InputResult is the combined check applied to every inbound message.
type InputResult struct {
	validation.Result
	Message string
	GroupID string
}

// Input validates a raw message together with the group it arrived in.
func Input(message, groupID string) InputResult {
	msg := Message(message)
	tenant := TenantID(groupID)

	out := InputResult{Result: validation.New(), Message: msg.Sanitized, GroupID: tenant.Sanitized}
	out.Merge("", msg.Result)
	out.Merge("", tenant.Result)
	return out
}

// Message escapes markup, strips control characters and collapses whitespace.
// Oversized input is flagged invalid; the sanitized text is still returned.
func Message(text string) MessageResult {
	res := MessageResult{Result: validation.New()}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		res.AddError("Message too long (max %d chars)", MaxMessageLength)
	}
	if Suspicious(text) {
		res.AddWarning("Message contains potentially suspicious content")
	}
	res.Sanitized = collapseSpace(stripControl(html.EscapeString(norm.NFC.String(text))))
	return res
}

// TenantID keeps only ASCII alphanumerics, hyphen and underscore.
func TenantID(id string) TenantResult {
	res := TenantResult{Result: validation.New()}
	if utf8.RuneCountInString(id) > MaxGroupIDLength {
		res.AddError("Group ID too long (max %d chars)", MaxGroupIDLength)
	}

	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if r < utf8.RuneSelf && (r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	res.Sanitized = b.String()
	return res
}

// PayerName cleans an extracted payer capture into a display name.
func PayerName(raw string) PayerResult {
	res := PayerResult{Result: validation.New()}
	trimmed := strings.TrimSpace(raw)
	if utf8.RuneCountInString(trimmed) > MaxPayerNameLength {
		res.AddError("Payer name too long (max %d chars)", MaxPayerNameLength)
	}
	if Suspicious(trimmed) {
		res.AddWarning("Payer name contains suspicious content")
	}

	// Edges are trimmed before escaping so entities stay whole.
	cleaned := strings.TrimFunc(collapseSpace(stripControl(norm.NFC.String(trimmed))), isNonWord)
	res.Sanitized = html.EscapeString(cleaned)
	return res
}

// Suspicious reports whether text matches the script/template denylist. It is a
// logging signal only and never a reason to refuse a message.
func Suspicious(text string) bool {
	for _, p := range suspiciousPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// stripControl drops control characters but keeps whitespace for collapseSpace.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

func isNonWord(r rune) bool {
	return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
}
