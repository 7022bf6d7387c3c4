// Package validation defines the outcome shape shared by every pipeline stage.
package validation

import "fmt"

// Result carries hard errors, which block an operation, and soft warnings,
// which never do. The zero value is a failed result with no messages; use
// New to start from a passing one.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func New() Result {
	return Result{Valid: true, Errors: []string{}, Warnings: []string{}}
}

func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Valid = false
}

func (r *Result) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Merge folds other into r, prefixing each message with prefix when set.
func (r *Result) Merge(prefix string, other Result) {
	for _, msg := range other.Errors {
		r.AddError("%s", withPrefix(prefix, msg))
	}
	for _, msg := range other.Warnings {
		r.AddWarning("%s", withPrefix(prefix, msg))
	}
	if !other.Valid {
		r.Valid = false
	}
}

func (r Result) OK() bool {
	return r.Valid && len(r.Errors) == 0
}

func withPrefix(prefix, msg string) string {
	if prefix == "" {
		return msg
	}
	return prefix + ": " + msg
}
