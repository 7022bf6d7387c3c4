// Package pattern vets regular expressions before they are allowed to run
// against untrusted message text. Built-in and tenant-supplied patterns go
// through the same gate on every use.
package pattern

import (
	"errors"
	"regexp"
	"regexp/syntax"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/smallbiznis/paysignal/internal/validation"
)

const MaxPatternLength = 500

type Kind string

const (
	KindAmount  Kind = "amount"
	KindPayer   Kind = "payer"
	KindGeneric Kind = "generic"
)

// allowedSymbols are the non-alphanumeric characters a pattern may contain.
const allowedSymbols = `[](){}*+?|^$.\-:/_, `

var permissivePayerPatterns = map[string]struct{}{
	`.*`:        {},
	`.+`:        {},
	`[\s\S]*`:   {},
	`[\s\S]+`:   {},
	`(.*)`:      {},
	`(.+)`:      {},
	`([\s\S]*)`: {},
	`([\s\S]+)`: {},
}

// Result is a validation.Result plus the compiled, case-insensitive
// expression when the pattern is accepted.
type Result struct {
	validation.Result
	Compiled *regexp.Regexp
}

// Validate checks length, the character whitelist, compileability and the
// capture group contract, then adds heuristic warnings. It is pure: the same
// input always yields the same errors and warnings.
func Validate(expr string, kind Kind) Result {
	res := Result{Result: validation.New()}

	if utf8.RuneCountInString(expr) > MaxPatternLength {
		res.AddError("Pattern too long (max %d chars)", MaxPatternLength)
	}
	if unsafe := unsafeChars(expr); len(unsafe) > 0 {
		res.AddError("Unsafe characters in pattern: %s", strings.Join(unsafe, " "))
	}

	compiled, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		// syntax.Error echoes the expression back; keep only the code.
		var syntaxErr *syntax.Error
		if errors.As(err, &syntaxErr) {
			res.AddError("Invalid RegEx pattern: %s", syntaxErr.Code)
		} else {
			res.AddError("Invalid RegEx pattern")
		}
		return res
	}

	if kind == KindAmount || kind == KindPayer {
		if n := compiled.NumSubexp(); n != 1 {
			res.AddError("Pattern must contain exactly one capture group (found %d)", n)
		}
	}

	if mayBacktrack(expr) {
		res.AddWarning("Pattern may cause performance issues")
	}

	switch kind {
	case KindAmount:
		if !hasDigitClass(expr) || compiled.NumSubexp() == 0 {
			res.AddWarning("Amount pattern may not capture decimal numbers correctly")
		}
	case KindPayer:
		if _, ok := permissivePayerPatterns[strings.TrimSpace(expr)]; ok {
			res.AddWarning("Payer pattern may be too permissive")
		}
	}

	if res.OK() {
		res.Compiled = compiled
	}
	return res
}

func isAllowed(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '\\':
		return true
	}
	return strings.ContainsRune(allowedSymbols, r)
}

func unsafeChars(expr string) []string {
	seen := map[rune]struct{}{}
	for _, r := range expr {
		if !isAllowed(r) {
			seen[r] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, strconv.QuoteRune(r))
	}
	sort.Strings(out)
	return out
}

func hasDigitClass(expr string) bool {
	return strings.Contains(expr, `\d`) || strings.Contains(expr, `[0-9`)
}

// mayBacktrack flags nested unbounded repetition, e.g. (\d+)+, and repeated
// alternation, e.g. (foo|bar)+. RE2 matching stays linear either way; the
// warning exists so pattern authors notice shapes that are fragile on other
// engines and usually indicate a mistake.
func mayBacktrack(expr string) bool {
	re, err := syntax.Parse(expr, syntax.Perl|syntax.FoldCase)
	if err != nil {
		return false
	}
	return walkRepeats(re, false)
}

func walkRepeats(re *syntax.Regexp, insideRepeat bool) bool {
	repeat := isUnboundedRepeat(re)
	if repeat && insideRepeat {
		return true
	}
	if insideRepeat && re.Op == syntax.OpAlternate {
		return true
	}
	for _, sub := range re.Sub {
		if walkRepeats(sub, insideRepeat || repeat) {
			return true
		}
	}
	return false
}

func isUnboundedRepeat(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpStar, syntax.OpPlus:
		return true
	case syntax.OpRepeat:
		return re.Max == -1 || re.Max > 1
	default:
		return false
	}
}
