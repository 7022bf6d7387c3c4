package pattern

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBuiltinPatterns(t *testing.T) {
	tests := []struct {
		expr string
		kind Kind
	}{
		{`Received Payment Amount\s+([\d.]+)\s+USD`, KindAmount},
		{`- Paid by:\s+([^/]+)\s+/`, KindPayer},
		{`Amount:\s*USD\s*([\d.]+)`, KindAmount},
		{`From:\s*([^,\n]+)`, KindPayer},
		{`Sender:\s*([^,\n]+)`, KindPayer},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			res := Validate(tt.expr, tt.kind)
			require.True(t, res.OK(), "errors: %v", res.Errors)
			assert.Empty(t, res.Warnings)
			require.NotNil(t, res.Compiled)
			assert.True(t, strings.HasPrefix(res.Compiled.String(), "(?i)"))
		})
	}
}

func TestValidateRejectsUnsafeCharacters(t *testing.T) {
	for _, expr := range []string{`Amount;\s*([\d.]+)`, "Amount`([\\d.]+)", `Amount=([\d.]+)`} {
		res := Validate(expr, KindGeneric)
		assert.False(t, res.OK(), expr)
		assert.Nil(t, res.Compiled)
		assert.Contains(t, res.Errors[0], "Unsafe characters")
	}
}

func TestValidateTooLong(t *testing.T) {
	res := Validate("("+strings.Repeat("a", MaxPatternLength)+")", KindGeneric)
	assert.False(t, res.OK())
	assert.Contains(t, res.Errors, "Pattern too long (max 500 chars)")
}

func TestValidateCompileError(t *testing.T) {
	res := Validate(`Amount:\s*([\d.]+`, KindAmount)
	assert.False(t, res.OK())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Invalid RegEx pattern: missing closing )", res.Errors[0])
	assert.NotContains(t, res.Errors[0], "Amount")
}

func TestValidateCaptureGroupContract(t *testing.T) {
	assert.False(t, Validate(`Amount\s+\d+`, KindAmount).OK())
	assert.False(t, Validate(`(Amount)\s+(\d+)`, KindAmount).OK())
	assert.True(t, Validate(`(?:Amount|Total)\s+(\d+)`, KindAmount).OK())
	assert.True(t, Validate(`Amount\s+\d+`, KindGeneric).OK())
}

func TestValidateWarnings(t *testing.T) {
	t.Run("nested repetition", func(t *testing.T) {
		res := Validate(`Amount\s+((\d+)+)`, KindGeneric)
		assert.True(t, res.OK())
		assert.Contains(t, res.Warnings, "Pattern may cause performance issues")
	})

	t.Run("repeated alternation", func(t *testing.T) {
		res := Validate(`(foo|bar)+`, KindGeneric)
		assert.Contains(t, res.Warnings, "Pattern may cause performance issues")
	})

	t.Run("amount without digit class", func(t *testing.T) {
		res := Validate(`Amount:\s*(\S+)`, KindAmount)
		assert.True(t, res.OK())
		assert.Contains(t, res.Warnings, "Amount pattern may not capture decimal numbers correctly")
	})

	t.Run("permissive payer", func(t *testing.T) {
		res := Validate(`(.*)`, KindPayer)
		assert.True(t, res.OK())
		assert.Contains(t, res.Warnings, "Payer pattern may be too permissive")
	})
}

func TestValidateIsIdempotent(t *testing.T) {
	for _, expr := range []string{`From:\s*([^,\n]+)`, `bad;pattern(`, `(foo|bar)+`} {
		first := Validate(expr, KindPayer)
		second := Validate(expr, KindPayer)
		assert.Equal(t, first.Errors, second.Errors)
		assert.Equal(t, first.Warnings, second.Warnings)
	}
}

func TestValidatedPatternMatchesCaseInsensitive(t *testing.T) {
	res := Validate(`received payment amount\s+([\d.]+)\s+usd`, KindAmount)
	require.True(t, res.OK())
	m := res.Compiled.FindStringSubmatch("Received Payment Amount 15.50 USD")
	require.Len(t, m, 2)
	assert.Equal(t, "15.50", m[1])
}
