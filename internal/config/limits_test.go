package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitsConfigCeiling(t *testing.T) {
	cfg := DefaultLimitsConfig()

	assert.Equal(t, 100, cfg.Ceiling(ActionParsePayment))
	assert.Equal(t, 20, cfg.Ceiling(ActionAdminCommand))
	assert.Equal(t, 10, cfg.Ceiling(ActionPatternTest))
	assert.Equal(t, 50, cfg.Ceiling("something_else"))
	assert.Equal(t, 10, cfg.Ceiling("  PATTERN_TEST "))
}

func TestMergeLimitDefaultsKeepsBuiltins(t *testing.T) {
	merged := mergeLimitDefaults(LimitsConfig{Actions: map[string]int{"Pattern_Test": 3}})

	require.NoError(t, validateLimits(merged))
	assert.Equal(t, 50, merged.Default)
	assert.Equal(t, 3, merged.Ceiling(ActionPatternTest))
	assert.Equal(t, 100, merged.Ceiling(ActionParsePayment))
}

func TestValidateLimitsRejectsNonPositive(t *testing.T) {
	err := validateLimits(LimitsConfig{Default: 10, Actions: map[string]int{"x": 0}})
	assert.Error(t, err)
}
