package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation(t *testing.T) {
	cfg := Config{Report: ReportConfig{Timezone: " Asia/Phnom_Penh "}}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Phnom_Penh", loc.String())

	cfg.Report.Timezone = "Mars/Olympus"
	_, err = cfg.Location()
	assert.Error(t, err)
}
