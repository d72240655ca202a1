package config

import (
	"testing"

	"crmqc/domain/grid"
	"crmqc/internal"
	"crmqc/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, grid.DefaultLayout(), cfg.Layout)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 0.9, cfg.Defaults.Fill.Min)
	assert.Equal(t, 1.1, cfg.Defaults.Fill.Max)
	assert.Equal(t, 1.0, cfg.Defaults.Fill.Ratio)
	assert.Equal(t, 0.05, cfg.Defaults.DuplicateRange)
	assert.Equal(t, 0.1, cfg.Defaults.CrmRange)
	assert.Equal(t, 0.0, cfg.Limits.AboveMultiplier)
	assert.Equal(t, uint64(0), cfg.Random.Seed)
	assert.Equal(t, 1, cfg.Reference.Row)
	assert.Equal(t, internal.LogLevelInfo, cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("QC_RESERVED_ROWS", "0, 1, 2")
	t.Setenv("QC_LIMIT_ROW", "2")
	t.Setenv("QC_REFERENCE_ROW", "-1")
	t.Setenv("QC_FILL_MIN", "0.95")
	t.Setenv("QC_SEED", "42")
	t.Setenv("QC_CRM_FILE", "crm.yaml")
	t.Setenv("QC_LIMIT_ABOVE_MULTIPLIER", "10")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, cfg.Layout.ReservedRows)
	assert.Equal(t, 2, cfg.Layout.LimitRow)
	assert.Equal(t, -1, cfg.Layout.ReferenceRow)
	assert.Equal(t, 0.95, cfg.Defaults.Fill.Min)
	assert.Equal(t, uint64(42), cfg.Random.Seed)
	assert.Equal(t, "crm.yaml", cfg.Reference.File)
	assert.Equal(t, 10.0, cfg.Limits.AboveMultiplier)
	assert.Equal(t, internal.LogLevelDebug, cfg.LogLevel)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad row list", map[string]string{"QC_RESERVED_ROWS": "0,x"}},
		{"limit row not reserved", map[string]string{"QC_LIMIT_ROW": "1"}},
		{"inverted fill range", map[string]string{"QC_FILL_MIN": "2"}},
		{"negative range", map[string]string{"QC_CRM_RANGE": "-0.1"}},
		{"negative multiplier", map[string]string{"QC_LIMIT_ABOVE_MULTIPLIER": "-1"}},
		{"unknown log level", map[string]string{"LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
