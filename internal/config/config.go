package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"crmqc/domain/grid"
	"crmqc/domain/qc"
	"crmqc/internal"
	"crmqc/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Layout    grid.Layout
	Reference ReferenceConfig
	Defaults  OperatorDefaults
	Limits    LimitConfig
	Random    RandomConfig
	Sheet     string
	LogLevel  internal.LogLevel
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// ReferenceConfig points at an external certified value table. Sheet
// applies to xlsx reference files only; QC_SHEET names the sheet of the
// assay workbooks and is not used for the reference.
type ReferenceConfig struct {
	File  string // YAML, xlsx or csv; empty uses the in-file reference row
	Name  string // overrides the table name when set
	Row   int    // value row inside a spreadsheet reference file
	Sheet string // empty reads the first sheet
}

// OperatorDefaults pre-populate the operation parameters offered to hosts
type OperatorDefaults struct {
	Fill           qc.FillParams  `json:"fill"`
	DuplicateRange float64        `json:"duplicate_range"`
	DuplicateFix   qc.RangeParams `json:"duplicate_fix"`
	CrmRange       float64        `json:"crm_range"`
}

// LimitConfig holds detection limit settings
type LimitConfig struct {
	AboveMultiplier float64 // 0 disables the ">limit" rule
}

// RandomConfig seeds the factor sampler
type RandomConfig struct {
	Seed uint64 // 0 picks a time-based seed
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	layout, err := loadLayout()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load row layout")
	}

	level := internal.LogLevelInfo
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if level, err = internal.ParseLogLevel(raw); err != nil {
			return nil, errors.ConfigInvalid(err.Error())
		}
	}

	config := &Config{
		Server:    *loadServerConfig(),
		Layout:    layout,
		Reference: *loadReferenceConfig(),
		Defaults:  *loadOperatorDefaults(),
		Limits: LimitConfig{
			AboveMultiplier: getEnvFloatOrDefault("QC_LIMIT_ABOVE_MULTIPLIER", 0),
		},
		Random: RandomConfig{
			Seed: getEnvUintOrDefault("QC_SEED", 0),
		},
		Sheet:    getEnvOrDefault("QC_SHEET", ""),
		LogLevel: level,
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadLayout() (grid.Layout, error) {
	layout := grid.DefaultLayout()
	if raw := os.Getenv("QC_RESERVED_ROWS"); raw != "" {
		rows, err := parseIntList(raw)
		if err != nil {
			return grid.Layout{}, errors.ConfigInvalid(fmt.Sprintf("QC_RESERVED_ROWS: %v", err))
		}
		layout.ReservedRows = rows
	}
	layout.HeaderRow = getEnvIntOrDefault("QC_HEADER_ROW", layout.HeaderRow)
	layout.LimitRow = getEnvIntOrDefault("QC_LIMIT_ROW", layout.LimitRow)
	layout.ReferenceRow = getEnvIntOrDefault("QC_REFERENCE_ROW", layout.ReferenceRow)
	return layout, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadReferenceConfig() *ReferenceConfig {
	return &ReferenceConfig{
		File:  getEnvOrDefault("QC_CRM_FILE", ""),
		Name:  getEnvOrDefault("QC_CRM_NAME", ""),
		Row:   getEnvIntOrDefault("QC_CRM_ROW", 1),
		Sheet: getEnvOrDefault("QC_CRM_SHEET", ""),
	}
}

func loadOperatorDefaults() *OperatorDefaults {
	fill := qc.DefaultFillParams()
	return &OperatorDefaults{
		Fill: qc.FillParams{
			Min:    getEnvFloatOrDefault("QC_FILL_MIN", fill.Min),
			Max:    getEnvFloatOrDefault("QC_FILL_MAX", fill.Max),
			Offset: getEnvFloatOrDefault("QC_FILL_OFFSET", fill.Offset),
			Ratio:  getEnvFloatOrDefault("QC_FILL_RATIO", fill.Ratio),
		},
		DuplicateRange: getEnvFloatOrDefault("QC_DUP_RANGE", 0.05),
		DuplicateFix: qc.RangeParams{
			Min: getEnvFloatOrDefault("QC_DUP_FIX_MIN", 0.9),
			Max: getEnvFloatOrDefault("QC_DUP_FIX_MAX", 1.1),
		},
		CrmRange: getEnvFloatOrDefault("QC_CRM_RANGE", 0.1),
	}
}

func validateConfig(config *Config) error {
	if err := config.Layout.Validate(); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if err := config.Defaults.Fill.Validate(); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if err := config.Defaults.DuplicateFix.Validate(); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if config.Defaults.DuplicateRange < 0 || config.Defaults.CrmRange < 0 {
		return errors.ConfigInvalid("range fractions must not be negative")
	}
	if config.Limits.AboveMultiplier < 0 {
		return errors.ConfigInvalid("QC_LIMIT_ABOVE_MULTIPLIER must not be negative")
	}
	if config.Reference.File != "" && config.Reference.Row < 1 {
		return errors.ConfigInvalid("QC_CRM_ROW must be 1 or greater")
	}
	return nil
}

func parseIntList(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%q is not a row index", part)
		}
		out = append(out, n)
	}
	return out, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvUintOrDefault(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
