// Package config assembles runtime configurations from CLI flags and
// profile names.
package config

import (
	"fmt"

	"github.com/shopspring/decimal"

	"ar-reconciliation-service/internal/matcher"
	"ar-reconciliation-service/internal/parsers"
)

// Profile names a preset matching configuration
type Profile string

const (
	ProfileDefault Profile = "default"
	ProfileStrict  Profile = "strict"
	ProfileRelaxed Profile = "relaxed"
)

// MatchingConfigForProfile returns the preset configuration for a
// named profile.
func MatchingConfigForProfile(name string) (*matcher.MatchingConfig, error) {
	switch Profile(name) {
	case ProfileDefault, "":
		return matcher.DefaultMatchingConfig(), nil
	case ProfileStrict:
		return matcher.StrictMatchingConfig(), nil
	case ProfileRelaxed:
		return matcher.RelaxedMatchingConfig(), nil
	default:
		return nil, fmt.Errorf("unknown matching profile %q (valid: default, strict, relaxed)", name)
	}
}

// MatchingOverrides holds flag values that override a profile's preset.
// Negative numeric values and false booleans mean "flag not set".
type MatchingOverrides struct {
	AmountTolerance     float64
	DateWindowDays      int
	MinConfidence       float64
	AllowAmountVariance bool
	EnableGrouped       bool
}

// BuildMatchingConfig resolves the profile preset, applies flag
// overrides and validates the result.
func BuildMatchingConfig(profile string, overrides MatchingOverrides) (*matcher.MatchingConfig, error) {
	cfg, err := MatchingConfigForProfile(profile)
	if err != nil {
		return nil, err
	}

	if overrides.AmountTolerance >= 0 {
		cfg.AmountTolerance = decimal.NewFromFloat(overrides.AmountTolerance)
	}
	if overrides.DateWindowDays >= 0 {
		cfg.DateWindowDays = overrides.DateWindowDays
	}
	if overrides.MinConfidence >= 0 {
		cfg.MinConfidence = overrides.MinConfidence
	}
	if overrides.AllowAmountVariance {
		cfg.AllowAmountVariance = true
	}
	if overrides.EnableGrouped {
		cfg.EnableGroupedMatching = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BuildParserConfig creates the parser configuration used by the CLI
func BuildParserConfig(maxRowErrors int) (*parsers.ParserConfig, error) {
	cfg := parsers.DefaultParserConfig()
	if maxRowErrors >= 0 {
		cfg.MaxRowErrors = maxRowErrors
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
