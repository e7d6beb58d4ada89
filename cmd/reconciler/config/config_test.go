package config

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMatchingConfigForProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		wantErr bool
	}{
		{"default", "default", false},
		{"empty means default", "", false},
		{"strict", "strict", false},
		{"relaxed", "relaxed", false},
		{"unknown", "paranoid", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := MatchingConfigForProfile(tt.profile)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MatchingConfigForProfile(%q) error = %v, wantErr %v", tt.profile, err, tt.wantErr)
			}
			if !tt.wantErr && cfg == nil {
				t.Fatal("expected a config, got nil")
			}
		})
	}
}

func TestProfilePresetsDiffer(t *testing.T) {
	strict, _ := MatchingConfigForProfile("strict")
	relaxed, _ := MatchingConfigForProfile("relaxed")

	if strict.MinConfidence <= relaxed.MinConfidence {
		t.Errorf("strict MinConfidence %.2f should exceed relaxed %.2f", strict.MinConfidence, relaxed.MinConfidence)
	}
	if !relaxed.EnableGroupedMatching {
		t.Error("relaxed profile should enable grouped matching")
	}
	if strict.EnableGroupedMatching {
		t.Error("strict profile should not enable grouped matching")
	}
}

func TestBuildMatchingConfigOverrides(t *testing.T) {
	cfg, err := BuildMatchingConfig("default", MatchingOverrides{
		AmountTolerance: 0.50,
		DateWindowDays:  14,
		MinConfidence:   0.80,
		EnableGrouped:   true,
	})
	if err != nil {
		t.Fatalf("BuildMatchingConfig() error = %v", err)
	}

	if !cfg.AmountTolerance.Equal(decimal.NewFromFloat(0.50)) {
		t.Errorf("AmountTolerance = %s, want 0.5", cfg.AmountTolerance)
	}
	if cfg.DateWindowDays != 14 {
		t.Errorf("DateWindowDays = %d, want 14", cfg.DateWindowDays)
	}
	if cfg.MinConfidence != 0.80 {
		t.Errorf("MinConfidence = %.2f, want 0.80", cfg.MinConfidence)
	}
	if !cfg.EnableGroupedMatching {
		t.Error("EnableGroupedMatching should be set by the override")
	}
}

func TestBuildMatchingConfigNegativeMeansUnset(t *testing.T) {
	base, _ := MatchingConfigForProfile("default")
	cfg, err := BuildMatchingConfig("default", MatchingOverrides{
		AmountTolerance: -1,
		DateWindowDays:  -1,
		MinConfidence:   -1,
	})
	if err != nil {
		t.Fatalf("BuildMatchingConfig() error = %v", err)
	}

	if !cfg.AmountTolerance.Equal(base.AmountTolerance) {
		t.Errorf("AmountTolerance = %s, want profile default %s", cfg.AmountTolerance, base.AmountTolerance)
	}
	if cfg.DateWindowDays != base.DateWindowDays {
		t.Errorf("DateWindowDays = %d, want profile default %d", cfg.DateWindowDays, base.DateWindowDays)
	}
	if cfg.MinConfidence != base.MinConfidence {
		t.Errorf("MinConfidence = %.2f, want profile default %.2f", cfg.MinConfidence, base.MinConfidence)
	}
}

func TestBuildMatchingConfigRejectsInvalid(t *testing.T) {
	if _, err := BuildMatchingConfig("default", MatchingOverrides{MinConfidence: 1.5}); err == nil {
		t.Error("expected validation error for MinConfidence 1.5")
	}
	if _, err := BuildMatchingConfig("bogus", MatchingOverrides{}); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestBuildParserConfig(t *testing.T) {
	cfg, err := BuildParserConfig(5)
	if err != nil {
		t.Fatalf("BuildParserConfig() error = %v", err)
	}
	if cfg.MaxRowErrors != 5 {
		t.Errorf("MaxRowErrors = %d, want 5", cfg.MaxRowErrors)
	}

	cfg, err = BuildParserConfig(-1)
	if err != nil {
		t.Fatalf("BuildParserConfig(-1) error = %v", err)
	}
	if cfg.MaxRowErrors <= 0 {
		t.Errorf("MaxRowErrors = %d, want the default budget", cfg.MaxRowErrors)
	}
}
