// Package matcher implements the invoice-to-bank-line matching engine.
//
// Matching runs in stages:
//  1. A greedy one-to-one pass scores every open bank line against each
//     invoice in input order and accepts the best candidate above the
//     confidence threshold.
//  2. Optional grouped passes pair one invoice with two bank lines
//     (split payments) and two invoices with one bank line (combined
//     payments).
//  3. Classification assigns confidence tiers and ages the unmatched
//     invoices into standard AR buckets.
//
// Example usage:
//
//	config := matcher.DefaultMatchingConfig()
//	config.EnableGroupedMatching = true
//
//	engine := matcher.NewMatchingEngine(config)
//	result, err := engine.Reconcile(ctx, invoices, bankLines, nil)
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MatchType classifies how a match was formed
type MatchType int

const (
	// MatchExact is a one-to-one invoice to bank line match
	MatchExact MatchType = iota

	// MatchOneToMany is one invoice settled by two bank lines
	MatchOneToMany

	// MatchManyToOne is two invoices settled by one bank line
	MatchManyToOne
)

// String returns the string representation of MatchType
func (mt MatchType) String() string {
	switch mt {
	case MatchExact:
		return "Exact"
	case MatchOneToMany:
		return "OneToMany"
	case MatchManyToOne:
		return "ManyToOne"
	default:
		return "Unknown"
	}
}

// ConfidenceTier buckets composite scores for review triage
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// TierForScore maps a composite score to its confidence tier
func TierForScore(score float64) ConfidenceTier {
	switch {
	case score >= 0.85:
		return ConfidenceHigh
	case score >= 0.70:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// MatchingConfig holds the tunable parameters of the matching engine.
//
// Use the factory functions for common scenarios:
//   - DefaultMatchingConfig(): balanced defaults for most AR data
//   - StrictMatchingConfig(): tight tolerances for audited books
//   - RelaxedMatchingConfig(): loose tolerances for messy exports
type MatchingConfig struct {
	// AmountTolerance is the absolute amount difference treated as equal
	AmountTolerance decimal.Decimal `json:"amount_tolerance"`

	// DateWindowDays is the day gap within which the date score is nonzero
	DateWindowDays int `json:"date_window_days"`

	// MinConfidence is the composite score required to accept a match
	MinConfidence float64 `json:"min_confidence"`

	// AllowAmountVariance accepts matches whose amounts differ beyond
	// the tolerance when the composite score still clears the threshold
	AllowAmountVariance bool `json:"allow_amount_variance"`

	// EnableGroupedMatching turns on the split and combined payment passes
	EnableGroupedMatching bool `json:"enable_grouped_matching"`

	// BatchSize is the number of invoices processed between cancellation checks
	BatchSize int `json:"batch_size"`

	// GroupScanWindow caps how many amount-nearest bank lines the split
	// payment pass considers per invoice
	GroupScanWindow int `json:"group_scan_window"`

	// Weights are the relative importance of each scoring criterion
	Weights MatchingWeights `json:"weights"`
}

// MatchingWeights defines the relative importance of the scoring criteria
type MatchingWeights struct {
	ReferenceWeight float64 `json:"reference_weight"`
	AmountWeight    float64 `json:"amount_weight"`
	DateWeight      float64 `json:"date_weight"`
	CustomerWeight  float64 `json:"customer_weight"`
}

// DefaultMatchingConfig returns a configuration with sensible defaults
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		AmountTolerance:       decimal.NewFromFloat(0.01),
		DateWindowDays:        7,
		MinConfidence:         0.75,
		AllowAmountVariance:   false,
		EnableGroupedMatching: false,
		BatchSize:             200,
		GroupScanWindow:       40,
		Weights: MatchingWeights{
			ReferenceWeight: 0.45,
			AmountWeight:    0.35,
			DateWeight:      0.10,
			CustomerWeight:  0.10,
		},
	}
}

// StrictMatchingConfig returns a configuration for strict matching
func StrictMatchingConfig() *MatchingConfig {
	config := DefaultMatchingConfig()
	config.DateWindowDays = 3
	config.MinConfidence = 0.90
	return config
}

// RelaxedMatchingConfig returns a configuration for relaxed matching
func RelaxedMatchingConfig() *MatchingConfig {
	config := DefaultMatchingConfig()
	config.AmountTolerance = decimal.NewFromFloat(1.00)
	config.DateWindowDays = 14
	config.MinConfidence = 0.60
	config.AllowAmountVariance = true
	config.EnableGroupedMatching = true
	return config
}

// Validate checks if the matching configuration is valid
func (mc *MatchingConfig) Validate() error {
	if mc.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance cannot be negative: %s", mc.AmountTolerance.String())
	}

	if mc.DateWindowDays < 0 {
		return fmt.Errorf("date window days cannot be negative: %d", mc.DateWindowDays)
	}

	if mc.MinConfidence < 0.0 || mc.MinConfidence > 1.0 {
		return fmt.Errorf("minimum confidence must be between 0.0 and 1.0: %f", mc.MinConfidence)
	}

	if mc.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive: %d", mc.BatchSize)
	}

	if mc.GroupScanWindow <= 0 {
		return fmt.Errorf("group scan window must be positive: %d", mc.GroupScanWindow)
	}

	if err := mc.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}

	return nil
}

// Validate checks that no weight is negative. Weights need not sum
// to 1; the composite score is clamped instead.
func (mw *MatchingWeights) Validate() error {
	for name, w := range map[string]float64{
		"reference": mw.ReferenceWeight,
		"amount":    mw.AmountWeight,
		"date":      mw.DateWeight,
		"customer":  mw.CustomerWeight,
	} {
		if w < 0.0 {
			return fmt.Errorf("%s weight must be non-negative: %f", name, w)
		}
	}

	return nil
}

// Clone creates a deep copy of the matching configuration
func (mc *MatchingConfig) Clone() *MatchingConfig {
	if mc == nil {
		return nil
	}

	clone := *mc
	return &clone
}

// WithinTolerance reports whether two amounts differ by at most the
// configured tolerance.
func (mc *MatchingConfig) WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(mc.AmountTolerance)
}

// String returns a human-readable description of the configuration
func (mc *MatchingConfig) String() string {
	return fmt.Sprintf("MatchingConfig{Tolerance: %s, DateWindow: %d days, MinConfidence: %.2f, Grouped: %t}",
		mc.AmountTolerance.String(), mc.DateWindowDays, mc.MinConfidence, mc.EnableGroupedMatching)
}
