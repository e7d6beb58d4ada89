package matcher

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ar-reconciliation-service/internal/models"
)

// AgingBucket is a standard accounts-receivable aging band
type AgingBucket string

const (
	AgingCurrent  AgingBucket = "Current"
	Aging1To30    AgingBucket = "1-30"
	Aging31To60   AgingBucket = "31-60"
	Aging61To90   AgingBucket = "61-90"
	Aging91To180  AgingBucket = "91-180"
	Aging181To360 AgingBucket = "181-360"
	AgingOver360  AgingBucket = "361+"
)

// AgingBuckets lists all buckets in display order
var AgingBuckets = []AgingBucket{
	AgingCurrent, Aging1To30, Aging31To60, Aging61To90,
	Aging91To180, Aging181To360, AgingOver360,
}

// AgingBucketFor places an invoice in its aging band as of the given
// date. Aging counts from the due date, falling back to the invoice
// date when no due date is present.
func AgingBucketFor(invoice *models.Invoice, asOf time.Time) (AgingBucket, int) {
	days := models.DaysBetween(invoice.AgingDate(), asOf)
	switch {
	case days <= 0:
		return AgingCurrent, days
	case days <= 30:
		return Aging1To30, days
	case days <= 60:
		return Aging31To60, days
	case days <= 90:
		return Aging61To90, days
	case days <= 180:
		return Aging91To180, days
	case days <= 360:
		return Aging181To360, days
	default:
		return AgingOver360, days
	}
}

// Match is an accepted pairing of invoices and bank lines
type Match struct {
	Type       MatchType          `json:"type"`
	Invoices   []*models.Invoice  `json:"invoices"`
	BankLines  []*models.BankLine `json:"bankLines"`
	Score      float64            `json:"score"`
	Confidence ConfidenceTier     `json:"confidence"`
	Components *ComponentScores   `json:"components,omitempty"`

	// Display fields synthesized for grouped matches
	Description string `json:"description"`
	Reference   string `json:"reference"`
}

// newExactMatch builds a one-to-one match from a candidate score
func newExactMatch(candidate CandidateScore) *Match {
	components := candidate.Components
	return &Match{
		Type:        MatchExact,
		Invoices:    []*models.Invoice{candidate.Invoice},
		BankLines:   []*models.BankLine{candidate.BankLine},
		Score:       candidate.Composite,
		Confidence:  TierForScore(candidate.Composite),
		Components:  &components,
		Description: candidate.BankLine.Description,
		Reference:   candidate.BankLine.Reference,
	}
}

// newGroupedMatch builds a grouped match with synthesized display fields
func newGroupedMatch(matchType MatchType, invoices []*models.Invoice, lines []*models.BankLine, score float64) *Match {
	descriptions := make([]string, 0, len(lines))
	references := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.Description != "" {
			descriptions = append(descriptions, line.Description)
		}
		if line.Reference != "" {
			references = append(references, line.Reference)
		}
	}

	return &Match{
		Type:        matchType,
		Invoices:    invoices,
		BankLines:   lines,
		Score:       score,
		Confidence:  ConfidenceMedium,
		Description: strings.Join(descriptions, " | "),
		Reference:   strings.Join(references, " + "),
	}
}

// UnmatchedInvoice is an open invoice with its aging classification
type UnmatchedInvoice struct {
	Invoice         *models.Invoice `json:"invoice"`
	AgingBucket     AgingBucket     `json:"agingBucket"`
	DaysOutstanding int             `json:"daysOutstanding"`
}

// AgingTotal aggregates open invoices within one aging band
type AgingTotal struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Summary aggregates a reconciliation run
type Summary struct {
	TotalInvoices     int                         `json:"totalInvoices"`
	TotalBankLines    int                         `json:"totalBankLines"`
	MatchedInvoices   int                         `json:"matchedInvoices"`
	MatchedBankLines  int                         `json:"matchedBankLines"`
	InvoiceMatchRate  float64                     `json:"invoiceMatchRate"`
	BankLineMatchRate float64                     `json:"bankLineMatchRate"`
	MatchedAmount     decimal.Decimal             `json:"matchedAmount"`
	OpenAmount        decimal.Decimal             `json:"openAmount"`
	ByConfidence      map[ConfidenceTier]int      `json:"byConfidence"`
	ByType            map[string]int              `json:"byType"`
	Aging             map[AgingBucket]*AgingTotal `json:"aging"`
	AsOf              time.Time                   `json:"asOf"`
	Duration          time.Duration               `json:"duration"`
}

// ReconciliationResult is the complete outcome of a run
type ReconciliationResult struct {
	Matches            []*Match            `json:"matches"`
	UnmatchedInvoices  []*UnmatchedInvoice `json:"unmatchedInvoices"`
	UnmatchedBankLines []*models.BankLine  `json:"unmatchedBankLines"`
	Summary            *Summary            `json:"summary"`
}

// buildResult classifies leftovers and aggregates the summary
func buildResult(invoices []*models.Invoice, lines []*models.BankLine, matches []*Match, ledger *ConsumptionLedger, asOf time.Time, duration time.Duration) *ReconciliationResult {
	result := &ReconciliationResult{
		Matches:            matches,
		UnmatchedInvoices:  make([]*UnmatchedInvoice, 0),
		UnmatchedBankLines: make([]*models.BankLine, 0),
	}

	summary := &Summary{
		TotalInvoices:  len(invoices),
		TotalBankLines: len(lines),
		MatchedAmount:  decimal.Zero,
		OpenAmount:     decimal.Zero,
		ByConfidence:   make(map[ConfidenceTier]int),
		ByType:         make(map[string]int),
		Aging:          make(map[AgingBucket]*AgingTotal),
		AsOf:           asOf,
		Duration:       duration,
	}
	for _, bucket := range AgingBuckets {
		summary.Aging[bucket] = &AgingTotal{Amount: decimal.Zero}
	}

	for _, match := range matches {
		summary.ByConfidence[match.Confidence]++
		summary.ByType[match.Type.String()]++
		summary.MatchedInvoices += len(match.Invoices)
		summary.MatchedBankLines += len(match.BankLines)
		for _, invoice := range match.Invoices {
			summary.MatchedAmount = summary.MatchedAmount.Add(invoice.Amount)
		}
	}

	for _, invoice := range invoices {
		if ledger.IsInvoiceConsumed(invoice.ID) {
			continue
		}
		bucket, days := AgingBucketFor(invoice, asOf)
		result.UnmatchedInvoices = append(result.UnmatchedInvoices, &UnmatchedInvoice{
			Invoice:         invoice,
			AgingBucket:     bucket,
			DaysOutstanding: days,
		})
		summary.OpenAmount = summary.OpenAmount.Add(invoice.Amount)
		summary.Aging[bucket].Count++
		summary.Aging[bucket].Amount = summary.Aging[bucket].Amount.Add(invoice.Amount)
	}

	for _, line := range lines {
		if !ledger.IsBankLineConsumed(line.ID) {
			result.UnmatchedBankLines = append(result.UnmatchedBankLines, line)
		}
	}

	if summary.TotalInvoices > 0 {
		summary.InvoiceMatchRate = float64(summary.MatchedInvoices) / float64(summary.TotalInvoices) * 100
	}
	if summary.TotalBankLines > 0 {
		summary.BankLineMatchRate = float64(summary.MatchedBankLines) / float64(summary.TotalBankLines) * 100
	}

	result.Summary = summary
	return result
}
