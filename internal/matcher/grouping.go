package matcher

import (
	"sort"

	"github.com/shopspring/decimal"

	"ar-reconciliation-service/internal/models"
)

// combinedPaymentScore is assigned to two-invoices-to-one-line matches.
// There is no per-criterion evidence to score, the amount sum is the
// only signal, so a flat medium-tier score is used.
const combinedPaymentScore = 0.78

// matchSplitPayments pairs one open invoice with two open bank lines
// whose amounts sum to the invoice amount. Only the GroupScanWindow
// lines nearest the invoice amount are considered, and the first
// satisfying pair wins.
func (e *MatchingEngine) matchSplitPayments(invoices []*models.Invoice, lines []*models.BankLine, ledger *ConsumptionLedger) []*Match {
	matches := make([]*Match, 0)
	index := NewBankLineIndex(lines)

	open := func(line *models.BankLine) bool {
		return !ledger.IsBankLineConsumed(line.ID)
	}

	for _, invoice := range invoices {
		if ledger.IsInvoiceConsumed(invoice.ID) {
			continue
		}

		window := index.NearestByAmount(invoice.Amount, e.config.GroupScanWindow, open)

		first, second := findSplitPair(invoice.Amount, window, e.config.AmountTolerance)
		if first == nil {
			continue
		}

		ledger.MarkInvoiceConsumed(invoice.ID)
		ledger.MarkBankLineConsumed(first.ID)
		ledger.MarkBankLineConsumed(second.ID)

		score := splitPaymentScore(invoice.Amount, first.Amount.Add(second.Amount))
		matches = append(matches, newGroupedMatch(MatchOneToMany,
			[]*models.Invoice{invoice},
			[]*models.BankLine{first, second},
			score))
	}

	return matches
}

// findSplitPair returns the first ordered pair in the window whose
// amounts sum within tolerance of the target.
func findSplitPair(target decimal.Decimal, window []*models.BankLine, tolerance decimal.Decimal) (*models.BankLine, *models.BankLine) {
	for i := 0; i < len(window); i++ {
		for j := i + 1; j < len(window); j++ {
			sum := window[i].Amount.Add(window[j].Amount)
			if sum.Sub(target).Abs().LessThanOrEqual(tolerance) {
				return window[i], window[j]
			}
		}
	}
	return nil, nil
}

// splitPaymentScore rewards how closely the pair's sum lands on the
// invoice amount, floored at 0.7 and capped at 1.
func splitPaymentScore(target, sum decimal.Decimal) float64 {
	base, _ := target.Abs().Float64()
	if base < 1 {
		base = 1
	}
	diff, _ := sum.Sub(target).Abs().Float64()

	score := 0.7 + (1.0-diff/base)*0.3
	if score > 1 {
		return 1
	}
	return score
}

// matchCombinedPayments pairs two open invoices against one open bank
// line that settles both. Only the GroupScanWindow invoices nearest
// the line amount are considered, and the first satisfying pair wins.
func (e *MatchingEngine) matchCombinedPayments(invoices []*models.Invoice, lines []*models.BankLine, ledger *ConsumptionLedger) []*Match {
	matches := make([]*Match, 0)

	for _, line := range lines {
		if ledger.IsBankLineConsumed(line.ID) {
			continue
		}

		window := nearestInvoicesByAmount(line.Amount, invoices, ledger, e.config.GroupScanWindow)

		first, second := findCombinedPair(line.Amount, window, e.config.AmountTolerance)
		if first == nil {
			continue
		}

		ledger.MarkBankLineConsumed(line.ID)
		ledger.MarkInvoiceConsumed(first.ID)
		ledger.MarkInvoiceConsumed(second.ID)

		matches = append(matches, newGroupedMatch(MatchManyToOne,
			[]*models.Invoice{first, second},
			[]*models.BankLine{line},
			combinedPaymentScore))
	}

	return matches
}

// nearestInvoicesByAmount returns up to limit unconsumed invoices
// ordered by absolute amount distance from target. Equal distances
// keep input order.
func nearestInvoicesByAmount(target decimal.Decimal, invoices []*models.Invoice, ledger *ConsumptionLedger, limit int) []*models.Invoice {
	candidates := make([]*models.Invoice, 0, len(invoices))
	for _, invoice := range invoices {
		if !ledger.IsInvoiceConsumed(invoice.ID) {
			candidates = append(candidates, invoice)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		gapI := candidates[i].Amount.Sub(target).Abs()
		gapJ := candidates[j].Amount.Sub(target).Abs()
		return gapI.LessThan(gapJ)
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// findCombinedPair returns the first ordered pair in the window whose
// amounts sum within tolerance of the target.
func findCombinedPair(target decimal.Decimal, window []*models.Invoice, tolerance decimal.Decimal) (*models.Invoice, *models.Invoice) {
	for i := 0; i < len(window); i++ {
		for j := i + 1; j < len(window); j++ {
			sum := window[i].Amount.Add(window[j].Amount)
			if sum.Sub(target).Abs().LessThanOrEqual(tolerance) {
				return window[i], window[j]
			}
		}
	}
	return nil, nil
}
