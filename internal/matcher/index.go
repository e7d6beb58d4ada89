package matcher

import (
	"sort"

	"github.com/shopspring/decimal"

	"ar-reconciliation-service/internal/models"
)

// BankLineIndex keeps bank lines sorted by amount so the grouped
// passes can pull the lines nearest a target amount without scanning
// the whole statement per invoice.
type BankLineIndex struct {
	byAmount []*models.BankLine
}

// NewBankLineIndex builds an amount-sorted index over the given lines.
// Ties sort by row index to keep ordering deterministic.
func NewBankLineIndex(lines []*models.BankLine) *BankLineIndex {
	sorted := make([]*models.BankLine, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Amount.Equal(sorted[j].Amount) {
			return sorted[i].RowIndex < sorted[j].RowIndex
		}
		return sorted[i].Amount.LessThan(sorted[j].Amount)
	})
	return &BankLineIndex{byAmount: sorted}
}

// NearestByAmount returns up to limit open bank lines ordered by
// absolute amount distance from target. Lines the filter rejects are
// skipped.
func (idx *BankLineIndex) NearestByAmount(target decimal.Decimal, limit int, open func(*models.BankLine) bool) []*models.BankLine {
	if limit <= 0 || len(idx.byAmount) == 0 {
		return nil
	}

	// Position of the first line with amount >= target.
	pos := sort.Search(len(idx.byAmount), func(i int) bool {
		return !idx.byAmount[i].Amount.LessThan(target)
	})

	result := make([]*models.BankLine, 0, limit)
	lo, hi := pos-1, pos

	// Walk outward from the insertion point, always taking the closer side.
	for len(result) < limit && (lo >= 0 || hi < len(idx.byAmount)) {
		takeHi := false
		switch {
		case lo < 0:
			takeHi = true
		case hi >= len(idx.byAmount):
			takeHi = false
		default:
			distLo := target.Sub(idx.byAmount[lo].Amount).Abs()
			distHi := idx.byAmount[hi].Amount.Sub(target).Abs()
			if distHi.Equal(distLo) {
				// Equidistant lines fall back to input order.
				takeHi = idx.byAmount[hi].RowIndex < idx.byAmount[lo].RowIndex
			} else {
				takeHi = distHi.LessThan(distLo)
			}
		}

		var line *models.BankLine
		if takeHi {
			line = idx.byAmount[hi]
			hi++
		} else {
			line = idx.byAmount[lo]
			lo--
		}

		if open == nil || open(line) {
			result = append(result, line)
		}
	}

	return result
}

// Len returns the number of indexed lines
func (idx *BankLineIndex) Len() int {
	return len(idx.byAmount)
}
