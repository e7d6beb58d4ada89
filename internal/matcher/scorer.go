package matcher

import (
	"strings"

	"github.com/shopspring/decimal"

	"ar-reconciliation-service/internal/models"
)

// ComponentScores holds the per-criterion scores behind a composite
type ComponentScores struct {
	Reference float64 `json:"reference"`
	Amount    float64 `json:"amount"`
	Date      float64 `json:"date"`
	Customer  float64 `json:"customer"`
}

// CandidateScore is the scored pairing of one invoice and one bank line
type CandidateScore struct {
	Invoice    *models.Invoice  `json:"-"`
	BankLine   *models.BankLine `json:"-"`
	Components ComponentScores  `json:"components"`
	Composite  float64          `json:"composite"`
	AmountOK   bool             `json:"amount_ok"`
}

// Scorer computes candidate scores under a matching configuration
type Scorer struct {
	config *MatchingConfig
}

// NewScorer creates a scorer, falling back to the default configuration
func NewScorer(config *MatchingConfig) *Scorer {
	if config == nil {
		config = DefaultMatchingConfig()
	}
	return &Scorer{config: config}
}

// Score evaluates an invoice against a bank line
func (s *Scorer) Score(invoice *models.Invoice, line *models.BankLine) CandidateScore {
	components := ComponentScores{
		Reference: s.referenceScore(invoice, line),
		Amount:    s.amountScore(invoice.Amount, line.Amount),
		Date:      s.dateScore(invoice, line),
		Customer:  TextSimilarity(invoice.CustomerName, line.Description),
	}

	w := s.config.Weights
	composite := w.ReferenceWeight*components.Reference +
		w.AmountWeight*components.Amount +
		w.DateWeight*components.Date +
		w.CustomerWeight*components.Customer

	return CandidateScore{
		Invoice:    invoice,
		BankLine:   line,
		Components: components,
		Composite:  clamp01(composite),
		AmountOK:   s.config.AllowAmountVariance || s.config.WithinTolerance(invoice.Amount, line.Amount),
	}
}

// referenceScore looks the invoice identity up in the bank line's
// reference and description. An exact reference hit is conclusive, an
// invoice number hit nearly so, anything else falls back to fuzzy
// similarity of the reference fields.
func (s *Scorer) referenceScore(invoice *models.Invoice, line *models.BankLine) float64 {
	haystack := line.SearchText()

	if key := invoice.MatchKey(); key != "" && strings.Contains(haystack, key) {
		return 1.0
	}
	if number := models.CleanRef(invoice.InvoiceNumber); number != "" && strings.Contains(haystack, number) {
		return 0.9
	}

	invoiceRef := invoice.Reference
	if strings.TrimSpace(invoiceRef) == "" {
		invoiceRef = invoice.InvoiceNumber
	}
	lineRef := line.Reference
	if strings.TrimSpace(lineRef) == "" {
		lineRef = line.Description
	}
	return TextSimilarity(invoiceRef, lineRef)
}

func (s *Scorer) amountScore(invoiceAmount, lineAmount decimal.Decimal) float64 {
	diff := invoiceAmount.Sub(lineAmount).Abs()
	if diff.LessThanOrEqual(s.config.AmountTolerance) {
		return 1.0
	}

	base, _ := invoiceAmount.Abs().Float64()
	if base < 1 {
		base = 1
	}
	diffF, _ := diff.Float64()

	score := 1.0 - diffF/base
	if score < 0 {
		return 0
	}
	return score
}

func (s *Scorer) dateScore(invoice *models.Invoice, line *models.BankLine) float64 {
	gap := models.DaysBetween(invoice.InvoiceDate, line.TransactionDate)
	if gap < 0 {
		gap = -gap
	}
	if gap > s.config.DateWindowDays {
		return 0
	}
	return 1.0 - float64(gap)/float64(s.config.DateWindowDays+1)
}
