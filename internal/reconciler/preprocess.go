package reconciler

import (
	"fmt"

	"ar-reconciliation-service/internal/models"
	"ar-reconciliation-service/pkg/logger"
)

// The consumption ledger keys on record IDs, so duplicate invoice
// numbers in one file would alias each other. Duplicates get a
// positional suffix; the first occurrence keeps the original ID.

func dedupeInvoiceIDs(invoices []*models.Invoice, log logger.Logger) []*models.Invoice {
	seen := make(map[string]int, len(invoices))
	for _, invoice := range invoices {
		seen[invoice.ID]++
		if n := seen[invoice.ID]; n > 1 {
			original := invoice.ID
			invoice.ID = fmt.Sprintf("%s#%d", original, n)
			log.WithFields(logger.Fields{
				"invoice_number": original,
				"renamed_to":     invoice.ID,
			}).Warn("Duplicate invoice ID in input")
		}
	}
	return invoices
}

func dedupeBankLineIDs(lines []*models.BankLine, log logger.Logger) []*models.BankLine {
	seen := make(map[string]int, len(lines))
	for _, line := range lines {
		seen[line.ID]++
		if n := seen[line.ID]; n > 1 {
			original := line.ID
			line.ID = fmt.Sprintf("%s#%d", original, n)
			log.WithFields(logger.Fields{
				"bank_line_id": original,
				"renamed_to":   line.ID,
			}).Warn("Duplicate bank line ID in input")
		}
	}
	return lines
}
