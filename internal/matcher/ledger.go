package matcher

// ConsumptionLedger tracks which invoices and bank lines have been
// claimed by a match, enforcing one-to-one exclusivity across passes.
type ConsumptionLedger struct {
	invoices  map[string]bool
	bankLines map[string]bool
}

// NewConsumptionLedger creates an empty ledger
func NewConsumptionLedger() *ConsumptionLedger {
	return &ConsumptionLedger{
		invoices:  make(map[string]bool),
		bankLines: make(map[string]bool),
	}
}

// MarkInvoiceConsumed claims an invoice
func (l *ConsumptionLedger) MarkInvoiceConsumed(id string) {
	l.invoices[id] = true
}

// MarkBankLineConsumed claims a bank line
func (l *ConsumptionLedger) MarkBankLineConsumed(id string) {
	l.bankLines[id] = true
}

// IsInvoiceConsumed reports whether an invoice has been claimed
func (l *ConsumptionLedger) IsInvoiceConsumed(id string) bool {
	return l.invoices[id]
}

// IsBankLineConsumed reports whether a bank line has been claimed
func (l *ConsumptionLedger) IsBankLineConsumed(id string) bool {
	return l.bankLines[id]
}

// ConsumedInvoices returns the number of claimed invoices
func (l *ConsumptionLedger) ConsumedInvoices() int {
	return len(l.invoices)
}

// ConsumedBankLines returns the number of claimed bank lines
func (l *ConsumptionLedger) ConsumedBankLines() int {
	return len(l.bankLines)
}

// Reset clears all claims
func (l *ConsumptionLedger) Reset() {
	l.invoices = make(map[string]bool)
	l.bankLines = make(map[string]bool)
}
