package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice represents an accounts-receivable invoice awaiting payment
type Invoice struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	CustomerName  string          `json:"customerName"`
	InvoiceDate   time.Time       `json:"invoiceDate"`
	DueDate       time.Time       `json:"dueDate,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	RowIndex      int             `json:"rowIndex"`
}

// NewInvoice creates an Invoice with a fallback ID derived from its row
func NewInvoice(rowIndex int, number, customer string, invoiceDate time.Time, amount decimal.Decimal) *Invoice {
	inv := &Invoice{
		InvoiceNumber: CleanText(number),
		CustomerName:  CleanText(customer),
		InvoiceDate:   invoiceDate,
		Amount:        amount,
		RowIndex:      rowIndex,
	}
	inv.ID = inv.InvoiceNumber
	if inv.ID == "" {
		inv.ID = fmt.Sprintf("INV-%d", rowIndex)
	}
	return inv
}

// Validate performs basic validation on the Invoice
func (i *Invoice) Validate() error {
	if strings.TrimSpace(i.ID) == "" {
		return fmt.Errorf("invoice ID cannot be empty")
	}
	if i.Amount.IsNegative() {
		return fmt.Errorf("invoice amount cannot be negative: %s", i.Amount.String())
	}
	if i.InvoiceDate.IsZero() {
		return fmt.Errorf("invoice date cannot be zero")
	}
	return nil
}

// AgingDate returns the date unpaid aging is measured from. Due date
// wins when present, otherwise the invoice date.
func (i *Invoice) AgingDate() time.Time {
	if !i.DueDate.IsZero() {
		return i.DueDate
	}
	return i.InvoiceDate
}

// MatchKey returns the cleaned uppercase identity used for reference
// matching, preferring the explicit reference over the invoice number.
func (i *Invoice) MatchKey() string {
	if ref := CleanRef(i.Reference); ref != "" {
		return ref
	}
	return CleanRef(i.InvoiceNumber)
}

// String returns a string representation of the Invoice
func (i *Invoice) String() string {
	return fmt.Sprintf("Invoice{ID: %s, Customer: %s, Amount: %s, Date: %s}",
		i.ID, i.CustomerName, i.Amount.String(), i.InvoiceDate.Format("2006-01-02"))
}

// BankLine represents a single credit line from a bank statement
type BankLine struct {
	ID              string          `json:"id"`
	TransactionDate time.Time       `json:"transactionDate"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	BankID          string          `json:"bankId,omitempty"`
	RowIndex        int             `json:"rowIndex"`
}

// NewBankLine creates a BankLine with a fallback ID derived from its row
func NewBankLine(rowIndex int, txDate time.Time, description string, amount decimal.Decimal) *BankLine {
	line := &BankLine{
		TransactionDate: txDate,
		Description:     CleanText(description),
		Amount:          amount,
		RowIndex:        rowIndex,
	}
	line.ID = fmt.Sprintf("BANK-%d", rowIndex)
	return line
}

// Validate performs basic validation on the BankLine
func (b *BankLine) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("bank line ID cannot be empty")
	}
	if b.Amount.IsNegative() {
		return fmt.Errorf("bank line amount cannot be negative: %s", b.Amount.String())
	}
	if b.TransactionDate.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}
	return nil
}

// SearchText returns the uppercase reference-plus-description haystack
// that invoice identifiers are looked up in.
func (b *BankLine) SearchText() string {
	return strings.ToUpper(CleanText(b.Reference) + " " + CleanText(b.Description))
}

// String returns a string representation of the BankLine
func (b *BankLine) String() string {
	return fmt.Sprintf("BankLine{ID: %s, Amount: %s, Date: %s, Desc: %s}",
		b.ID, b.Amount.String(), b.TransactionDate.Format("2006-01-02"), b.Description)
}
