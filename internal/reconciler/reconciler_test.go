package reconciler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ar-reconciliation-service/internal/matcher"
	"ar-reconciliation-service/internal/models"
	"ar-reconciliation-service/pkg/errors"
	"ar-reconciliation-service/pkg/logger"
)

func createTestInvoice(row int, number string, amount float64, date time.Time) *models.Invoice {
	return models.NewInvoice(row, number, "Acme Corp", date, decimal.NewFromFloat(amount))
}

func createTestBankLine(row int, description string, amount float64, date time.Time) *models.BankLine {
	return models.NewBankLine(row, date, description, decimal.NewFromFloat(amount))
}

func TestReconcileEmptyInputs(t *testing.T) {
	service := NewService(nil)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	invoices := []*models.Invoice{createTestInvoice(1, "INV-1", 100, date)}
	lines := []*models.BankLine{createTestBankLine(1, "PAYMENT INV-1", 100, date)}

	tests := []struct {
		name     string
		invoices []*models.Invoice
		lines    []*models.BankLine
	}{
		{"no invoices", nil, lines},
		{"no bank lines", invoices, nil},
		{"nothing at all", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Reconcile(context.Background(), tt.invoices, tt.lines)
			re, ok := errors.AsReconcilerError(err)
			if !ok || re.Code != errors.CodeEmptyInput {
				t.Errorf("Expected empty_input error, got %v", err)
			}
		})
	}
}

func TestReconcileEndToEnd(t *testing.T) {
	service := NewService(nil)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	invoices := []*models.Invoice{
		createTestInvoice(1, "INV-1", 100, date),
		createTestInvoice(2, "INV-2", 999, date),
	}
	lines := []*models.BankLine{
		createTestBankLine(1, "PAYMENT INV-1 ACME CORP", 100, date.AddDate(0, 0, 1)),
	}

	result, err := service.Reconcile(context.Background(), invoices, lines)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(result.Matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(result.Matches))
	}
	if len(result.UnmatchedInvoices) != 1 {
		t.Fatalf("Expected 1 unmatched invoice, got %d", len(result.UnmatchedInvoices))
	}
	if result.UnmatchedInvoices[0].Invoice.ID != "INV-2" {
		t.Errorf("Wrong invoice left unmatched: %s", result.UnmatchedInvoices[0].Invoice.ID)
	}
}

func TestDedupeInvoiceIDs(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	invoices := []*models.Invoice{
		createTestInvoice(1, "INV-1", 100, date),
		createTestInvoice(2, "INV-1", 200, date),
		createTestInvoice(3, "INV-1", 300, date),
		createTestInvoice(4, "INV-2", 400, date),
	}

	deduped := dedupeInvoiceIDs(invoices, logger.GetGlobalLogger())

	ids := make(map[string]bool)
	for _, invoice := range deduped {
		if ids[invoice.ID] {
			t.Errorf("Duplicate ID survived: %s", invoice.ID)
		}
		ids[invoice.ID] = true
	}
	if deduped[0].ID != "INV-1" {
		t.Errorf("First occurrence should keep its ID, got %s", deduped[0].ID)
	}
	if deduped[1].ID != "INV-1#2" {
		t.Errorf("Expected INV-1#2, got %s", deduped[1].ID)
	}
}

func TestReconcileFiles(t *testing.T) {
	dir := t.TempDir()

	invoicePath := filepath.Join(dir, "invoices.csv")
	invoiceData := `Invoice No,Client,Date,Amount
INV-1001,Acme Corp,2024-01-10,1250.50
INV-1002,Globex,2024-01-15,980.00
`
	if err := os.WriteFile(invoicePath, []byte(invoiceData), 0644); err != nil {
		t.Fatalf("Failed to write invoices: %v", err)
	}

	bankPath := filepath.Join(dir, "bank.csv")
	bankData := `Value Date,Narration,Credit
2024-01-11,PAYMENT INV-1001 ACME CORP,1250.50
`
	if err := os.WriteFile(bankPath, []byte(bankData), 0644); err != nil {
		t.Fatalf("Failed to write bank statement: %v", err)
	}

	service := NewService(nil)
	run, err := service.ReconcileFiles(context.Background(), invoicePath, bankPath)
	if err != nil {
		t.Fatalf("ReconcileFiles failed: %v", err)
	}

	if run.InvoiceStats.RecordsParsed != 2 {
		t.Errorf("Expected 2 invoices parsed, got %d", run.InvoiceStats.RecordsParsed)
	}
	if run.BankStats.RecordsParsed != 1 {
		t.Errorf("Expected 1 bank line parsed, got %d", run.BankStats.RecordsParsed)
	}
	if len(run.Result.Matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(run.Result.Matches))
	}
	if run.Result.Matches[0].Invoices[0].ID != "INV-1001" {
		t.Errorf("Wrong invoice matched: %s", run.Result.Matches[0].Invoices[0].ID)
	}
}

func TestReconcileFilesMissingInvoiceFile(t *testing.T) {
	service := NewService(nil)
	_, err := service.ReconcileFiles(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), "also-nope.csv")
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	re, ok := errors.AsReconcilerError(err)
	if !ok || re.Code != errors.CodeFileNotFound {
		t.Errorf("Expected file_not_found error, got %v", err)
	}
}

func TestServiceProgressForwarding(t *testing.T) {
	var phases []string
	service := NewService(&Options{
		Progress: func(percent float64, phase string) {
			phases = append(phases, phase)
		},
	})

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	invoices := []*models.Invoice{createTestInvoice(1, "INV-1", 100, date)}
	lines := []*models.BankLine{createTestBankLine(1, "PAYMENT INV-1", 100, date)}

	if _, err := service.Reconcile(context.Background(), invoices, lines); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(phases) == 0 {
		t.Fatal("Expected progress callbacks")
	}
	sawClassifying := false
	for _, phase := range phases {
		if phase == matcher.PhaseClassifying {
			sawClassifying = true
		}
	}
	if !sawClassifying {
		t.Error("Expected classifying phase in progress updates")
	}
}
