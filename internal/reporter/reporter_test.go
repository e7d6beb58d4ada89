package reporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"ar-reconciliation-service/internal/matcher"
	"ar-reconciliation-service/internal/models"
)

func testResult(t *testing.T) *matcher.ReconciliationResult {
	t.Helper()

	// Aging buckets are computed against the run start, so fixture
	// dates must be anchored to the current time.
	now := time.Now().UTC().Truncate(24 * time.Hour)
	invoices := []*models.Invoice{
		{ID: "INV-1", InvoiceNumber: "INV-2024-001", CustomerName: "Acme Corp",
			InvoiceDate: now.AddDate(0, 0, -2), Amount: decimal.NewFromFloat(1250.50), Reference: "INV-2024-001"},
		{ID: "INV-2", InvoiceNumber: "INV-2024-002", CustomerName: "Globex Ltd",
			InvoiceDate: now.AddDate(0, 0, -45), Amount: decimal.NewFromFloat(300.00)},
	}
	lines := []*models.BankLine{
		{ID: "BANK-1", TransactionDate: now, Amount: decimal.NewFromFloat(1250.50),
			Description: "Payment INV-2024-001 Acme Corp", Reference: "INV-2024-001"},
		{ID: "BANK-2", TransactionDate: now.AddDate(0, 0, -1), Amount: decimal.NewFromFloat(99.99),
			Description: "Unknown wire"},
	}

	engine := matcher.NewMatchingEngine(nil)
	result, err := engine.Reconcile(context.Background(), invoices, lines, nil)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match in fixture result, got %d", len(result.Matches))
	}
	return result
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"console", FormatConsole, false},
		{"JSON", FormatJSON, false},
		{" csv ", FormatCSV, false},
		{"xlsx", FormatXLSX, false},
		{"pdf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestWriteConsole(t *testing.T) {
	result := testResult(t)
	var buf bytes.Buffer
	if err := NewReporter().Write(result, FormatConsole, &buf); err != nil {
		t.Fatalf("Write(console) error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Reconciliation Summary",
		"Invoices:       2 total, 1 matched (50.0%)",
		"Bank lines:     2 total, 1 matched (50.0%)",
		"Matched amount: 1250.50",
		"Open amount:    300.00",
		"Aging of open invoices:",
		"31-60",
		"Unmatched bank lines (1):",
		"BANK-2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q\noutput:\n%s", want, out)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	result := testResult(t)
	var buf bytes.Buffer
	if err := NewReporter().Write(result, FormatJSON, &buf); err != nil {
		t.Fatalf("Write(json) error = %v", err)
	}

	var decoded matcher.ReconciliationResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Matches) != 1 {
		t.Errorf("decoded matches = %d, want 1", len(decoded.Matches))
	}
	if decoded.Summary == nil || decoded.Summary.TotalInvoices != 2 {
		t.Errorf("decoded summary = %+v, want TotalInvoices 2", decoded.Summary)
	}
}

func TestWriteCSV(t *testing.T) {
	result := testResult(t)
	var buf bytes.Buffer
	if err := NewReporter().Write(result, FormatCSV, &buf); err != nil {
		t.Fatalf("Write(csv) error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	// header + 1 match + 1 open invoice + 1 open bank line
	if len(records) != 4 {
		t.Fatalf("got %d CSV records, want 4", len(records))
	}
	if records[0][0] != "status" {
		t.Errorf("header[0] = %q, want status", records[0][0])
	}

	byStatus := make(map[string][]string)
	for _, record := range records[1:] {
		byStatus[record[0]] = record
	}

	matched, ok := byStatus["matched"]
	if !ok {
		t.Fatal("no matched row in CSV output")
	}
	if matched[1] != "Exact" {
		t.Errorf("matched row type = %q, want Exact", matched[1])
	}
	if matched[2] != "INV-1" || matched[5] != "BANK-1" {
		t.Errorf("matched row ids = %q / %q, want INV-1 / BANK-1", matched[2], matched[5])
	}

	open, ok := byStatus["unmatched_invoice"]
	if !ok {
		t.Fatal("no unmatched_invoice row in CSV output")
	}
	if open[10] != "31-60" {
		t.Errorf("open invoice aging bucket = %q, want 31-60", open[10])
	}

	if _, ok := byStatus["unmatched_bank_line"]; !ok {
		t.Fatal("no unmatched_bank_line row in CSV output")
	}
}

func TestWriteCSVGroupedMatchJoinsIDs(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	match := &matcher.Match{
		Type: matcher.MatchOneToMany,
		Invoices: []*models.Invoice{
			{ID: "INV-1", CustomerName: "Acme Corp", Amount: decimal.NewFromFloat(1000)},
		},
		BankLines: []*models.BankLine{
			{ID: "BANK-1", TransactionDate: date, Amount: decimal.NewFromFloat(600)},
			{ID: "BANK-2", TransactionDate: date, Amount: decimal.NewFromFloat(400)},
		},
		Score:      0.91,
		Confidence: matcher.ConfidenceMedium,
	}

	row := matchRow(match)
	if row[5] != "BANK-1+BANK-2" {
		t.Errorf("bank line ids = %q, want BANK-1+BANK-2", row[5])
	}
	if row[6] != "1000.00" {
		t.Errorf("bank amount = %q, want 1000.00", row[6])
	}
}

func TestWriteXLSX(t *testing.T) {
	result := testResult(t)
	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := NewReporter().WriteXLSX(result, path); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	file, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopening workbook: %v", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	for _, want := range []string{sheetMatched, sheetOpenInvoices, sheetOpenBankLines, sheetAging} {
		found := false
		for _, sheet := range sheets {
			if sheet == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("workbook missing sheet %q, have %v", want, sheets)
		}
	}

	matched, err := file.GetRows(sheetMatched)
	if err != nil {
		t.Fatalf("reading matched sheet: %v", err)
	}
	if len(matched) != 2 {
		t.Fatalf("matched sheet has %d rows, want 2", len(matched))
	}
	if matched[1][1] != "INV-1" {
		t.Errorf("matched invoice id = %q, want INV-1", matched[1][1])
	}

	aging, err := file.GetRows(sheetAging)
	if err != nil {
		t.Fatalf("reading aging sheet: %v", err)
	}
	last := aging[len(aging)-1]
	if last[0] != "Total" || last[2] != "300.00" {
		t.Errorf("aging total row = %v, want Total / 300.00", last)
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := NewReporter().Write(testResult(t), Format("pdf"), &buf); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
