// Command validate sanity-checks generated fixture files before they
// are committed or used in benchmarks. It parses both files with the
// production parsers and cross-checks referential consistency.
//
// Usage:
//
//	go run validate.go -invoices=../generated/invoices.csv -bank=../generated/bank_statement.csv
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"ar-reconciliation-service/internal/models"
	"ar-reconciliation-service/internal/parsers"
)

func main() {
	var (
		invoicePath = flag.String("invoices", "", "invoice fixture file to validate")
		bankPath    = flag.String("bank", "", "bank statement fixture file to validate")
		strict      = flag.Bool("strict", false, "fail when any row was skipped")
	)
	flag.Parse()

	if *invoicePath == "" || *bankPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	failed := false

	invoices, invoiceStats, err := parsers.NewInvoiceParser(nil).ParseInvoices(*invoicePath)
	if err != nil {
		log.Fatalf("invoice file unusable: %v", err)
	}
	fmt.Printf("invoices: %s\n", invoiceStats)
	if *strict && invoiceStats.HasErrors() {
		failed = true
	}

	lines, bankStats, err := parsers.NewBankLineParser(nil).ParseBankLines(*bankPath)
	if err != nil {
		log.Fatalf("bank file unusable: %v", err)
	}
	fmt.Printf("bank lines: %s\n", bankStats)
	if *strict && bankStats.HasErrors() {
		failed = true
	}

	if dupes := duplicateInvoiceNumbers(invoices); len(dupes) > 0 {
		fmt.Printf("WARNING: duplicate invoice numbers: %v\n", dupes)
	}

	matched := referencedInvoices(invoices, lines)
	fmt.Printf("bank lines referencing a known invoice: %d of %d\n", matched, len(lines))

	if failed {
		fmt.Println("FAIL: fixture contains skipped rows")
		os.Exit(1)
	}
	fmt.Println("OK")
}

func duplicateInvoiceNumbers(invoices []*models.Invoice) []string {
	seen := make(map[string]int)
	for _, invoice := range invoices {
		if invoice.InvoiceNumber != "" {
			seen[invoice.InvoiceNumber]++
		}
	}
	var dupes []string
	for number, count := range seen {
		if count > 1 {
			dupes = append(dupes, number)
		}
	}
	return dupes
}

func referencedInvoices(invoices []*models.Invoice, lines []*models.BankLine) int {
	known := make(map[string]bool, len(invoices))
	for _, invoice := range invoices {
		if key := invoice.MatchKey(); key != "" {
			known[key] = true
		}
	}

	matched := 0
	for _, line := range lines {
		if known[models.CleanRef(line.Reference)] {
			matched++
		}
	}
	return matched
}
