// Command generate produces paired invoice and bank statement CSV
// fixtures for manual testing and benchmarking.
//
// Usage:
//
//	go run generate.go -scenario=clean -count=100 -output-dir=../generated
//
// Scenarios:
//
//	clean    every invoice has a matching bank line
//	partial  a share of invoices stays unpaid and extra bank noise appears
//	split    some invoices are paid in two installments
//	messy    amounts carry currency symbols, dates mix formats, rows break
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

var customers = []string{
	"Acme Corp", "Globex Ltd", "Initech LLC", "Umbrella Holdings",
	"Stark Industries", "Wayne Enterprises", "Hooli Inc", "Pied Piper",
	"Wonka Imports", "Tyrell Trading",
}

type generator struct {
	rng       *rand.Rand
	outputDir string
	count     int
	scenario  string
}

type invoiceRow struct {
	number   string
	customer string
	date     time.Time
	due      time.Time
	amount   decimal.Decimal
}

type bankRow struct {
	date        time.Time
	amount      decimal.Decimal
	description string
	reference   string
}

func main() {
	var (
		outputDir = flag.String("output-dir", "generated", "output directory for fixture files")
		count     = flag.Int("count", 100, "number of invoices to generate")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "random seed for reproducible output")
		scenario  = flag.String("scenario", "clean", "scenario: clean, partial, split, messy")
	)
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("creating output directory: %v", err)
	}

	g := &generator{
		rng:       rand.New(rand.NewSource(*seed)),
		outputDir: *outputDir,
		count:     *count,
		scenario:  *scenario,
	}

	invoices, lines := g.build()
	if err := g.writeInvoices(invoices); err != nil {
		log.Fatalf("writing invoices: %v", err)
	}
	if err := g.writeBankLines(lines); err != nil {
		log.Fatalf("writing bank statement: %v", err)
	}

	fmt.Printf("Generated %d invoices and %d bank lines in %s (scenario=%s, seed=%d)\n",
		len(invoices), len(lines), *outputDir, *scenario, *seed)
}

func (g *generator) build() ([]invoiceRow, []bankRow) {
	invoices := make([]invoiceRow, 0, g.count)
	lines := make([]bankRow, 0, g.count)
	base := time.Now().AddDate(0, -3, 0)

	for i := 0; i < g.count; i++ {
		invoice := invoiceRow{
			number:   fmt.Sprintf("INV-%d-%04d", base.Year(), i+1),
			customer: customers[g.rng.Intn(len(customers))],
			date:     base.AddDate(0, 0, g.rng.Intn(80)),
			amount:   decimal.NewFromInt(int64(g.rng.Intn(990000) + 1000)).Div(decimal.NewFromInt(100)),
		}
		invoice.due = invoice.date.AddDate(0, 0, 30)
		invoices = append(invoices, invoice)

		lines = append(lines, g.paymentsFor(invoice, i)...)
	}

	if g.scenario == "partial" {
		// Unrelated bank noise the matcher should leave unexplained
		for i := 0; i < g.count/10+1; i++ {
			lines = append(lines, bankRow{
				date:        base.AddDate(0, 0, g.rng.Intn(90)),
				amount:      decimal.NewFromInt(int64(g.rng.Intn(50000) + 100)).Div(decimal.NewFromInt(100)),
				description: "Interest credit",
			})
		}
	}

	g.rng.Shuffle(len(lines), func(i, j int) { lines[i], lines[j] = lines[j], lines[i] })
	return invoices, lines
}

func (g *generator) paymentsFor(invoice invoiceRow, ordinal int) []bankRow {
	payDate := invoice.date.AddDate(0, 0, g.rng.Intn(6))
	description := fmt.Sprintf("Payment %s %s", invoice.number, invoice.customer)

	switch g.scenario {
	case "partial":
		// Roughly a quarter of invoices stay open
		if ordinal%4 == 0 {
			return nil
		}
	case "split":
		if ordinal%5 == 0 {
			first := invoice.amount.Mul(decimal.NewFromFloat(0.6)).Round(2)
			second := invoice.amount.Sub(first)
			return []bankRow{
				{date: payDate, amount: first, description: description + " part 1", reference: invoice.number},
				{date: payDate.AddDate(0, 0, 2), amount: second, description: description + " part 2", reference: invoice.number},
			}
		}
	}

	return []bankRow{{
		date:        payDate,
		amount:      invoice.amount,
		description: description,
		reference:   invoice.number,
	}}
}

func (g *generator) writeInvoices(invoices []invoiceRow) error {
	file, err := os.Create(filepath.Join(g.outputDir, "invoices.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"Invoice Number", "Customer", "Invoice Date", "Due Date", "Amount", "Reference"}); err != nil {
		return err
	}
	for i, invoice := range invoices {
		amount := invoice.amount.StringFixed(2)
		date := invoice.date.Format("2006-01-02")
		if g.scenario == "messy" {
			switch i % 4 {
			case 1:
				amount = "$" + amount
			case 2:
				date = invoice.date.Format("02/01/2006")
			case 3:
				amount = "not-a-number"
			}
		}
		record := []string{
			invoice.number, invoice.customer, date,
			invoice.due.Format("2006-01-02"), amount, invoice.number,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) writeBankLines(lines []bankRow) error {
	file, err := os.Create(filepath.Join(g.outputDir, "bank_statement.csv"))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"Transaction Date", "Amount", "Description", "Reference"}); err != nil {
		return err
	}
	for _, line := range lines {
		record := []string{
			line.date.Format("2006-01-02"),
			line.amount.StringFixed(2),
			line.description,
			line.reference,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
