// Package reporter renders reconciliation results as console text,
// JSON, CSV or XLSX.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"ar-reconciliation-service/internal/matcher"
	"ar-reconciliation-service/internal/models"
	"ar-reconciliation-service/pkg/errors"
	"ar-reconciliation-service/pkg/logger"
)

// Format selects the report output format
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
)

// ParseFormat validates a format string
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatConsole:
		return FormatConsole, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown report format %q (valid: console, json, csv, xlsx)", s)
	}
}

// Reporter renders reconciliation results
type Reporter struct {
	logger logger.Logger
}

// NewReporter creates a reporter
func NewReporter() *Reporter {
	return &Reporter{
		logger: logger.GetGlobalLogger().WithComponent("reporter"),
	}
}

// Write renders the result to w. XLSX cannot stream to a writer here,
// use WriteXLSX with a path instead.
func (r *Reporter) Write(result *matcher.ReconciliationResult, format Format, w io.Writer) error {
	switch format {
	case FormatConsole:
		return r.writeConsole(result, w)
	case FormatJSON:
		return r.writeJSON(result, w)
	case FormatCSV:
		return r.writeCSV(result, w)
	default:
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", string(format), nil)
	}
}

func (r *Reporter) writeJSON(result *matcher.ReconciliationResult, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func (r *Reporter) writeConsole(result *matcher.ReconciliationResult, w io.Writer) error {
	s := result.Summary

	fmt.Fprintln(w, "Reconciliation Summary")
	fmt.Fprintln(w, "======================")
	fmt.Fprintf(w, "Invoices:       %d total, %d matched (%.1f%%)\n",
		s.TotalInvoices, s.MatchedInvoices, s.InvoiceMatchRate)
	fmt.Fprintf(w, "Bank lines:     %d total, %d matched (%.1f%%)\n",
		s.TotalBankLines, s.MatchedBankLines, s.BankLineMatchRate)
	fmt.Fprintf(w, "Matched amount: %s\n", s.MatchedAmount.StringFixed(2))
	fmt.Fprintf(w, "Open amount:    %s\n", s.OpenAmount.StringFixed(2))
	fmt.Fprintf(w, "Duration:       %s\n", s.Duration)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Matches by confidence:")
	for _, tier := range []matcher.ConfidenceTier{matcher.ConfidenceHigh, matcher.ConfidenceMedium, matcher.ConfidenceLow} {
		fmt.Fprintf(w, "  %-8s %d\n", tier, s.ByConfidence[tier])
	}

	if len(s.ByType) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Matches by type:")
		types := make([]string, 0, len(s.ByType))
		for matchType := range s.ByType {
			types = append(types, matchType)
		}
		sort.Strings(types)
		for _, matchType := range types {
			fmt.Fprintf(w, "  %-10s %d\n", matchType, s.ByType[matchType])
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Aging of open invoices:")
	for _, bucket := range matcher.AgingBuckets {
		total := s.Aging[bucket]
		if total == nil || total.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-8s %3d invoices  %12s\n", bucket, total.Count, total.Amount.StringFixed(2))
	}

	if len(result.UnmatchedBankLines) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Unmatched bank lines (%d):\n", len(result.UnmatchedBankLines))
		for _, line := range result.UnmatchedBankLines {
			fmt.Fprintf(w, "  %-10s %s  %12s  %s\n",
				line.ID, line.TransactionDate.Format("2006-01-02"), line.Amount.StringFixed(2), line.Description)
		}
	}

	return nil
}

var csvHeader = []string{
	"status", "match_type", "invoice_ids", "customer", "invoice_amount",
	"bank_line_ids", "bank_amount", "date", "score", "confidence", "aging_bucket",
}

func (r *Reporter) writeCSV(result *matcher.ReconciliationResult, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, match := range result.Matches {
		if err := writer.Write(matchRow(match)); err != nil {
			return err
		}
	}
	for _, open := range result.UnmatchedInvoices {
		if err := writer.Write(openInvoiceRow(open)); err != nil {
			return err
		}
	}
	for _, line := range result.UnmatchedBankLines {
		if err := writer.Write(openBankLineRow(line)); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func matchRow(match *matcher.Match) []string {
	invoiceIDs := make([]string, len(match.Invoices))
	invoiceTotal := match.Invoices[0].Amount
	customer := match.Invoices[0].CustomerName
	for i, invoice := range match.Invoices {
		invoiceIDs[i] = invoice.ID
		if i > 0 {
			invoiceTotal = invoiceTotal.Add(invoice.Amount)
		}
	}

	lineIDs := make([]string, len(match.BankLines))
	lineTotal := match.BankLines[0].Amount
	date := match.BankLines[0].TransactionDate
	for i, line := range match.BankLines {
		lineIDs[i] = line.ID
		if i > 0 {
			lineTotal = lineTotal.Add(line.Amount)
		}
	}

	return []string{
		"matched",
		match.Type.String(),
		strings.Join(invoiceIDs, "+"),
		customer,
		invoiceTotal.StringFixed(2),
		strings.Join(lineIDs, "+"),
		lineTotal.StringFixed(2),
		date.Format("2006-01-02"),
		strconv.FormatFloat(match.Score, 'f', 3, 64),
		string(match.Confidence),
		"",
	}
}

func openInvoiceRow(open *matcher.UnmatchedInvoice) []string {
	return []string{
		"unmatched_invoice",
		"",
		open.Invoice.ID,
		open.Invoice.CustomerName,
		open.Invoice.Amount.StringFixed(2),
		"",
		"",
		open.Invoice.InvoiceDate.Format("2006-01-02"),
		"",
		"",
		string(open.AgingBucket),
	}
}

func openBankLineRow(line *models.BankLine) []string {
	return []string{
		"unmatched_bank_line",
		"",
		"",
		"",
		"",
		line.ID,
		line.Amount.StringFixed(2),
		line.TransactionDate.Format("2006-01-02"),
		"",
		"",
		"",
	}
}
