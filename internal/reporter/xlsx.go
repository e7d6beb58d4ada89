package reporter

import (
	"github.com/xuri/excelize/v2"

	"ar-reconciliation-service/internal/matcher"
	"ar-reconciliation-service/pkg/errors"
)

const (
	sheetMatched       = "Matched"
	sheetOpenInvoices  = "Unmatched Invoices"
	sheetOpenBankLines = "Unmatched Bank Lines"
	sheetAging         = "Aging"
)

// WriteXLSX exports the result as an Excel workbook at path.
func (r *Reporter) WriteXLSX(result *matcher.ReconciliationResult, path string) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := writeMatchedSheet(file, result); err != nil {
		return err
	}
	if err := writeOpenInvoiceSheet(file, result); err != nil {
		return err
	}
	if err := writeOpenBankLineSheet(file, result); err != nil {
		return err
	}
	if err := writeAgingSheet(file, result); err != nil {
		return err
	}

	// The default sheet was renamed to Matched, make it active
	index, err := file.GetSheetIndex(sheetMatched)
	if err != nil {
		return err
	}
	file.SetActiveSheet(index)

	if err := file.SaveAs(path); err != nil {
		return errors.FileError(errors.CodeFilePermission, path, err).
			WithSuggestion("Check that the output directory exists and is writable")
	}

	r.logger.WithField("path", path).Info("Wrote XLSX report")
	return nil
}

func writeSheet(file *excelize.File, sheet string, header []string, rows [][]interface{}) error {
	if _, err := file.NewSheet(sheet); err != nil {
		return err
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := setRow(file, sheet, 1, headerRow); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(file, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(file *excelize.File, sheet string, rowNumber int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return err
	}
	return file.SetSheetRow(sheet, cell, &values)
}

func writeMatchedSheet(file *excelize.File, result *matcher.ReconciliationResult) error {
	// Rename the default sheet rather than leaving an empty Sheet1 behind
	if err := file.SetSheetName("Sheet1", sheetMatched); err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(result.Matches))
	for _, match := range result.Matches {
		row := matchRow(match)
		rows = append(rows, []interface{}{
			row[1], row[2], row[3], row[4], row[5], row[6], row[7],
			match.Score, string(match.Confidence), match.Reference,
		})
	}

	header := []string{
		"Match Type", "Invoice IDs", "Customer", "Invoice Amount",
		"Bank Line IDs", "Bank Amount", "Date", "Score", "Confidence", "Reference",
	}
	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := setRow(file, sheetMatched, 1, headerRow); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(file, sheetMatched, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeOpenInvoiceSheet(file *excelize.File, result *matcher.ReconciliationResult) error {
	rows := make([][]interface{}, 0, len(result.UnmatchedInvoices))
	for _, open := range result.UnmatchedInvoices {
		invoice := open.Invoice
		rows = append(rows, []interface{}{
			invoice.ID, invoice.InvoiceNumber, invoice.CustomerName,
			invoice.InvoiceDate.Format("2006-01-02"),
			invoice.Amount.StringFixed(2),
			string(open.AgingBucket), open.DaysOutstanding,
		})
	}
	header := []string{
		"ID", "Invoice Number", "Customer", "Invoice Date", "Amount",
		"Aging Bucket", "Days Outstanding",
	}
	return writeSheet(file, sheetOpenInvoices, header, rows)
}

func writeOpenBankLineSheet(file *excelize.File, result *matcher.ReconciliationResult) error {
	rows := make([][]interface{}, 0, len(result.UnmatchedBankLines))
	for _, line := range result.UnmatchedBankLines {
		rows = append(rows, []interface{}{
			line.ID,
			line.TransactionDate.Format("2006-01-02"),
			line.Amount.StringFixed(2),
			line.Description, line.Reference,
		})
	}
	header := []string{"ID", "Date", "Amount", "Description", "Reference"}
	return writeSheet(file, sheetOpenBankLines, header, rows)
}

func writeAgingSheet(file *excelize.File, result *matcher.ReconciliationResult) error {
	rows := make([][]interface{}, 0, len(matcher.AgingBuckets)+1)
	for _, bucket := range matcher.AgingBuckets {
		total := result.Summary.Aging[bucket]
		if total == nil {
			continue
		}
		rows = append(rows, []interface{}{
			string(bucket), total.Count, total.Amount.StringFixed(2),
		})
	}
	rows = append(rows, []interface{}{
		"Total",
		len(result.UnmatchedInvoices),
		result.Summary.OpenAmount.StringFixed(2),
	})

	header := []string{"Bucket", "Open Invoices", "Open Amount"}
	if err := writeSheet(file, sheetAging, header, rows); err != nil {
		return err
	}
	return file.SetColWidth(sheetAging, "A", "C", 16)
}
