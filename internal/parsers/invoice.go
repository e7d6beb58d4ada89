package parsers

import (
	"ar-reconciliation-service/internal/models"
	"ar-reconciliation-service/pkg/errors"
	"ar-reconciliation-service/pkg/logger"
)

// InvoiceParser loads invoice tables from CSV or XLSX files
type InvoiceParser struct {
	config *ParserConfig
	logger logger.Logger
}

// NewInvoiceParser creates a parser, falling back to default options
func NewInvoiceParser(config *ParserConfig) *InvoiceParser {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &InvoiceParser{
		config: config,
		logger: parserLogger("invoice_parser"),
	}
}

// ParseInvoices reads a file into invoice records. Row-level failures
// land in the returned stats; the error return is reserved for fatal
// problems (unreadable file, unmapped headers, error budget blown).
func (p *InvoiceParser) ParseInvoices(path string) ([]*models.Invoice, *ParseStats, error) {
	p.logger.WithField("file_path", path).Info("Parsing invoice file")

	rows, err := readRows(path, p.config)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, errors.ParseError(errors.CodeEmptySheet, path, len(rows), "", "", nil)
	}

	headers := rows[0]
	mapping := MapHeaders(headers, invoiceAliases, invoiceFieldOrder)
	if err := checkRequiredFields(path, mapping, requiredInvoiceFields, headers); err != nil {
		return nil, nil, err
	}

	stats := &ParseStats{}
	collector := errors.NewIngestErrorCollector(p.config.MaxRowErrors)
	invoices := make([]*models.Invoice, 0, len(rows)-1)

	for i, row := range rows[1:] {
		stats.RowsRead++
		if isEmptyRow(row) {
			stats.RecordsSkipped++
			continue
		}

		// Spreadsheet row number, counting the header.
		rowNumber := i + 2
		invoice, rowErr := p.parseRow(path, rowNumber, len(invoices)+1, row, mapping)
		if rowErr != nil {
			stats.RecordsSkipped++
			if !collector.Add(rowErr) {
				stats.RowErrors = collector.Errors()
				return nil, stats, errors.Wrap(collector.Summary(), errors.CategoryParse, errors.CodeInvalidData,
					"too many invalid invoice rows")
			}
			continue
		}

		invoices = append(invoices, invoice)
		stats.RecordsParsed++
	}

	stats.RowErrors = collector.Errors()
	p.logger.WithFields(logger.Fields{
		"file_path": path,
		"parsed":    stats.RecordsParsed,
		"skipped":   stats.RecordsSkipped,
		"errors":    len(stats.RowErrors),
	}).Info("Invoice file parsed")

	return invoices, stats, nil
}

func (p *InvoiceParser) parseRow(path string, rowNumber, ordinal int, row []string, mapping map[string]int) (*models.Invoice, *errors.IngestError) {
	amountCell := cell(row, mapping, FieldAmount)
	amount, err := models.ParseMoney(amountCell)
	if err != nil {
		return nil, errors.InvalidAmountError(path, rowNumber, FieldAmount, amountCell)
	}

	dateCell := cell(row, mapping, FieldInvoiceDate)
	invoiceDate, err := models.ParseFlexibleDate(dateCell)
	if err != nil {
		return nil, errors.InvalidDateError(path, rowNumber, FieldInvoiceDate, dateCell)
	}

	invoice := models.NewInvoice(ordinal,
		cell(row, mapping, FieldInvoiceNumber),
		cell(row, mapping, FieldCustomerName),
		invoiceDate, amount)
	invoice.Currency = models.NormalizeCurrency(cell(row, mapping, FieldCurrency))
	invoice.Reference = models.CleanText(cell(row, mapping, FieldReference))

	// A malformed due date degrades to aging off the invoice date.
	if dueCell := cell(row, mapping, FieldDueDate); dueCell != "" {
		if dueDate, err := models.ParseFlexibleDate(dueCell); err == nil {
			invoice.DueDate = dueDate
		} else {
			p.logger.WithFields(logger.Fields{
				"file_path": path,
				"row":       rowNumber,
				"value":     dueCell,
			}).Warn("Ignoring unparsable due date")
		}
	}

	if err := invoice.Validate(); err != nil {
		return nil, errors.NewIngestError(errors.CodeInvalidData, path, rowNumber, "", "", err)
	}

	return invoice, nil
}
