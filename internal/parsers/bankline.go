package parsers

import (
	"ar-reconciliation-service/internal/models"
	"ar-reconciliation-service/pkg/errors"
	"ar-reconciliation-service/pkg/logger"
)

// BankLineParser loads bank statement tables from CSV or XLSX files
type BankLineParser struct {
	config *ParserConfig
	logger logger.Logger
}

// NewBankLineParser creates a parser, falling back to default options
func NewBankLineParser(config *ParserConfig) *BankLineParser {
	if config == nil {
		config = DefaultParserConfig()
	}
	return &BankLineParser{
		config: config,
		logger: parserLogger("bank_line_parser"),
	}
}

// ParseBankLines reads a file into bank line records. Negative amounts
// are debits and are skipped, only credits can settle an invoice.
func (p *BankLineParser) ParseBankLines(path string) ([]*models.BankLine, *ParseStats, error) {
	p.logger.WithField("file_path", path).Info("Parsing bank statement file")

	rows, err := readRows(path, p.config)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, errors.ParseError(errors.CodeEmptySheet, path, len(rows), "", "", nil)
	}

	headers := rows[0]
	mapping := MapHeaders(headers, bankAliases, bankFieldOrder)
	if err := checkRequiredFields(path, mapping, requiredBankFields, headers); err != nil {
		return nil, nil, err
	}

	stats := &ParseStats{}
	collector := errors.NewIngestErrorCollector(p.config.MaxRowErrors)
	lines := make([]*models.BankLine, 0, len(rows)-1)

	for i, row := range rows[1:] {
		stats.RowsRead++
		if isEmptyRow(row) {
			stats.RecordsSkipped++
			continue
		}

		rowNumber := i + 2
		line, rowErr := p.parseRow(path, rowNumber, len(lines)+1, row, mapping)
		if rowErr != nil {
			stats.RecordsSkipped++
			if !collector.Add(rowErr) {
				stats.RowErrors = collector.Errors()
				return nil, stats, errors.Wrap(collector.Summary(), errors.CategoryParse, errors.CodeInvalidData,
					"too many invalid bank statement rows")
			}
			continue
		}
		if line == nil {
			stats.RecordsSkipped++
			continue
		}

		lines = append(lines, line)
		stats.RecordsParsed++
	}

	stats.RowErrors = collector.Errors()
	p.logger.WithFields(logger.Fields{
		"file_path": path,
		"parsed":    stats.RecordsParsed,
		"skipped":   stats.RecordsSkipped,
		"errors":    len(stats.RowErrors),
	}).Info("Bank statement file parsed")

	return lines, stats, nil
}

func (p *BankLineParser) parseRow(path string, rowNumber, ordinal int, row []string, mapping map[string]int) (*models.BankLine, *errors.IngestError) {
	amountCell := cell(row, mapping, FieldAmount)
	amount, err := models.ParseMoney(amountCell)
	if err != nil {
		return nil, errors.InvalidAmountError(path, rowNumber, FieldAmount, amountCell)
	}
	if amount.IsNegative() {
		return nil, nil
	}

	dateCell := cell(row, mapping, FieldTransactionDate)
	txDate, err := models.ParseFlexibleDate(dateCell)
	if err != nil {
		return nil, errors.InvalidDateError(path, rowNumber, FieldTransactionDate, dateCell)
	}

	line := models.NewBankLine(ordinal, txDate, cell(row, mapping, FieldDescription), amount)
	line.Currency = models.NormalizeCurrency(cell(row, mapping, FieldCurrency))
	line.Reference = models.CleanText(cell(row, mapping, FieldReference))
	line.BankID = models.CleanText(cell(row, mapping, FieldBankID))

	if err := line.Validate(); err != nil {
		return nil, errors.NewIngestError(errors.CodeInvalidData, path, rowNumber, "", "", err)
	}

	return line, nil
}
