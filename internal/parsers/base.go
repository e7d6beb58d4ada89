// Package parsers loads invoice and bank statement tables from CSV and
// XLSX files.
//
// Both parsers work the same way: read the file into rows, resolve the
// header row against an alias table, then convert each data row into a
// model record. Cell-level failures are collected rather than fatal,
// up to a configurable budget, so one bad row does not sink a whole
// workbook.
//
// Example usage:
//
//	parser := parsers.NewInvoiceParser(nil)
//	invoices, stats, err := parser.ParseInvoices("invoices.xlsx")
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"ar-reconciliation-service/pkg/errors"
	"ar-reconciliation-service/pkg/logger"
)

// ParserConfig holds shared options for the file parsers
type ParserConfig struct {
	// MaxRowErrors aborts parsing once this many row errors were
	// collected. Zero means unlimited.
	MaxRowErrors int `json:"max_row_errors"`

	// Delimiter is the CSV field separator
	Delimiter rune `json:"-"`
}

// DefaultParserConfig returns a configuration with sensible defaults
func DefaultParserConfig() *ParserConfig {
	return &ParserConfig{
		MaxRowErrors: 100,
		Delimiter:    ',',
	}
}

// Validate checks the parser configuration
func (pc *ParserConfig) Validate() error {
	if pc.MaxRowErrors < 0 {
		return fmt.Errorf("max row errors cannot be negative: %d", pc.MaxRowErrors)
	}
	if pc.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be zero")
	}
	return nil
}

// ParseStats summarizes one parse run
type ParseStats struct {
	RowsRead       int                   `json:"rows_read"`
	RecordsParsed  int                   `json:"records_parsed"`
	RecordsSkipped int                   `json:"records_skipped"`
	RowErrors      []*errors.IngestError `json:"row_errors,omitempty"`
}

// HasErrors reports whether any row errors were collected
func (ps *ParseStats) HasErrors() bool {
	return len(ps.RowErrors) > 0
}

// String returns a human-readable summary
func (ps *ParseStats) String() string {
	return fmt.Sprintf("read %d rows, parsed %d records, skipped %d, %d row errors",
		ps.RowsRead, ps.RecordsParsed, ps.RecordsSkipped, len(ps.RowErrors))
}

// readRows loads the whole table from a CSV or XLSX file. The file
// extension picks the reader.
func readRows(path string, config *ParserConfig) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readExcelRows(path)
	default:
		return readCSVRows(path, config)
	}
}

func readCSVRows(path string, config *ParserConfig) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidFormat, path, len(rows)+1, "", "", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readExcelRows(path string) ([][]string, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ParseError(errors.CodeEmptySheet, path, 0, "", "", nil)
	}

	// Data is expected on the first sheet, matching how finance teams
	// hand these workbooks over.
	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	return rows, nil
}

// isEmptyRow reports whether every cell is blank
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// cell safely fetches a mapped column from a row
func cell(row []string, mapping map[string]int, field string) string {
	index, ok := mapping[field]
	if !ok || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

// checkRequiredFields verifies the header mapping covers the required
// fields and reports the headers actually seen when it does not.
func checkRequiredFields(path string, mapping map[string]int, required, headers []string) error {
	for _, field := range required {
		if _, ok := mapping[field]; !ok {
			return errors.HeaderNotMappedError(path, field, headers)
		}
	}
	return nil
}

func parserLogger(component string) logger.Logger {
	return logger.GetGlobalLogger().WithComponent(component)
}
