package errors

import (
	"fmt"
	"path/filepath"
	"strings"
)

// IngestError is a row-level error collected while loading invoice or
// bank workbooks. Row errors are recoverable: the parser skips the row
// and keeps going until the collector's budget is exhausted.
type IngestError struct {
	*ReconcilerError
	File        string `json:"file"`
	Row         int    `json:"row"`
	Column      string `json:"column,omitempty"`
	Recoverable bool   `json:"recoverable"`
}

// Error implements the error interface with location information
func (e *IngestError) Error() string {
	location := filepath.Base(e.File)
	if e.Row > 0 {
		location = fmt.Sprintf("%s:%d", location, e.Row)
	}
	if e.Column != "" {
		location = fmt.Sprintf("%s column '%s'", location, e.Column)
	}
	return fmt.Sprintf("%s at %s", e.ReconcilerError.Error(), location)
}

// NewIngestError wraps a row-level failure with its location
func NewIngestError(code ErrorCode, file string, row int, column, value string, cause error) *IngestError {
	return &IngestError{
		ReconcilerError: ParseError(code, file, row, column, value, cause),
		File:            file,
		Row:             row,
		Column:          column,
		Recoverable:     code != CodeHeaderNotMapped && code != CodeEmptySheet,
	}
}

// InvalidAmountError reports an amount cell that could not be parsed
func InvalidAmountError(file string, row int, column, value string) *IngestError {
	err := NewIngestError(CodeInvalidData, file, row, column, value, nil)
	err.WithSuggestion("remove currency symbols and thousands separators, e.g. 1250.50")
	return err
}

// InvalidDateError reports a date cell that could not be parsed
func InvalidDateError(file string, row int, column, value string) *IngestError {
	err := NewIngestError(CodeInvalidData, file, row, column, value, nil)
	err.WithSuggestion("use YYYY-MM-DD, DD/MM/YYYY or a textual month like 15 Jan 2024")
	return err
}

// HeaderNotMappedError reports a required column missing from the header row
func HeaderNotMappedError(file, field string, seen []string) *IngestError {
	err := NewIngestError(CodeHeaderNotMapped, file, 1, field, "", nil)
	err.WithSuggestion(fmt.Sprintf("seen headers: %s", strings.Join(seen, ", ")))
	err.Recoverable = false
	return err
}

// IngestErrorCollector accumulates row errors up to a budget
type IngestErrorCollector struct {
	errors    []*IngestError
	maxErrors int
}

// NewIngestErrorCollector creates a collector with the given budget.
// A budget of zero means unlimited.
func NewIngestErrorCollector(maxErrors int) *IngestErrorCollector {
	return &IngestErrorCollector{
		errors:    make([]*IngestError, 0),
		maxErrors: maxErrors,
	}
}

// Add records an error and reports whether parsing should continue
func (c *IngestErrorCollector) Add(err *IngestError) bool {
	if err == nil {
		return true
	}
	c.errors = append(c.errors, err)
	if c.maxErrors > 0 && len(c.errors) >= c.maxErrors {
		return false
	}
	return err.Recoverable
}

// HasErrors reports whether any errors were collected
func (c *IngestErrorCollector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all collected errors
func (c *IngestErrorCollector) Errors() []*IngestError {
	return c.errors
}

// Summary aggregates the collected errors
func (c *IngestErrorCollector) Summary() *ErrorSummary {
	base := make([]*ReconcilerError, len(c.errors))
	for i, err := range c.errors {
		base[i] = err.ReconcilerError
	}
	return NewErrorSummary(base)
}

// FormatIngestErrors renders collected row errors grouped by file
func FormatIngestErrors(errs []*IngestError) string {
	if len(errs) == 0 {
		return "no ingest errors"
	}
	if len(errs) == 1 {
		return errs[0].Error()
	}

	byFile := make(map[string][]*IngestError)
	var order []string
	for _, err := range errs {
		file := filepath.Base(err.File)
		if _, seen := byFile[file]; !seen {
			order = append(order, file)
		}
		byFile[file] = append(byFile[file], err)
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("found %d row errors:", len(errs)))
	const maxDetailed = 3
	for _, file := range order {
		fileErrors := byFile[file]
		lines = append(lines, fmt.Sprintf("  %s (%d errors)", file, len(fileErrors)))
		for i, err := range fileErrors {
			if i == maxDetailed {
				lines = append(lines, fmt.Sprintf("    ... and %d more", len(fileErrors)-maxDetailed))
				break
			}
			lines = append(lines, "    "+err.Error())
		}
	}
	return strings.Join(lines, "\n")
}
