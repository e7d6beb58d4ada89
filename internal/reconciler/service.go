// Package reconciler wires parsing, matching and classification into a
// single run-level service.
package reconciler

import (
	"context"

	"ar-reconciliation-service/internal/matcher"
	"ar-reconciliation-service/internal/models"
	"ar-reconciliation-service/internal/parsers"
	"ar-reconciliation-service/pkg/errors"
	"ar-reconciliation-service/pkg/logger"
)

// Options configures a reconciliation service
type Options struct {
	MatcherConfig *matcher.MatchingConfig
	ParserConfig  *parsers.ParserConfig

	// Progress receives percent and phase updates during runs
	Progress matcher.ProgressFunc
}

// Service runs end-to-end reconciliations from files or records
type Service struct {
	invoiceParser *parsers.InvoiceParser
	bankParser    *parsers.BankLineParser
	engine        *matcher.MatchingEngine
	progress      matcher.ProgressFunc
	logger        logger.Logger
}

// RunResult bundles the match outcome with ingestion statistics
type RunResult struct {
	Result       *matcher.ReconciliationResult `json:"result"`
	InvoiceStats *parsers.ParseStats           `json:"invoiceStats,omitempty"`
	BankStats    *parsers.ParseStats           `json:"bankStats,omitempty"`
}

// NewService creates a service, falling back to defaults for any
// option left nil.
func NewService(opts *Options) *Service {
	if opts == nil {
		opts = &Options{}
	}
	return &Service{
		invoiceParser: parsers.NewInvoiceParser(opts.ParserConfig),
		bankParser:    parsers.NewBankLineParser(opts.ParserConfig),
		engine:        matcher.NewMatchingEngine(opts.MatcherConfig),
		progress:      opts.Progress,
		logger:        logger.GetGlobalLogger().WithComponent("reconciler"),
	}
}

// SetStrategy replaces the engine's assignment strategy
func (s *Service) SetStrategy(strategy matcher.AssignmentStrategy) {
	s.engine.SetStrategy(strategy)
}

// ReconcileFiles loads both input files and runs the engine over them
func (s *Service) ReconcileFiles(ctx context.Context, invoicePath, bankPath string) (*RunResult, error) {
	var (
		invoices     []*models.Invoice
		lines        []*models.BankLine
		invoiceStats *parsers.ParseStats
		bankStats    *parsers.ParseStats
	)

	err := logger.TimedOperation("load input files", s.logger, func() error {
		var err error
		invoices, invoiceStats, err = s.invoiceParser.ParseInvoices(invoicePath)
		if err != nil {
			return errors.WrapIfNeeded(err, errors.CategoryParse, errors.CodeInvalidFormat, "failed to load invoices")
		}
		lines, bankStats, err = s.bankParser.ParseBankLines(bankPath)
		if err != nil {
			return errors.WrapIfNeeded(err, errors.CategoryParse, errors.CodeInvalidFormat, "failed to load bank statement")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := s.Reconcile(ctx, invoices, lines)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		Result:       result,
		InvoiceStats: invoiceStats,
		BankStats:    bankStats,
	}, nil
}

// Reconcile matches the given records. Both inputs must be non-empty;
// an empty side is a precondition failure, not an empty result.
func (s *Service) Reconcile(ctx context.Context, invoices []*models.Invoice, lines []*models.BankLine) (*matcher.ReconciliationResult, error) {
	if len(invoices) == 0 {
		return nil, errors.ValidationError(errors.CodeEmptyInput, "invoices", len(invoices), nil)
	}
	if len(lines) == 0 {
		return nil, errors.ValidationError(errors.CodeEmptyInput, "bank lines", len(lines), nil)
	}

	invoices = dedupeInvoiceIDs(invoices, s.logger)
	lines = dedupeBankLineIDs(lines, s.logger)

	tracker := logger.NewProgressTracker("reconcile", s.logger, 0)
	progress := func(percent float64, phase string) {
		tracker.Update(percent, phase)
		if s.progress != nil {
			s.progress(percent, phase)
		}
	}

	result, err := s.engine.Reconcile(ctx, invoices, lines, progress)
	if err != nil {
		tracker.CompleteWithError(err)
		return nil, err
	}
	tracker.Complete()

	s.logger.WithFields(logger.Fields{
		"matches":            len(result.Matches),
		"invoice_match_rate": result.Summary.InvoiceMatchRate,
	}).Info("Reconciliation finished")

	return result, nil
}
