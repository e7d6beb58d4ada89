package matcher

import (
	"context"
	"sync"
	"time"

	reconcilererrors "ar-reconciliation-service/pkg/errors"
	"ar-reconciliation-service/pkg/logger"

	"ar-reconciliation-service/internal/models"
)

// ProgressFunc receives progress updates during a reconciliation run
type ProgressFunc func(percent float64, phase string)

// Phase labels reported through ProgressFunc
const (
	PhaseMatching    = "matching"
	PhaseSplitScan   = "scanning split payments"
	PhaseCombineScan = "scanning combined payments"
	PhaseClassifying = "classifying"
)

// AssignmentRequest carries everything a strategy needs for one pass
type AssignmentRequest struct {
	Invoices  []*models.Invoice
	BankLines []*models.BankLine
	Scorer    *Scorer
	Config    *MatchingConfig
	Ledger    *ConsumptionLedger

	// OnBatch is called after every batch of invoices. A non-nil
	// return aborts the pass and is propagated to the caller.
	OnBatch func(processed, total int) error
}

// AssignmentStrategy decides which invoice-to-bank-line pairings to
// accept in the one-to-one pass. The engine ships with a greedy
// strategy; alternative strategies can be plugged in via
// MatchingEngine.SetStrategy.
type AssignmentStrategy interface {
	Name() string
	Assign(req *AssignmentRequest) ([]*Match, error)
}

// GreedyStrategy walks invoices in input order and claims the best
// open bank line for each. Ties keep the first-encountered line, so
// results are deterministic for a given input order.
type GreedyStrategy struct{}

// Name returns the strategy identifier
func (g *GreedyStrategy) Name() string {
	return "greedy"
}

// Assign runs the greedy one-to-one pass
func (g *GreedyStrategy) Assign(req *AssignmentRequest) ([]*Match, error) {
	matches := make([]*Match, 0)
	batchSize := req.Config.BatchSize
	total := len(req.Invoices)

	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}

		for _, invoice := range req.Invoices[start:end] {
			if req.Ledger.IsInvoiceConsumed(invoice.ID) {
				continue
			}

			var best *CandidateScore
			for _, line := range req.BankLines {
				if req.Ledger.IsBankLineConsumed(line.ID) {
					continue
				}
				candidate := req.Scorer.Score(invoice, line)
				if best == nil || candidate.Composite > best.Composite {
					c := candidate
					best = &c
				}
			}

			if best == nil || best.Composite < req.Config.MinConfidence || !best.AmountOK {
				continue
			}

			req.Ledger.MarkInvoiceConsumed(invoice.ID)
			req.Ledger.MarkBankLineConsumed(best.BankLine.ID)
			matches = append(matches, newExactMatch(*best))
		}

		if req.OnBatch != nil {
			if err := req.OnBatch(end, total); err != nil {
				return nil, err
			}
		}
	}

	return matches, nil
}

// MatchingEngine orchestrates the matching passes for one run
type MatchingEngine struct {
	config   *MatchingConfig
	scorer   *Scorer
	strategy AssignmentStrategy
	logger   logger.Logger

	mu      sync.Mutex
	running bool
}

// NewMatchingEngine creates an engine, falling back to the default
// configuration and the greedy strategy.
func NewMatchingEngine(config *MatchingConfig) *MatchingEngine {
	if config == nil {
		config = DefaultMatchingConfig()
	}
	return &MatchingEngine{
		config:   config,
		scorer:   NewScorer(config),
		strategy: &GreedyStrategy{},
		logger:   logger.GetGlobalLogger().WithComponent("matching_engine"),
	}
}

// SetStrategy replaces the one-to-one assignment strategy
func (e *MatchingEngine) SetStrategy(strategy AssignmentStrategy) {
	if strategy != nil {
		e.strategy = strategy
	}
}

// Config returns the engine's configuration
func (e *MatchingEngine) Config() *MatchingConfig {
	return e.config
}

// Reconcile runs the full matching pipeline over the given records.
// Only one run may be active at a time. Cancellation is checked
// between batches; a cancelled run discards all partial progress.
func (e *MatchingEngine) Reconcile(ctx context.Context, invoices []*models.Invoice, lines []*models.BankLine, progress ProgressFunc) (*ReconciliationResult, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, reconcilererrors.ReconciliationError(reconcilererrors.CodeRunInProgress, "reconcile", nil)
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	start := time.Now()
	ledger := NewConsumptionLedger()

	report := func(percent float64, phase string) {
		if progress != nil {
			progress(percent, phase)
		}
	}

	// The one-to-one pass owns the bulk of the progress range; the
	// grouped passes and classification share the remainder.
	matchingSpan := 95.0
	if e.config.EnableGroupedMatching {
		matchingSpan = 60.0
	}

	req := &AssignmentRequest{
		Invoices:  invoices,
		BankLines: lines,
		Scorer:    e.scorer,
		Config:    e.config,
		Ledger:    ledger,
		OnBatch: func(processed, total int) error {
			if err := ctx.Err(); err != nil {
				return reconcilererrors.ReconciliationError(reconcilererrors.CodeCancelled, PhaseMatching, err)
			}
			report(float64(processed)/float64(total)*matchingSpan, PhaseMatching)
			return nil
		},
	}

	e.logger.WithFields(logger.Fields{
		"invoices":   len(invoices),
		"bank_lines": len(lines),
		"strategy":   e.strategy.Name(),
		"grouped":    e.config.EnableGroupedMatching,
	}).Info("Starting reconciliation run")

	report(0, PhaseMatching)
	matches, err := e.strategy.Assign(req)
	if err != nil {
		return nil, err
	}

	if e.config.EnableGroupedMatching {
		if err := ctx.Err(); err != nil {
			return nil, reconcilererrors.ReconciliationError(reconcilererrors.CodeCancelled, PhaseSplitScan, err)
		}
		report(matchingSpan, PhaseSplitScan)
		matches = append(matches, e.matchSplitPayments(invoices, lines, ledger)...)

		if err := ctx.Err(); err != nil {
			return nil, reconcilererrors.ReconciliationError(reconcilererrors.CodeCancelled, PhaseCombineScan, err)
		}
		report(80, PhaseCombineScan)
		matches = append(matches, e.matchCombinedPayments(invoices, lines, ledger)...)
	}

	report(95, PhaseClassifying)
	result := buildResult(invoices, lines, matches, ledger, start, time.Since(start))
	report(100, PhaseClassifying)

	e.logger.WithFields(logger.Fields{
		"matches":              len(result.Matches),
		"unmatched_invoices":   len(result.UnmatchedInvoices),
		"unmatched_bank_lines": len(result.UnmatchedBankLines),
		"duration":             result.Summary.Duration.String(),
	}).Info("Reconciliation run completed")

	return result, nil
}
