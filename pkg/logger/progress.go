package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker logs phase-by-phase progress of a reconciliation run.
// Updates arrive as a percentage plus a phase label and are logged at
// most once per interval to keep long runs readable.
type ProgressTracker struct {
	logger      Logger
	operation   string
	percent     float64
	phase       string
	startTime   time.Time
	lastLogTime time.Time
	logInterval time.Duration
	mutex       sync.Mutex
}

// NewProgressTracker creates a tracker for the named operation
func NewProgressTracker(operation string, log Logger, interval time.Duration) *ProgressTracker {
	if log == nil {
		log = GetGlobalLogger()
	}
	if interval == 0 {
		interval = 2 * time.Second
	}

	tracker := &ProgressTracker{
		logger:      log.WithComponent("progress"),
		operation:   operation,
		startTime:   time.Now(),
		lastLogTime: time.Now(),
		logInterval: interval,
	}

	tracker.logger.WithField("operation", operation).Info("Starting operation")
	return tracker
}

// Update records the current percentage and phase. Phase transitions
// are always logged; within a phase the interval applies.
func (p *ProgressTracker) Update(percent float64, phase string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	phaseChanged := phase != p.phase
	p.percent = percent
	p.phase = phase

	now := time.Now()
	if phaseChanged || now.Sub(p.lastLogTime) >= p.logInterval {
		p.logger.WithFields(Fields{
			"operation": p.operation,
			"phase":     phase,
			"percent":   fmt.Sprintf("%.1f%%", percent),
		}).Info("Progress update")
		p.lastLogTime = now
	}
}

// Complete logs final timing for the operation
func (p *ProgressTracker) Complete() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.logger.WithFields(Fields{
		"operation": p.operation,
		"duration":  time.Since(p.startTime).String(),
	}).Info("Operation completed")
}

// CompleteWithError logs final timing together with the failure
func (p *ProgressTracker) CompleteWithError(err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.logger.WithError(err).WithFields(Fields{
		"operation": p.operation,
		"phase":     p.phase,
		"duration":  time.Since(p.startTime).String(),
	}).Error("Operation failed")
}

// TimedOperation runs fn and logs its duration and outcome
func TimedOperation(operation string, log Logger, fn func() error) error {
	if log == nil {
		log = GetGlobalLogger()
	}
	log = log.WithComponent("operation").WithField("operation", operation)

	start := time.Now()
	log.Info("Starting operation")

	err := fn()
	duration := time.Since(start).String()

	if err != nil {
		log.WithError(err).WithField("duration", duration).Error("Operation failed")
	} else {
		log.WithField("duration", duration).Info("Operation completed")
	}
	return err
}
