package services

import (
	"context"
	"sync"
	"time"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/events"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Task is a single remote call inside a phase.
type Task func(ctx context.Context) error

// Phase is a group of independent calls. Build runs only after the previous
// phase has settled, so it may read results produced by earlier phases.
// Settled, when set, runs once every call of the phase has finished.
type Phase struct {
	Name    entities.PhaseName
	Build   func() []Task
	Settled func()
}

// PhaseObserver is notified about every settled phase.
type PhaseObserver interface {
	ObservePhase(report entities.PhaseReport)
}

const DefaultConcurrency = 8

// Sequencer runs phases strictly one after another. Calls inside a phase run
// concurrently up to the configured limit, and a phase is done when every
// call has settled, whether it failed or not.
type Sequencer struct {
	concurrency int
	observer    PhaseObserver
	logger      *zap.Logger
}

func NewSequencer(concurrency int, observer PhaseObserver, logger *zap.Logger) *Sequencer {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Sequencer{
		concurrency: concurrency,
		observer:    observer,
		logger:      logger,
	}
}

// Run executes the phases in order and returns one report per phase. A failed
// call never stops later phases. Once ctx is done no new calls are dispatched
// and the calls left over are reported as failed with ctx.Err().
func (s *Sequencer) Run(ctx context.Context, runID string, phases []Phase) []entities.PhaseReport {
	reports := make([]entities.PhaseReport, 0, len(phases))
	for _, phase := range phases {
		report := s.runPhase(ctx, runID, phase)
		reports = append(reports, report)
	}
	return reports
}

func (s *Sequencer) runPhase(ctx context.Context, runID string, phase Phase) entities.PhaseReport {
	var tasks []Task
	if phase.Build != nil {
		tasks = phase.Build()
	}

	report := entities.PhaseReport{Name: phase.Name, Dispatched: len(tasks)}
	started := time.Now()
	events.PublishPhaseStarted(runID, phase.Name, len(tasks))

	var (
		mu     sync.Mutex
		failed int
		errs   error
	)
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		failed++
		errs = multierr.Append(errs, err)
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			for range tasks[i:] {
				record(err)
			}
			break
		}
		g.Go(func() error {
			if err := task(ctx); err != nil {
				record(err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if phase.Settled != nil {
		phase.Settled()
	}

	report.Failed = failed
	report.Err = errs
	if errs != nil {
		report.Error = errs.Error()
	}
	report.Duration = time.Since(started)

	if failed > 0 {
		s.logger.Warn("Phase settled with failures",
			zap.String("run_id", runID),
			zap.String("phase", string(phase.Name)),
			zap.Int("calls", report.Dispatched),
			zap.Int("failed", failed),
			zap.Error(errs))
	} else {
		s.logger.Info("Phase settled",
			zap.String("run_id", runID),
			zap.String("phase", string(phase.Name)),
			zap.Int("calls", report.Dispatched),
			zap.Duration("duration", report.Duration))
	}

	events.PublishPhaseSettled(runID, report)
	if s.observer != nil {
		s.observer.ObservePhase(report)
	}
	return report
}
