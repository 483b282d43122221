package metrics

import (
	"strconv"
	"time"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/events"
)

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	r.HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// ObservePhase records a settled phase. It satisfies services.PhaseObserver.
func (r *Registry) ObservePhase(report entities.PhaseReport) {
	phase := string(report.Name)
	r.PhaseCallsTotal.WithLabelValues(phase, "ok").Add(float64(report.Dispatched - report.Failed))
	r.PhaseCallsTotal.WithLabelValues(phase, "failed").Add(float64(report.Failed))
	r.PhaseDuration.WithLabelValues(phase).Observe(report.Duration.Seconds())
	if report.Failed > 0 {
		r.BackendCallsFailed.WithLabelValues(phase).Add(float64(report.Failed))
	}
}

// ObserveRun records a finished generation run.
func (r *Registry) ObserveRun(report *entities.GenerationReport) {
	status := "success"
	if report.Failed() > 0 {
		status = "partial"
	}
	r.RunsTotal.WithLabelValues(status).Inc()
	if !report.FinishedAt.IsZero() {
		r.RunDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	}
}

// Subscribe follows run and ledger events until Close is called.
func (r *Registry) Subscribe() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unsubs = append(r.unsubs,
		events.SubscribeToRunCompleted(func(e events.RunCompletedEvent) {
			r.ObserveRun(e.Report)
		}),
		events.SubscribeToLedgerChanged(func(e events.LedgerChangedEvent) {
			r.LedgerEntities.Set(float64(e.Size))
		}),
	)
}

func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, unsub := range r.unsubs {
		unsub()
	}
	r.unsubs = nil
}
