package events

import (
	"time"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/kelindar/event"
)

// Event types
const (
	PhaseStartedEventType  uint32 = 1
	PhaseSettledEventType  uint32 = 2
	RunCompletedEventType  uint32 = 3
	LedgerChangedEventType uint32 = 4
)

// PhaseStartedEvent is emitted before the first call of a phase is dispatched.
type PhaseStartedEvent struct {
	RunID string
	Phase entities.PhaseName
	Calls int
}

// PhaseSettledEvent is emitted once every call of a phase has settled.
type PhaseSettledEvent struct {
	RunID    string
	Phase    entities.PhaseName
	Calls    int
	Failed   int
	Duration time.Duration
}

type RunCompletedEvent struct {
	RunID  string
	Report *entities.GenerationReport
}

type LedgerChangedEvent struct {
	Size int
}

// Type implements the Event interface
func (e PhaseStartedEvent) Type() uint32 {
	return PhaseStartedEventType
}

// Type implements the Event interface
func (e PhaseSettledEvent) Type() uint32 {
	return PhaseSettledEventType
}

// Type implements the Event interface
func (e RunCompletedEvent) Type() uint32 {
	return RunCompletedEventType
}

// Type implements the Event interface
func (e LedgerChangedEvent) Type() uint32 {
	return LedgerChangedEventType
}

func PublishPhaseStarted(runID string, phase entities.PhaseName, calls int) {
	event.Emit(PhaseStartedEvent{RunID: runID, Phase: phase, Calls: calls})
}

func PublishPhaseSettled(runID string, report entities.PhaseReport) {
	event.Emit(PhaseSettledEvent{
		RunID:    runID,
		Phase:    report.Name,
		Calls:    report.Dispatched,
		Failed:   report.Failed,
		Duration: report.Duration,
	})
}

func PublishRunCompleted(report *entities.GenerationReport) {
	event.Emit(RunCompletedEvent{RunID: report.RunID, Report: report})
}

func PublishLedgerChanged(size int) {
	event.Emit(LedgerChangedEvent{Size: size})
}

func SubscribeToPhaseStarted(handler func(e PhaseStartedEvent)) func() {
	return event.On(handler)
}

func SubscribeToPhaseSettled(handler func(e PhaseSettledEvent)) func() {
	return event.On(handler)
}

func SubscribeToRunCompleted(handler func(e RunCompletedEvent)) func() {
	return event.On(handler)
}

func SubscribeToLedgerChanged(handler func(e LedgerChangedEvent)) func() {
	return event.On(handler)
}
