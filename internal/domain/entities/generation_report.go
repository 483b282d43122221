package entities

import (
	"time"

	"github.com/google/uuid"
)

type PhaseName string

const (
	PhaseCreateEntities  PhaseName = "create-entities"
	PhaseChangeOwner     PhaseName = "change-owner"
	PhaseCreateRelations PhaseName = "create-relations"
	PhaseSaveAttributes  PhaseName = "save-attributes"
	PhaseSaveTelemetry   PhaseName = "save-telemetry"

	PhaseDeleteDevices   PhaseName = "delete-devices"
	PhaseDeleteAssets    PhaseName = "delete-assets"
	PhaseDeleteCustomers PhaseName = "delete-customers"
)

// PhaseReport summarizes a settled phase. Err combines every failed call.
type PhaseReport struct {
	Name       PhaseName     `json:"name"`
	Dispatched int           `json:"dispatched"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
	Error      string        `json:"error,omitempty"`
}

type GenerationReport struct {
	RunID      string        `json:"runId"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Phases     []PhaseReport `json:"phases"`
}

func NewGenerationReport() *GenerationReport {
	return &GenerationReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
}

func (r *GenerationReport) Failed() int {
	failed := 0
	for _, p := range r.Phases {
		failed += p.Failed
	}
	return failed
}

func (r *GenerationReport) Dispatched() int {
	dispatched := 0
	for _, p := range r.Phases {
		dispatched += p.Dispatched
	}
	return dispatched
}

func (r *GenerationReport) Phase(name PhaseName) *PhaseReport {
	for i := range r.Phases {
		if r.Phases[i].Name == name {
			return &r.Phases[i]
		}
	}
	return nil
}
