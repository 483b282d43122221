package tui

import (
	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/events"
)

type (
	treeLoadedMsg struct {
		tree   *entities.HierarchyTree
		ledger []entities.EntityRef
	}
	realTreeLoadedMsg struct {
		display *entities.DisplayTree
	}
)

type (
	startGenerationMsg struct{}
	generationDoneMsg  struct {
		tree   *entities.HierarchyTree
		report *entities.GenerationReport
		err    error
	}
	phaseStartedMsg events.PhaseStartedEvent
	phaseSettledMsg events.PhaseSettledEvent
)

type deletedMsg struct {
	count int
	err   error
}

type (
	startHelpMsg     struct{}
	helpCancelledMsg struct{}
)

type errMsg error
