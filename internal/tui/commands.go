package tui

import (
	"context"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/events"
	"github.com/drujensen/datamodels/internal/domain/services"

	tea "github.com/charmbracelet/bubbletea"
)

func loadTreeCmd(modelService services.ModelService) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		state, err := modelService.GetModel(ctx)
		if err != nil {
			return errMsg(err)
		}
		return treeLoadedMsg{tree: services.BuildTree(state.Model), ledger: state.GeneratedEntities}
	}
}

func loadRealTreeCmd(modelService services.ModelService) tea.Cmd {
	return func() tea.Msg {
		display, err := modelService.LoadRealTree(context.Background())
		if err != nil {
			return errMsg(err)
		}
		return realTreeLoadedMsg{display: display}
	}
}

func generateCmd(ctx context.Context, modelService services.ModelService, settings entities.AutoGeneratingSettings) tea.Cmd {
	return func() tea.Msg {
		tree, report, err := modelService.AutoFill(ctx, settings)
		return generationDoneMsg{tree: tree, report: report, err: err}
	}
}

func deleteCmd(modelService services.ModelService) tea.Cmd {
	return func() tea.Msg {
		count, err := modelService.DeleteGenerated(context.Background())
		return deletedMsg{count: count, err: err}
	}
}

// progressFeed turns phase events into tea messages. Events that arrive while
// the buffer is full are dropped; the final report is authoritative.
type progressFeed struct {
	ch     chan tea.Msg
	unsubs []func()
}

func newProgressFeed() *progressFeed {
	f := &progressFeed{ch: make(chan tea.Msg, 32)}
	f.unsubs = []func(){
		events.SubscribeToPhaseStarted(func(e events.PhaseStartedEvent) {
			f.send(phaseStartedMsg(e))
		}),
		events.SubscribeToPhaseSettled(func(e events.PhaseSettledEvent) {
			f.send(phaseSettledMsg(e))
		}),
	}
	return f
}

func (f *progressFeed) send(msg tea.Msg) {
	select {
	case f.ch <- msg:
	default:
	}
}

// wait blocks until the next event and is re-armed after every delivery.
func (f *progressFeed) wait() tea.Cmd {
	return func() tea.Msg {
		return <-f.ch
	}
}

func (f *progressFeed) Close() {
	for _, unsub := range f.unsubs {
		unsub()
	}
	f.unsubs = nil
}
