package tui

import (
	"context"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/services"

	tea "github.com/charmbracelet/bubbletea"
)

type TUI struct {
	modelService services.ModelService
	settings     entities.AutoGeneratingSettings
	feed         *progressFeed

	treeView     TreeView
	progressView ProgressView
	helpView     HelpView

	state string
}

func NewTUI(modelService services.ModelService, settings entities.AutoGeneratingSettings) TUI {
	return TUI{
		modelService: modelService,
		settings:     settings,
		feed:         newProgressFeed(),

		treeView:     NewTreeView(modelService, settings.Count),
		progressView: NewProgressView(),
		helpView:     NewHelpView(),

		state: "tree/view",
	}
}

// Close stops listening for generation events.
func (t TUI) Close() {
	t.feed.Close()
}

func (t TUI) Init() tea.Cmd {
	return tea.Batch(
		t.treeView.Init(),
		t.helpView.Init(),
		t.feed.wait(),
	)
}

func (t TUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case startGenerationMsg:
		ctx, cancel := context.WithCancel(context.Background())
		var cmd tea.Cmd
		t.progressView, cmd = t.progressView.Start(t.settings, cancel)
		t.state = "generation/progress"
		return t, tea.Batch(cmd, generateCmd(ctx, t.modelService, t.settings))

	case generationDoneMsg:
		t.progressView = t.progressView.Stop()
		t.treeView = t.treeView.SetGenerated(msg)
		t.state = "tree/view"
		return t, nil

	case phaseStartedMsg, phaseSettledMsg:
		var cmd tea.Cmd
		t.progressView, cmd = t.progressView.Update(msg)
		return t, tea.Batch(cmd, t.feed.wait())

	case treeLoadedMsg, realTreeLoadedMsg, deletedMsg, errMsg:
		var cmd tea.Cmd
		t.treeView, cmd = t.treeView.Update(msg)
		return t, cmd

	case startHelpMsg:
		t.state = "tree/help"
		return t, t.helpView.Init()
	case helpCancelledMsg:
		t.state = "tree/view"
		return t, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			t.progressView = t.progressView.Stop()
			return t, tea.Quit
		}

	case tea.WindowSizeMsg:
		var cmds []tea.Cmd
		var cmd tea.Cmd

		t.treeView, cmd = t.treeView.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}

		t.helpView, cmd = t.helpView.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}

		return t, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	switch t.state {
	case "tree/view":
		t.treeView, cmd = t.treeView.Update(msg)
	case "tree/help":
		t.helpView, cmd = t.helpView.Update(msg)
	case "generation/progress":
		t.progressView, cmd = t.progressView.Update(msg)
	}
	return t, cmd
}

func (t TUI) View() string {
	switch t.state {
	case "tree/view":
		return t.treeView.View()
	case "tree/help":
		return t.helpView.View()
	case "generation/progress":
		return t.progressView.View()
	}

	return "Error: Invalid state"
}
