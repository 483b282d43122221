package tui

import (
	"fmt"
	"strings"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/services"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	modeModel   = "model"
	modeBackend = "backend"
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))

type TreeView struct {
	modelService services.ModelService
	viewport     viewport.Model
	tree         *entities.HierarchyTree
	display      *entities.DisplayTree
	ledger       []entities.EntityRef
	report       *entities.GenerationReport
	count        int
	mode         string
	status       string
	err          error
	width        int
	height       int
}

func NewTreeView(modelService services.ModelService, count int) TreeView {
	return TreeView{
		modelService: modelService,
		viewport:     viewport.New(80, 20),
		count:        count,
		mode:         modeModel,
		width:        80,
		height:       24,
	}
}

func (v TreeView) Init() tea.Cmd {
	return loadTreeCmd(v.modelService)
}

func (v *TreeView) refresh() {
	var content string
	if v.mode == modeBackend {
		content = RenderDisplayTree(v.display)
	} else {
		content = RenderTree(v.tree, v.count)
		if v.report != nil {
			content += "\n" + RenderReport(v.report)
		}
	}
	v.viewport.SetContent(content)
}

// SetGenerated shows the outcome of a run: the populated tree when there is
// one and the phase report.
func (v TreeView) SetGenerated(msg generationDoneMsg) TreeView {
	if msg.tree != nil {
		v.tree = msg.tree
	}
	v.report = msg.report
	v.mode = modeModel
	v.err = msg.err
	v.status = ""
	if msg.report != nil && msg.err == nil {
		v.status = fmt.Sprintf("Run %s finished", msg.report.RunID)
	}
	v.refresh()
	return v
}

func (v TreeView) Update(msg tea.Msg) (TreeView, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = m.Width
		v.height = m.Height
		v.viewport.Width = m.Width
		v.viewport.Height = max(m.Height-4, 1)
		v.refresh()
		return v, nil

	case treeLoadedMsg:
		v.tree = m.tree
		v.ledger = m.ledger
		v.err = nil
		v.refresh()
		return v, nil

	case realTreeLoadedMsg:
		v.display = m.display
		v.err = nil
		v.status = fmt.Sprintf("Loaded %d entities from the backend", len(m.display.Nodes))
		v.refresh()
		return v, nil

	case deletedMsg:
		if m.err != nil {
			v.err = m.err
			return v, nil
		}
		v.status = fmt.Sprintf("Deleted %d generated entities", m.count)
		v.report = nil
		v.display = nil
		return v, loadTreeCmd(v.modelService)

	case errMsg:
		v.err = m
		return v, nil

	case tea.KeyMsg:
		switch m.String() {
		case "ctrl+c", "q":
			return v, tea.Quit
		case "?":
			return v, func() tea.Msg { return startHelpMsg{} }
		case "g":
			return v, func() tea.Msg { return startGenerationMsg{} }
		case "d":
			v.status = "Deleting generated entities..."
			return v, deleteCmd(v.modelService)
		case "l":
			v.status = ""
			v.report = nil
			if v.mode == modeBackend {
				return v, loadRealTreeCmd(v.modelService)
			}
			return v, loadTreeCmd(v.modelService)
		case "r":
			if v.mode == modeModel {
				v.mode = modeBackend
				v.refresh()
				return v, loadRealTreeCmd(v.modelService)
			}
			v.mode = modeModel
			v.refresh()
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v TreeView) View() string {
	title := "Hierarchy model"
	if v.mode == modeBackend {
		title = "Backend entities"
	}

	var footer strings.Builder
	footer.WriteString(dimStyle.Render(RenderLedger(v.ledger)))
	if v.err != nil {
		footer.WriteString("  " + errorStyle.Render(v.err.Error()))
	} else if v.status != "" {
		footer.WriteString("  " + v.status)
	}
	footer.WriteString("\n" + dimStyle.Render("g generate · d delete · r toggle · l reload · ? help · q quit"))

	return titleStyle.Render(title) + "\n" + v.viewport.View() + "\n" + footer.String()
}
