package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/drujensen/datamodels/internal/domain/entities"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type phaseLine struct {
	name     entities.PhaseName
	calls    int
	failed   int
	duration time.Duration
	settled  bool
}

type ProgressView struct {
	spinner   spinner.Model
	phases    []phaseLine
	runID     string
	running   bool
	canceled  bool
	startTime time.Time
	cancel    context.CancelFunc
	settings  entities.AutoGeneratingSettings
}

func NewProgressView() ProgressView {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return ProgressView{spinner: s}
}

// Start resets the view for a new run. cancel aborts the run.
func (p ProgressView) Start(settings entities.AutoGeneratingSettings, cancel context.CancelFunc) (ProgressView, tea.Cmd) {
	p.phases = nil
	p.runID = ""
	p.running = true
	p.canceled = false
	p.startTime = time.Now()
	p.cancel = cancel
	p.settings = settings
	return p, p.spinner.Tick
}

func (p ProgressView) Stop() ProgressView {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.running = false
	return p
}

func (p ProgressView) Update(msg tea.Msg) (ProgressView, tea.Cmd) {
	switch m := msg.(type) {
	case spinner.TickMsg:
		if p.running {
			var cmd tea.Cmd
			p.spinner, cmd = p.spinner.Update(m)
			return p, cmd
		}

	case phaseStartedMsg:
		if !p.running || (p.runID != "" && p.runID != m.RunID) {
			return p, nil
		}
		p.runID = m.RunID
		p.phases = append(p.phases, phaseLine{name: m.Phase, calls: m.Calls})

	case phaseSettledMsg:
		if !p.running || p.runID != m.RunID {
			return p, nil
		}
		for i := range p.phases {
			if p.phases[i].name == m.Phase {
				p.phases[i].calls = m.Calls
				p.phases[i].failed = m.Failed
				p.phases[i].duration = m.Duration
				p.phases[i].settled = true
			}
		}

	case tea.KeyMsg:
		if m.Type == tea.KeyEsc && p.running && p.cancel != nil {
			p.cancel()
			p.canceled = true
		}
	}
	return p, nil
}

func (p ProgressView) View() string {
	var sb strings.Builder
	title := fmt.Sprintf("Generating demo data (count %d, prefix %q)", p.settings.Count, p.settings.Prefix)
	sb.WriteString(p.spinner.View() + " " + lipgloss.NewStyle().Bold(true).Render(title))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("  %s", time.Since(p.startTime).Round(time.Second))) + "\n\n")

	for _, phase := range p.phases {
		mark := "…"
		if phase.settled {
			mark = okStyle.Render("✓")
			if phase.failed > 0 {
				mark = errorStyle.Render("✗")
			}
		}
		line := fmt.Sprintf("%s %-18s %8s calls", mark, phase.name, humanize.Comma(int64(phase.calls)))
		if phase.settled {
			line += dimStyle.Render("  " + phase.duration.Round(time.Millisecond).String())
		}
		if phase.failed > 0 {
			line += errorStyle.Render(fmt.Sprintf("  %d failed", phase.failed))
		}
		sb.WriteString(line + "\n")
	}

	if p.canceled {
		sb.WriteString("\n" + errorStyle.Render("Canceling, waiting for calls in flight...") + "\n")
	} else {
		sb.WriteString("\n" + dimStyle.Render("Press Esc to cancel") + "\n")
	}
	return sb.String()
}
