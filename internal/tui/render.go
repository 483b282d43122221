package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/services"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	kindStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	relationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// maxListedEntities caps how many generated names are printed per node.
const maxListedEntities = 3

// RenderTree draws the hierarchy with one line per node. With count > 0 every
// node shows how many entities a run with that count creates for it.
func RenderTree(tree *entities.HierarchyTree, count int) string {
	if tree == nil || len(tree.Roots) == 0 {
		return dimStyle.Render("(empty model)") + "\n"
	}

	var sb strings.Builder
	var visit func(node *entities.HierarchyTreeNode, prefix string, last, root bool)
	visit = func(node *entities.HierarchyTreeNode, prefix string, last, root bool) {
		branch, childPrefix := "", ""
		if !root {
			branch = "├─ "
			childPrefix = prefix + "│  "
			if last {
				branch = "└─ "
				childPrefix = prefix + "   "
			}
		}

		sb.WriteString(prefix + branch + node.Name + " " + kindStyle.Render("["+string(node.Type)+"]"))
		if node.Data.RelationType != "" {
			sb.WriteString(" " + relationStyle.Render(node.Data.RelationType))
		}
		sb.WriteString(dimStyle.Render(fmt.Sprintf(" level %d", node.Level)))
		if count > 0 && !node.IsTenant() {
			sb.WriteString(dimStyle.Render(" ×" + humanize.Comma(int64(services.FanOut(count, node.Level)))))
		}
		sb.WriteString("\n")

		for i, e := range node.Entities {
			if i == maxListedEntities {
				sb.WriteString(childPrefix + dimStyle.Render(fmt.Sprintf("  … and %s more", humanize.Comma(int64(len(node.Entities)-maxListedEntities)))) + "\n")
				break
			}
			sb.WriteString(childPrefix + okStyle.Render("  • "+e.Name) + "\n")
		}

		for i, child := range node.Children {
			visit(child, childPrefix, i == len(node.Children)-1, false)
		}
	}

	for _, root := range tree.Roots {
		visit(root, "", true, true)
	}
	return sb.String()
}

// RenderDisplayTree draws entities loaded from the backend, grouped under
// their parent entity.
func RenderDisplayTree(display *entities.DisplayTree) string {
	if display == nil || display.Empty() {
		return dimStyle.Render("(no entities on the backend)") + "\n"
	}

	children := make(map[string][]entities.DisplayNode)
	for _, node := range display.Nodes {
		children[node.Parent] = append(children[node.Parent], node)
	}

	var sb strings.Builder
	var visit func(parent string, depth int)
	visit = func(parent string, depth int) {
		for _, node := range children[parent] {
			sb.WriteString(strings.Repeat("  ", depth) + node.Text + "\n")
			visit(node.ID, depth+1)
		}
	}
	visit(entities.DisplayRootParent, 0)
	return sb.String()
}

// RenderReport summarizes a generation run, one line per phase.
func RenderReport(report *entities.GenerationReport) string {
	if report == nil {
		return ""
	}

	var sb strings.Builder
	for _, phase := range report.Phases {
		line := fmt.Sprintf("%-18s %8s calls  %s", phase.Name, humanize.Comma(int64(phase.Dispatched)), phase.Duration.Round(time.Millisecond))
		if phase.Failed > 0 {
			sb.WriteString(errorStyle.Render(fmt.Sprintf("%s  %d failed", line, phase.Failed)) + "\n")
			continue
		}
		sb.WriteString(line + "\n")
	}

	total := report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)
	summary := fmt.Sprintf("%s calls in %s", humanize.Comma(int64(report.Dispatched())), total)
	if failed := report.Failed(); failed > 0 {
		summary += errorStyle.Render(fmt.Sprintf(", %s failed", humanize.Comma(int64(failed))))
	}
	sb.WriteString(summary + "\n")
	return sb.String()
}

// RenderLedger counts generated entities by type.
func RenderLedger(refs []entities.EntityRef) string {
	if len(refs) == 0 {
		return "no generated entities"
	}
	byType := make(map[entities.EntityType]int)
	for _, ref := range refs {
		byType[ref.EntityType]++
	}
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, string(t))
	}
	sort.Strings(types)

	parts := make([]string, 0, len(types))
	for _, t := range types {
		parts = append(parts, fmt.Sprintf("%s %s", humanize.Comma(int64(byType[entities.EntityType(t)])), strings.ToLower(t)))
	}
	return fmt.Sprintf("%s generated entities (%s)", humanize.Comma(int64(len(refs))), strings.Join(parts, ", "))
}
