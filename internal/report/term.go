package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"refdrift/internal/reconcile"
)

// Severity accents reuse the red/yellow/green/blue the workbook fills carry,
// in terminal-friendly shades.
var (
	termTitle    = lipgloss.NewStyle().Bold(true)
	termMuted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	termSevere   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true)
	termModerate = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	termMinor    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	termNew      = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3"))
)

// summaryRow is one labeled counter; style decorates the count.
type summaryRow struct {
	label string
	count int
	style lipgloss.Style
}

// RenderTerm renders one report's summary for the terminal: a banner line,
// the counter table, and the codes behind any severe changes.
func RenderTerm(rep *reconcile.Report) string {
	sum := reconcile.Summarize(rep)

	var sb strings.Builder
	sb.WriteString(termTitle.Render(fmt.Sprintf("%s: %s vs %s", rep.Field, rep.BeforeName, rep.AfterName)))
	sb.WriteString("\n")
	sb.WriteString(termMuted.Render(fmt.Sprintf("scored by %s, run %s", rep.Scorer, rep.RunID)))
	sb.WriteString("\n\n")

	plain := lipgloss.NewStyle()
	rows := []summaryRow{
		{"Total", sum.Total, plain},
		{"No Change", sum.NoChange, plain},
		{"Modified", sum.Modified, plain},
		{"Severe Change", sum.Severe, termSevere},
		{"Moderate Change", sum.Moderate, termModerate},
		{"Minor Wording Change", sum.Minor, termMinor},
		{"New Entries", sum.NewlyAdded, termNew},
		{"Removed", sum.Removed, termSevere},
	}

	// Label column sized to the widest cell plus a fixed pad.
	labelWidth := 0
	for _, r := range rows {
		if w := lipgloss.Width(r.label); w > labelWidth {
			labelWidth = w
		}
	}
	labelWidth += 2

	sb.WriteString(fmt.Sprintf("%-*s%s\n", labelWidth, "Metric", "Count"))
	sb.WriteString(termMuted.Render(strings.Repeat("-", labelWidth+5)))
	sb.WriteString("\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%-*s", labelWidth, r.label))
		sb.WriteString(r.style.Render(fmt.Sprintf("%d", r.count)))
		sb.WriteString("\n")
	}

	if codes := severeCodes(rep); len(codes) > 0 {
		sb.WriteString("\n")
		sb.WriteString(termSevere.Render("Severe: "))
		sb.WriteString(strings.Join(codes, ", "))
		sb.WriteString("\n")
	}

	return sb.String()
}

// severeCodes lists the keys carrying a severe classification, in report
// order, removals included.
func severeCodes(rep *reconcile.Report) []string {
	var codes []string
	for _, rec := range rep.Records {
		if rec.Severity == reconcile.SeveritySevere {
			codes = append(codes, rec.Code)
		}
	}
	return codes
}
