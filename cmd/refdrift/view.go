package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// viewCmd pages a saved markdown report
var viewCmd = &cobra.Command{
	Use:   "view [report.md]",
	Short: "Page a saved markdown report in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runView,
}

func runView(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	m := pagerModel{
		title: filepath.Base(args[0]),
		raw:   string(data),
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("pager failed: %w", err)
	}
	return nil
}

var (
	pagerTitleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	pagerFooterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")).Padding(0, 1)
)

// pagerModel scrolls a glamour-rendered markdown document.
type pagerModel struct {
	title    string
	raw      string
	viewport viewport.Model
	ready    bool
}

func (m pagerModel) Init() tea.Cmd {
	return nil
}

func (m pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		headerHeight := 1
		footerHeight := 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.viewport.SetContent(m.render(msg.Width))
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// render re-renders the markdown for the current width. On renderer failure
// the raw markdown is shown instead of nothing.
func (m pagerModel) render(width int) string {
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return m.raw
	}
	out, err := renderer.Render(m.raw)
	if err != nil {
		return m.raw
	}
	return out
}

func (m pagerModel) View() string {
	if !m.ready {
		return "loading..."
	}
	header := pagerTitleStyle.Render(m.title)
	footer := pagerFooterStyle.Render("↑/↓ scroll · q quit")
	return fmt.Sprintf("%s\n%s\n%s", header, m.viewport.View(), footer)
}
