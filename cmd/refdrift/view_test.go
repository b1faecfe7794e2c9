package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestPagerModelLifecycle(t *testing.T) {
	m := pagerModel{
		title: "report.md",
		raw:   "# Drift Report\n\nsome body text\n",
	}

	if m.View() != "loading..." {
		t.Fatalf("expected loading placeholder before first size message, got %q", m.View())
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(pagerModel)

	view := m.View()
	if !strings.Contains(view, "report.md") {
		t.Fatalf("expected title in view:\n%s", view)
	}
	if !strings.Contains(view, "Drift Report") {
		t.Fatalf("expected rendered markdown heading in view:\n%s", view)
	}
}

func TestPagerModelQuitKeys(t *testing.T) {
	m := pagerModel{title: "r.md", raw: "body"}
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	m = updated.(pagerModel)

	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("key %s should quit", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("key %s produced %T, want tea.QuitMsg", key, cmd())
		}
	}
}

func TestPagerRenderFallsBackToRaw(t *testing.T) {
	m := pagerModel{raw: "plain text, no markdown"}
	out := m.render(50)
	if out == "" {
		t.Fatal("render produced empty output")
	}
}
