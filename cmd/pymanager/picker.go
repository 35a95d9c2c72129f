package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/pymanager/pymanager/internal/installmeta"
)

var (
	pickerCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	pickerDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// canPrompt reports whether stdout is an interactive terminal a picker can
// be drawn on; otherwise an ambiguous match resolves to the top-ranked
// candidate.
func canPrompt() bool {
	f, ok := interface{}(os.Stdout).(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

type pickerModel struct {
	candidates []*installmeta.Install
	cursor     int
	chosen     *installmeta.Install
	aborted    bool
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.candidates)-1 {
			m.cursor++
		}
	case "enter":
		m.chosen = m.candidates[m.cursor]
		return m, tea.Quit
	case "esc", "ctrl+c", "q":
		m.aborted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := "Multiple runtimes match; choose one:\n\n"
	for i, c := range m.candidates {
		line := fmt.Sprintf("%s  %s (%s)", c.Tag, c.DisplayName, c.ID)
		if i == m.cursor {
			s += pickerCursorStyle.Render("> "+line) + "\n"
		} else {
			s += pickerDimStyle.Render("  "+line) + "\n"
		}
	}
	s += "\n(enter to choose, esc to cancel)\n"
	return s
}

// pickOne runs an interactive picker over candidates, returning the user's
// choice, or an error if they cancel. Callers should only reach here when
// canPrompt() is true and candidates has more than one entry.
func pickOne(candidates []*installmeta.Install) (*installmeta.Install, error) {
	p := tea.NewProgram(pickerModel{candidates: candidates})
	result, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("pymanager: picker: %w", err)
	}
	m := result.(pickerModel)
	if m.aborted || m.chosen == nil {
		return nil, fmt.Errorf("pymanager: selection cancelled")
	}
	return m.chosen, nil
}
