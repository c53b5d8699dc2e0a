// Package prompt asks the user to pick among options in the terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manifest-network/upgrade-helper/internal/models"
)

// ErrAborted is returned when the user leaves the prompt without choosing.
var ErrAborted = errors.New("selection aborted")

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6BCB77")).MarginBottom(1)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCB77"))
	selectedStyle = lipgloss.NewStyle().Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
)

type selectModel struct {
	title   string
	options []string
	cursor  int
	chosen  int
}

func newSelectModel(title string, options []string) selectModel {
	return selectModel{title: title, options: options, chosen: -1}
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "enter":
		m.chosen = m.cursor
		return m, tea.Quit
	case "ctrl+c", "esc", "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m selectModel) View() string {
	if m.chosen >= 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	for i, opt := range m.options {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> ") + selectedStyle.Render(opt))
		} else {
			b.WriteString("  " + opt)
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ to move, enter to select, esc to abort"))
	return b.String()
}

// Selector runs selection prompts on the given terminal streams.
type Selector struct {
	In  io.Reader
	Out io.Writer
}

// Select shows options under title and returns the index picked.
func (s Selector) Select(ctx context.Context, title string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("nothing to select for %q", title)
	}
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if s.In != nil {
		opts = append(opts, tea.WithInput(s.In))
	}
	if s.Out != nil {
		opts = append(opts, tea.WithOutput(s.Out))
	}

	final, err := tea.NewProgram(newSelectModel(title, options), opts...).Run()
	if err != nil {
		return 0, fmt.Errorf("prompt failed: %w", err)
	}
	m, ok := final.(selectModel)
	if !ok || m.chosen < 0 {
		return 0, ErrAborted
	}
	return m.chosen, nil
}

// Choose lets the user pick one of the eligible signing keys.
func (s Selector) Choose(ctx context.Context, candidates []models.SigningKey) (models.SigningKey, error) {
	options := make([]string, len(candidates))
	for i, k := range candidates {
		options[i] = fmt.Sprintf("%s (%s) %s%s", k.Name, k.Address, k.Balance, k.Denom)
	}
	i, err := s.Select(ctx, "Select the key submitting the proposal", options)
	if err != nil {
		return models.SigningKey{}, err
	}
	return candidates[i], nil
}
