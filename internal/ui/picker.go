package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/scanner"
)

// Picker is the interactive listener chooser: type to filter, enter kills.
type Picker struct {
	styles    Styles
	input     textinput.Model
	listeners []scanner.Listener
	filtered  []int // indexes into listeners
	cursor    int

	choice  *scanner.Listener
	aborted bool
}

// NewPicker builds a picker over the given listeners.
func NewPicker(listeners []scanner.Listener) Picker {
	input := textinput.New()
	input.Placeholder = "filter by port or process"
	input.Prompt = "> "
	input.Focus()

	p := Picker{
		styles:    DefaultStyles(),
		input:     input,
		listeners: listeners,
	}
	p.refilter()
	return p
}

func (p *Picker) refilter() {
	query := strings.TrimSpace(p.input.Value())
	if query == "" {
		p.filtered = make([]int, len(p.listeners))
		for i := range p.listeners {
			p.filtered[i] = i
		}
	} else {
		rows := make([]string, len(p.listeners))
		for i, l := range p.listeners {
			rows[i] = fmt.Sprintf("%d %s %s", l.Port, l.Process, l.User)
		}
		matches := fuzzy.Find(query, rows)
		p.filtered = make([]int, len(matches))
		for i, m := range matches {
			p.filtered[i] = m.Index
		}
	}

	if p.cursor >= len(p.filtered) {
		p.cursor = len(p.filtered) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func (p Picker) Init() tea.Cmd {
	return textinput.Blink
}

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			p.aborted = true
			return p, tea.Quit

		case tea.KeyEnter:
			if len(p.filtered) > 0 {
				chosen := p.listeners[p.filtered[p.cursor]]
				p.choice = &chosen
			}
			return p, tea.Quit

		case tea.KeyUp:
			if p.cursor > 0 {
				p.cursor--
			}
			return p, nil

		case tea.KeyDown:
			if p.cursor < len(p.filtered)-1 {
				p.cursor++
			}
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.refilter()
	return p, cmd
}

func (p Picker) View() string {
	var b strings.Builder

	b.WriteString(p.styles.Title.Render("Listening ports"))
	b.WriteString("\n")
	b.WriteString(p.input.View())
	b.WriteString("\n\n")

	if len(p.filtered) == 0 {
		b.WriteString(p.styles.Muted.Render("  no matches"))
		b.WriteString("\n")
	}

	for i, idx := range p.filtered {
		l := p.listeners[idx]
		row := fmt.Sprintf("%-6d %-20s %-10s %s", l.Port, l.Process, l.User, l.Address)
		if i == p.cursor {
			b.WriteString(p.styles.Selected.Render("▸ " + row))
		} else {
			b.WriteString("  " + row)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(p.styles.Muted.Render("enter: kill  esc: quit"))
	b.WriteString("\n")

	return b.String()
}

// Choice returns the selected listener, if one was chosen.
func (p Picker) Choice() (scanner.Listener, bool) {
	if p.aborted || p.choice == nil {
		return scanner.Listener{}, false
	}
	return *p.choice, true
}
