package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/bootstrap"
)

type stepState int

const (
	stepPending stepState = iota
	stepRunning
	stepDone
	stepFailed
)

// stepEventMsg wraps an engine event for the tea loop.
type stepEventMsg bootstrap.Event

// finishedMsg reports that the whole sequence returned.
type finishedMsg struct{ err error }

// noticeMsg is a user-facing line printed above the checklist.
type noticeMsg string

// Progress renders the bootstrap checklist while the engine runs in the
// background. Events arrive over channels; the final error (or nil) on
// done.
type Progress struct {
	styles  Styles
	spinner spinner.Model

	steps   []string
	states  []stepState
	elapsed []time.Duration
	notices []string

	events <-chan bootstrap.Event
	done   <-chan error
	cancel func()

	err      error
	finished bool
}

// NewProgress builds the checklist model. cancel is invoked on ctrl+c; the
// model keeps running until the engine acknowledges by closing out.
func NewProgress(steps []string, events <-chan bootstrap.Event, done <-chan error, cancel func()) Progress {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	styles := DefaultStyles()
	sp.Style = styles.Running

	return Progress{
		styles:  styles,
		spinner: sp,
		steps:   steps,
		states:  make([]stepState, len(steps)),
		elapsed: make([]time.Duration, len(steps)),
		events:  events,
		done:    done,
		cancel:  cancel,
	}
}

// Notice queues a user-facing line; safe to call from the engine goroutine
// through tea.Program.Send.
func Notice(text string) tea.Msg {
	return noticeMsg(strings.TrimRight(text, "\n"))
}

func (m Progress) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitEvent(), m.waitDone())
}

func (m Progress) waitEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return nil
		}
		return stepEventMsg(ev)
	}
}

func (m Progress) waitDone() tea.Cmd {
	return func() tea.Msg {
		return finishedMsg{err: <-m.done}
	}
}

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			if m.cancel != nil {
				m.cancel()
			}
			// The engine unwinds and waitDone delivers the final error.
			return m, nil
		}
		return m, nil

	case stepEventMsg:
		if msg.Index >= 0 && msg.Index < len(m.states) {
			switch {
			case !msg.Done:
				m.states[msg.Index] = stepRunning
			case msg.Err != nil:
				m.states[msg.Index] = stepFailed
				m.elapsed[msg.Index] = msg.Elapsed
			default:
				m.states[msg.Index] = stepDone
				m.elapsed[msg.Index] = msg.Elapsed
			}
		}
		return m, m.waitEvent()

	case noticeMsg:
		m.notices = append(m.notices, string(msg))
		return m, nil

	case finishedMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Progress) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Bringing the local stack up"))
	b.WriteString("\n\n")

	for i, name := range m.steps {
		var marker, rendered string
		switch m.states[i] {
		case stepRunning:
			marker = m.spinner.View()
			rendered = m.styles.Running.Render(name)
		case stepDone:
			marker = m.styles.Done.Render("✓")
			rendered = name + m.styles.Muted.Render(fmt.Sprintf("  (%s)", m.elapsed[i].Round(time.Millisecond)))
		case stepFailed:
			marker = m.styles.Failed.Render("✗")
			rendered = m.styles.Failed.Render(name)
		default:
			marker = m.styles.Pending.Render("·")
			rendered = m.styles.Pending.Render(name)
		}
		fmt.Fprintf(&b, " %s %s\n", marker, rendered)
	}

	for _, n := range m.notices {
		if strings.HasPrefix(n, "Warning") {
			b.WriteString(m.styles.Warning.Render(n))
		} else {
			b.WriteString(m.styles.Muted.Render(n))
		}
		b.WriteString("\n")
	}

	if m.finished {
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(m.styles.Failed.Render("Bootstrap failed: " + m.err.Error()))
		} else {
			b.WriteString(m.styles.Done.Render("Local stack is up"))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Err returns the engine's final error once the program has quit.
func (m Progress) Err() error {
	return m.err
}
