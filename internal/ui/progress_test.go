package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/bootstrap"
)

func newTestProgress(steps []string, cancel func()) (Progress, chan bootstrap.Event, chan error) {
	events := make(chan bootstrap.Event, 16)
	done := make(chan error, 1)
	return NewProgress(steps, events, done, cancel), events, done
}

func update(t *testing.T, m Progress, msg tea.Msg) (Progress, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	p, ok := next.(Progress)
	require.True(t, ok, "model changed type")
	return p, cmd
}

func TestProgressStepTransitions(t *testing.T) {
	m, _, _ := newTestProgress([]string{"free port 8545", "start anvil"}, nil)

	view := m.View()
	assert.Contains(t, view, "free port 8545")
	assert.Contains(t, view, "start anvil")
	assert.NotContains(t, view, "✓")

	m, _ = update(t, m, stepEventMsg(bootstrap.Event{Step: "free port 8545", Index: 0, Total: 2}))
	assert.Equal(t, stepRunning, m.states[0])
	assert.Equal(t, stepPending, m.states[1])

	m, _ = update(t, m, stepEventMsg(bootstrap.Event{
		Step:    "free port 8545",
		Index:   0,
		Total:   2,
		Done:    true,
		Elapsed: 1500 * time.Millisecond,
	}))
	assert.Equal(t, stepDone, m.states[0])

	view = m.View()
	assert.Contains(t, view, "✓")
	assert.Contains(t, view, "1.5s")
}

func TestProgressFailedStep(t *testing.T) {
	m, _, _ := newTestProgress([]string{"build canister wasm"}, nil)

	m, _ = update(t, m, stepEventMsg(bootstrap.Event{
		Step:  "build canister wasm",
		Index: 0,
		Total: 1,
		Done:  true,
		Err:   errors.New("cargo build failed"),
	}))
	assert.Equal(t, stepFailed, m.states[0])
	assert.Contains(t, m.View(), "✗")
}

func TestProgressFinishedQuits(t *testing.T) {
	m, _, _ := newTestProgress([]string{"start anvil"}, nil)

	m, cmd := update(t, m, finishedMsg{})
	require.NotNil(t, cmd)
	_, quit := cmd().(tea.QuitMsg)
	assert.True(t, quit, "expected tea.Quit after the run finishes")

	assert.NoError(t, m.Err())
	assert.Contains(t, m.View(), "Local stack is up")
}

func TestProgressFinishedWithError(t *testing.T) {
	m, _, _ := newTestProgress([]string{"start anvil"}, nil)

	m, _ = update(t, m, finishedMsg{err: errors.New("start anvil: exit status 1")})
	require.Error(t, m.Err())
	assert.Contains(t, m.View(), "Bootstrap failed: start anvil: exit status 1")
}

func TestProgressNotices(t *testing.T) {
	m, _, _ := newTestProgress([]string{"free port 8545"}, nil)

	msg := Notice("Killed anvil (PID 70000) on port 8545\n")
	m, _ = update(t, m, msg)

	assert.Contains(t, m.View(), "Killed anvil (PID 70000) on port 8545")
}

func TestProgressCtrlCCancels(t *testing.T) {
	cancelled := false
	m, _, _ := newTestProgress([]string{"start anvil"}, func() { cancelled = true })

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, cancelled, "ctrl+c should cancel the engine context")
	assert.Nil(t, cmd, "the model waits for the engine to unwind")
	assert.False(t, m.finished)
}

func TestProgressWaitEventBridgesChannel(t *testing.T) {
	m, events, done := newTestProgress([]string{"start anvil"}, nil)

	events <- bootstrap.Event{Step: "start anvil", Index: 0, Total: 1}
	msg := m.waitEvent()()
	ev, ok := msg.(stepEventMsg)
	require.True(t, ok)
	assert.Equal(t, "start anvil", ev.Step)

	done <- nil
	fin := m.waitDone()()
	_, ok = fin.(finishedMsg)
	require.True(t, ok)
}

func TestProgressIgnoresOutOfRangeEvents(t *testing.T) {
	m, _, _ := newTestProgress([]string{"start anvil"}, nil)

	m, _ = update(t, m, stepEventMsg(bootstrap.Event{Step: "phantom", Index: 9, Total: 1}))
	assert.Equal(t, stepPending, m.states[0])
}

func TestProgressViewMarksPendingSteps(t *testing.T) {
	m, _, _ := newTestProgress([]string{"first", "second"}, nil)

	m, _ = update(t, m, stepEventMsg(bootstrap.Event{Step: "first", Index: 0, Total: 2}))

	lines := strings.Split(m.View(), "\n")
	var pending bool
	for _, line := range lines {
		if strings.Contains(line, "second") && strings.Contains(line, "·") {
			pending = true
		}
	}
	assert.True(t, pending, "unstarted steps render with the pending marker")
}
