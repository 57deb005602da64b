package execx

import (
	"context"
	"fmt"
	"sync"
)

// Recorder is a Runner for tests. It records every invocation and replays
// canned results keyed by the rendered command line. Unstubbed commands
// succeed with empty output, so tests only declare the interactions they
// care about.
type Recorder struct {
	mu      sync.Mutex
	calls   []Command
	stubs   map[string]stub
	nextPID int
}

type stub struct {
	output string
	err    error
}

// NewRecorder returns an empty Recorder. Fake PIDs start at 70000 to stay
// clear of anything that could be mistaken for a real process in asserts.
func NewRecorder() *Recorder {
	return &Recorder{
		stubs:   make(map[string]stub),
		nextPID: 70000,
	}
}

// Stub sets the result for an exact command line, as rendered by
// Command.Line.
func (r *Recorder) Stub(line, output string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stubs[line] = stub{output: output, err: err}
}

// Calls returns a copy of every recorded invocation in order.
func (r *Recorder) Calls() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.calls))
	copy(out, r.calls)
	return out
}

// Lines returns the rendered command line of every recorded invocation.
func (r *Recorder) Lines() []string {
	calls := r.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.Line()
	}
	return lines
}

// Ran reports whether an invocation with the given rendered line was made.
func (r *Recorder) Ran(line string) bool {
	for _, l := range r.Lines() {
		if l == line {
			return true
		}
	}
	return false
}

func (r *Recorder) Run(ctx context.Context, cmd Command) error {
	_, err := r.record(ctx, cmd)
	return err
}

func (r *Recorder) Output(ctx context.Context, cmd Command) (string, error) {
	return r.record(ctx, cmd)
}

func (r *Recorder) Start(ctx context.Context, cmd Command) (int, error) {
	if _, err := r.record(ctx, cmd); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextPID++
	return r.nextPID, nil
}

func (r *Recorder) record(ctx context.Context, cmd Command) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s interrupted: %w", cmd.Program, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, cmd)
	if s, ok := r.stubs[cmd.Line()]; ok {
		return s.output, s.err
	}
	return "", nil
}
