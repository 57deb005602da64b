// Package execx runs the external developer tools the bootstrap sequence is
// built on (anvil, dfx, cargo, forge). Everything goes through the Runner
// interface so the sequence can be exercised in tests without spawning
// processes.
package execx

import (
	"context"
	"strings"
)

// Command describes a single tool invocation.
type Command struct {
	// Program is the executable name, resolved via PATH.
	Program string

	// Args is the exact argument vector, excluding the program itself.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra KEY=value pairs appended to the inherited environment.
	Env []string

	// Quiet suppresses stdout/stderr passthrough for foreground runs.
	Quiet bool

	// LogPath redirects the output of a detached process to a file.
	// Only meaningful for Start.
	LogPath string
}

// Line renders the invocation as a single shell-style line for logs and
// test assertions.
func (c Command) Line() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Program)
	for _, a := range c.Args {
		if strings.ContainsAny(a, " \t\"'") {
			parts = append(parts, "'"+a+"'")
			continue
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Runner executes commands. The process-backed implementation is returned
// by New; tests substitute a Recorder.
type Runner interface {
	// Run executes the command to completion, streaming output unless the
	// command is marked Quiet. The returned error carries the stderr tail
	// on failure.
	Run(ctx context.Context, cmd Command) error

	// Output executes the command to completion and returns its captured
	// stdout. Stderr is folded into the error on failure.
	Output(ctx context.Context, cmd Command) (string, error)

	// Start launches the command detached from this process and returns
	// its PID. The child keeps running after the tool exits.
	Start(ctx context.Context, cmd Command) (int, error)
}

// New returns the process-backed Runner.
func New() Runner {
	return &osRunner{}
}
