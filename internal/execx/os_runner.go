package execx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// stderrTailLimit bounds how much captured stderr is folded into an error.
const stderrTailLimit = 4096

type osRunner struct{}

func (r *osRunner) Run(ctx context.Context, cmd Command) error {
	ec := r.build(ctx, cmd)

	var stderr bytes.Buffer
	if cmd.Quiet {
		ec.Stdout = io.Discard
		ec.Stderr = &stderr
	} else {
		ec.Stdout = os.Stdout
		ec.Stderr = io.MultiWriter(os.Stderr, &stderr)
	}

	if err := ec.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s interrupted: %w", cmd.Program, ctx.Err())
		}
		return fmt.Errorf("%s failed: %w%s", cmd.Line(), err, tail(stderr.String()))
	}
	return nil
}

func (r *osRunner) Output(ctx context.Context, cmd Command) (string, error) {
	ec := r.build(ctx, cmd)

	var stdout, stderr bytes.Buffer
	ec.Stdout = &stdout
	ec.Stderr = &stderr

	if err := ec.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s interrupted: %w", cmd.Program, ctx.Err())
		}
		return "", fmt.Errorf("%s failed: %w%s", cmd.Line(), err, tail(stderr.String()))
	}
	return stdout.String(), nil
}

func (r *osRunner) Start(ctx context.Context, cmd Command) (int, error) {
	ec := exec.Command(cmd.Program, cmd.Args...)
	ec.Dir = cmd.Dir
	ec.Env = environ(cmd.Env)
	detach(ec)

	if cmd.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cmd.LogPath), 0755); err != nil {
			return 0, fmt.Errorf("failed to create log dir for %s: %w", cmd.LogPath, err)
		}
		f, err := os.OpenFile(cmd.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return 0, fmt.Errorf("failed to open log file %s: %w", cmd.LogPath, err)
		}
		defer f.Close()
		ec.Stdout = f
		ec.Stderr = f
	} else {
		ec.Stdout = io.Discard
		ec.Stderr = io.Discard
	}

	if err := ec.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", cmd.Line(), err)
	}

	pid := ec.Process.Pid

	// Reap the child if it does exit while we are still around; a detached
	// process must not turn into a zombie under us.
	go ec.Wait()

	return pid, nil
}

func (r *osRunner) build(ctx context.Context, cmd Command) *exec.Cmd {
	ec := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	ec.Dir = cmd.Dir
	ec.Env = environ(cmd.Env)
	return ec
}

func environ(extra []string) []string {
	if len(extra) == 0 {
		return nil
	}
	return append(os.Environ(), extra...)
}

func tail(stderr string) string {
	s := strings.TrimSpace(stderr)
	if s == "" {
		return ""
	}
	if len(s) > stderrTailLimit {
		s = s[len(s)-stderrTailLimit:]
	}
	return "\n--- stderr ---\n" + s
}
