// Package doctor verifies the host has everything the bootstrap needs.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/config"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/execx"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/scanner"
)

// Status grades a single check.
type Status int

const (
	StatusOK Status = iota
	StatusWarn
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Check is one verified aspect of the environment.
type Check struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail"`
}

// Report is the full checkup result.
type Report struct {
	Checks []Check `json:"checks"`
}

// Failed reports whether any check failed outright. Warnings do not fail
// a report.
func (r Report) Failed() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return true
		}
	}
	return false
}

// tools are the external binaries every bootstrap step shells out to.
var tools = []string{"anvil", "dfx", "cargo", "forge"}

// lookPath is swapped out in tests.
var lookPath = exec.LookPath

// Run performs every check and returns the report.
func Run(ctx context.Context, runner execx.Runner, s scanner.Scanner, cfg *config.Config) Report {
	var r Report
	r.Checks = append(r.Checks, toolChecks(ctx, runner)...)
	r.Checks = append(r.Checks, wasmTargetCheck(ctx, runner)...)
	r.Checks = append(r.Checks, portChecks(s, cfg)...)
	r.Checks = append(r.Checks, projectChecks(cfg)...)
	return r
}

func toolChecks(ctx context.Context, runner execx.Runner) []Check {
	checks := make([]Check, 0, len(tools))
	for _, tool := range tools {
		if _, err := lookPath(tool); err != nil {
			checks = append(checks, Check{Name: tool, Status: StatusFail, Detail: "not found on PATH"})
			continue
		}

		out, err := runner.Output(ctx, execx.Command{Program: tool, Args: []string{"--version"}})
		if err != nil {
			checks = append(checks, Check{Name: tool, Status: StatusWarn, Detail: "installed, but --version failed"})
			continue
		}
		checks = append(checks, Check{Name: tool, Status: StatusOK, Detail: firstLine(out)})
	}
	return checks
}

// wasmTargetCheck warns when the rust wasm target is missing. Without it
// the canister build fails with an opaque cargo error.
func wasmTargetCheck(ctx context.Context, runner execx.Runner) []Check {
	if _, err := lookPath("rustup"); err != nil {
		return nil
	}

	out, err := runner.Output(ctx, execx.Command{Program: "rustup", Args: []string{"target", "list", "--installed"}})
	if err != nil {
		return []Check{{Name: "wasm target", Status: StatusWarn, Detail: "could not list rustup targets"}}
	}
	if !strings.Contains(out, "wasm32-unknown-unknown") {
		return []Check{{
			Name:   "wasm target",
			Status: StatusWarn,
			Detail: "wasm32-unknown-unknown not installed (rustup target add wasm32-unknown-unknown)",
		}}
	}
	return []Check{{Name: "wasm target", Status: StatusOK, Detail: "wasm32-unknown-unknown installed"}}
}

func portChecks(s scanner.Scanner, cfg *config.Config) []Check {
	ports := []struct {
		name string
		port int
	}{
		{"EVM RPC port", cfg.EVM.RPCPort},
		{"replica port", cfg.Replica.Port},
	}

	var checks []Check
	for _, p := range ports {
		name := fmt.Sprintf("%s %d", p.name, p.port)

		listeners, err := scanner.ListenersOn(s, p.port)
		if err != nil {
			checks = append(checks, Check{Name: name, Status: StatusWarn, Detail: fmt.Sprintf("scan failed: %v", err)})
			continue
		}
		if len(listeners) == 0 {
			checks = append(checks, Check{Name: name, Status: StatusOK, Detail: "free"})
			continue
		}

		l := listeners[0]
		checks = append(checks, Check{
			Name:   name,
			Status: StatusWarn,
			Detail: fmt.Sprintf("held by %s (PID %d); fusion up will terminate it", l.Process, l.PID),
		})
	}
	return checks
}

func projectChecks(cfg *config.Config) []Check {
	var checks []Check

	if _, err := os.Stat("dfx.json"); err != nil {
		checks = append(checks, Check{Name: "dfx project", Status: StatusFail, Detail: "dfx.json not found; run from the project root"})
	} else {
		checks = append(checks, Check{Name: "dfx project", Status: StatusOK, Detail: "dfx.json present"})
	}

	if info, err := os.Stat(cfg.Contracts.Dir); err != nil || !info.IsDir() {
		checks = append(checks, Check{Name: "contracts dir", Status: StatusFail, Detail: cfg.Contracts.Dir + " not found"})
	} else {
		checks = append(checks, Check{Name: "contracts dir", Status: StatusOK, Detail: cfg.Contracts.Dir})
	}

	return checks
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
