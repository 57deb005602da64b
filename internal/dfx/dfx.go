// Package dfx drives the local ICP platform through the dfx CLI: replica
// lifecycle, cycle funding, canister create/install/deploy, and queries.
// Each method issues exactly one documented invocation.
package dfx

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/execx"
)

// Client wraps the dfx binary.
type Client struct {
	runner execx.Runner
	log    *zap.Logger
	quiet  bool
}

// New returns a Client. With quiet set, dfx output is suppressed (used while
// a progress UI owns the terminal).
func New(runner execx.Runner, log *zap.Logger, quiet bool) *Client {
	return &Client{runner: runner, log: log, quiet: quiet}
}

// Stop shuts the replica down. Callers treat failure as "nothing was
// running" and continue.
func (c *Client) Stop(ctx context.Context) error {
	return c.runner.Run(ctx, execx.Command{
		Program: "dfx",
		Args:    []string{"stop"},
		Quiet:   true,
	})
}

// StartClean starts a fresh replica in the background, discarding all
// previous canister state.
func (c *Client) StartClean(ctx context.Context) error {
	err := c.runner.Run(ctx, execx.Command{
		Program: "dfx",
		Args:    []string{"start", "--clean", "--background"},
		Quiet:   c.quiet,
	})
	if err != nil {
		return fmt.Errorf("failed to start replica: %w", err)
	}
	return nil
}

type pingReply struct {
	ReplicaHealthStatus string `json:"replica_health_status"`
}

// Ping probes the replica once.
func (c *Client) Ping(ctx context.Context) error {
	out, err := c.runner.Output(ctx, execx.Command{
		Program: "dfx",
		Args:    []string{"ping"},
	})
	if err != nil {
		return err
	}

	// Older dfx releases print a bare status blob; only reject an explicit
	// non-healthy report.
	var reply pingReply
	if err := json.Unmarshal([]byte(out), &reply); err == nil &&
		reply.ReplicaHealthStatus != "" && reply.ReplicaHealthStatus != "healthy" {
		return fmt.Errorf("replica health is %q", reply.ReplicaHealthStatus)
	}
	return nil
}

// WaitReady polls Ping until the replica answers healthy or timeout lapses.
func (c *Client) WaitReady(ctx context.Context, interval, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b := backoff.WithContext(backoff.NewConstantBackOff(interval), waitCtx)
	if err := backoff.Retry(func() error { return c.Ping(waitCtx) }, b); err != nil {
		return fmt.Errorf("replica not ready after %s: %w", timeout, err)
	}

	c.log.Debug("replica ready")
	return nil
}

// WalletPrincipal resolves the current identity's cycles wallet.
func (c *Client) WalletPrincipal(ctx context.Context) (string, error) {
	out, err := c.runner.Output(ctx, execx.Command{
		Program: "dfx",
		Args:    []string{"identity", "get-wallet"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve wallet principal: %w", err)
	}

	principal := strings.TrimSpace(out)
	if principal == "" {
		return "", fmt.Errorf("dfx identity get-wallet returned nothing")
	}
	return principal, nil
}

// FabricateCycles mints cycles to the wallet from a fixed ICP amount. Local
// replicas accept fabricated funds; this is what lets deploys run without a
// faucet.
func (c *Client) FabricateCycles(ctx context.Context, icp uint64, wallet string) error {
	err := c.runner.Run(ctx, execx.Command{
		Program: "dfx",
		Args: []string{
			"ledger", "fabricate-cycles",
			"--icp", strconv.FormatUint(icp, 10),
			"--canister", wallet,
		},
		Quiet: c.quiet,
	})
	if err != nil {
		return fmt.Errorf("failed to fabricate cycles: %w", err)
	}
	return nil
}

// Deploy builds and installs a canister in one shot. Used for the pre-built
// EVM RPC bridge, whose wasm ships with the project.
func (c *Client) Deploy(ctx context.Context, canister string) error {
	err := c.runner.Run(ctx, execx.Command{
		Program: "dfx",
		Args:    []string{"deploy", canister},
		Quiet:   c.quiet,
	})
	if err != nil {
		return fmt.Errorf("failed to deploy %s: %w", canister, err)
	}
	return nil
}

// CreateCanister registers the canister id with the given cycle budget.
func (c *Client) CreateCanister(ctx context.Context, name, cycles string) error {
	err := c.runner.Run(ctx, execx.Command{
		Program: "dfx",
		Args:    []string{"canister", "create", name, "--with-cycles", cycles},
		Quiet:   c.quiet,
	})
	if err != nil {
		return fmt.Errorf("failed to create canister %s: %w", name, err)
	}
	return nil
}

// InstallMode selects how InstallCanister treats existing code.
type InstallMode string

const (
	// ModeInstall is the first-time install on a fresh canister id.
	ModeInstall InstallMode = "install"

	// ModeReinstall wipes and replaces the module, keeping the canister id
	// and therefore the derived EVM address.
	ModeReinstall InstallMode = "reinstall"
)

// InstallCanister installs the wasm artifact into the canister.
func (c *Client) InstallCanister(ctx context.Context, name, wasmPath string, mode InstallMode) error {
	args := []string{"canister", "install", name, "--wasm", wasmPath}
	if mode != ModeInstall {
		args = append(args, "--mode", string(mode), "--yes")
	}

	err := c.runner.Run(ctx, execx.Command{
		Program: "dfx",
		Args:    args,
		Quiet:   c.quiet,
	})
	if err != nil {
		return fmt.Errorf("failed to install canister %s: %w", name, err)
	}
	return nil
}

// CallQuery performs a query call with no arguments and returns the raw
// candid reply.
func (c *Client) CallQuery(ctx context.Context, canister, method string) (string, error) {
	out, err := c.runner.Output(ctx, execx.Command{
		Program: "dfx",
		Args:    []string{"canister", "call", canister, method, "--query"},
	})
	if err != nil {
		return "", fmt.Errorf("query %s.%s failed: %w", canister, method, err)
	}
	return out, nil
}
