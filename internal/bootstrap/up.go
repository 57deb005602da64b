package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/anvil"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/cargo"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/config"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/dfx"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/evmaddr"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/execx"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/forge"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/scanner"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/state"
)

// Env carries the collaborators shared by every step.
type Env struct {
	Config  *config.Config
	Runner  execx.Runner
	Scanner scanner.Scanner
	Store   *state.Store
	Log     *zap.Logger

	// Quiet suppresses tool output (a progress UI owns the terminal).
	Quiet bool

	// Printf receives user-facing notices. Defaults to fmt.Printf.
	Printf func(format string, args ...any)

	// Observer receives step events, if set.
	Observer Observer

	// AnvilLogPath receives the node's output when set.
	AnvilLogPath string
}

func (e *Env) printf(format string, args ...any) {
	if e.Printf != nil {
		e.Printf(format, args...)
		return
	}
	fmt.Printf(format, args...)
}

// Result is what a completed bootstrap produced.
type Result struct {
	Run    *state.Run
	Killed []scanner.Listener
}

// StepNames lists the up sequence in execution order, for progress
// rendering.
func StepNames() []string {
	return []string{
		"clear EVM port",
		"launch anvil",
		"restart replica",
		"fund wallet",
		"deploy EVM RPC bridge",
		"build canister wasm",
		"create and install canister",
		"fetch EVM address",
		"deploy contracts",
	}
}

// Up runs the full bootstrap sequence and persists the run record on
// success.
func Up(ctx context.Context, env *Env) (*Result, error) {
	cfg := env.Config
	waits := cfg.Waits

	node := anvil.New(env.Runner, env.Log, cfg.EVM, env.AnvilLogPath)
	platform := dfx.New(env.Runner, env.Log, env.Quiet)
	builder := cargo.New(env.Runner, env.Log, env.Quiet)
	deployer := forge.New(env.Runner, env.Log, cfg.Contracts, env.Quiet)

	run := state.NewRun()
	result := &Result{Run: run}
	var wasmPath string

	steps := []Step{
		{
			Name: "clear EVM port",
			Run: func(ctx context.Context) error {
				victims, err := scanner.ReleasePort(ctx, env.Scanner, cfg.EVM.RPCPort, scanner.ReleaseOptions{
					Settle:   waits.KillSettle.Std(),
					Interval: waits.PollInterval.Std(),
					Timeout:  waits.ReadyTimeout.Std(),
				})
				if err != nil {
					return err
				}
				if len(victims) == 0 {
					env.printf("No process found listening on port %d\n", cfg.EVM.RPCPort)
					return nil
				}
				for _, v := range victims {
					env.printf("Killed %s (PID %d) on port %d\n", v.Process, v.PID, v.Port)
					if label, risky := scanner.RespawnRisk(v.Process); risky {
						env.printf("Warning: %s is managed by launchd job %s and may restart\n", v.Process, label)
					}
				}
				result.Killed = victims
				return nil
			},
		},
		{
			Name: "launch anvil",
			Run: func(ctx context.Context) error {
				pid, err := node.Start(ctx)
				if err != nil {
					return err
				}
				run.AnvilPID = pid
				return node.WaitReady(ctx, waits.PollInterval.Std(), waits.ReadyTimeout.Std())
			},
		},
		{
			Name: "restart replica",
			Run: func(ctx context.Context) error {
				if err := platform.Stop(ctx); err != nil {
					// Nothing was running; the clean start below is what matters.
					env.Log.Debug("dfx stop reported an error", zap.Error(err))
				}
				if err := sleep(ctx, waits.ReplicaSettle.Std()); err != nil {
					return err
				}
				if err := platform.StartClean(ctx); err != nil {
					return err
				}
				return platform.WaitReady(ctx, waits.PollInterval.Std(), waits.ReadyTimeout.Std())
			},
		},
		{
			Name: "fund wallet",
			Run: func(ctx context.Context) error {
				wallet, err := platform.WalletPrincipal(ctx)
				if err != nil {
					return err
				}
				return platform.FabricateCycles(ctx, cfg.Canister.FabricateICP, wallet)
			},
		},
		{
			Name: "deploy EVM RPC bridge",
			Run: func(ctx context.Context) error {
				return platform.Deploy(ctx, cfg.Canister.RPCBridge)
			},
		},
		{
			Name: "build canister wasm",
			Run: func(ctx context.Context) error {
				path, err := builder.BuildWasm(ctx, cfg.Canister.CargoPackage, cfg.Canister.WasmPath)
				if err != nil {
					return err
				}
				wasmPath = path
				return nil
			},
		},
		{
			Name: "create and install canister",
			Run: func(ctx context.Context) error {
				if err := platform.CreateCanister(ctx, cfg.Canister.Name, cfg.Canister.CreateCycles); err != nil {
					return err
				}
				return platform.InstallCanister(ctx, cfg.Canister.Name, wasmPath, dfx.ModeInstall)
			},
		},
		{
			Name: "fetch EVM address",
			Run: func(ctx context.Context) error {
				addr, err := evmaddr.Await(ctx, platform, cfg.Canister.Name,
					waits.AddressDelay.Std(), waits.PollInterval.Std(), waits.ReadyTimeout.Std())
				if err != nil {
					return err
				}
				run.EVMAddress = addr
				env.printf("Canister EVM address: %s\n", addr)
				return nil
			},
		},
		{
			Name: "deploy contracts",
			Run: func(ctx context.Context) error {
				return deployer.RunScript(ctx, cfg.EVM.RPCURL, run.EVMAddress)
			},
		},
	}

	engine := NewEngine(env.Log, env.Observer)
	if err := engine.Execute(ctx, steps); err != nil {
		return result, err
	}

	if err := env.Store.Save(run); err != nil {
		return result, fmt.Errorf("failed to save run state: %w", err)
	}

	return result, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
