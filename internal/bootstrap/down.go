package bootstrap

import (
	"context"

	"go.uber.org/zap"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/dfx"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/scanner"
)

// Down tears the local stack back down: whatever listens on the EVM port is
// terminated, the replica is stopped, and the run record is cleared. Only
// PIDs discovered listening on the configured port are signalled, so a
// stale or reused recorded PID can never be killed by mistake.
func Down(ctx context.Context, env *Env) error {
	cfg := env.Config

	run, err := env.Store.Load()
	if err != nil {
		env.Log.Warn("unreadable run state, falling back to a port scan", zap.Error(err))
	}

	victims, err := scanner.ReleasePort(ctx, env.Scanner, cfg.EVM.RPCPort, scanner.ReleaseOptions{
		Settle:   cfg.Waits.KillSettle.Std(),
		Interval: cfg.Waits.PollInterval.Std(),
		Timeout:  cfg.Waits.ReadyTimeout.Std(),
	})
	if err != nil {
		return err
	}
	if len(victims) == 0 {
		env.printf("No process found listening on port %d\n", cfg.EVM.RPCPort)
	}
	for _, v := range victims {
		if run != nil && v.PID == run.AnvilPID {
			env.printf("Stopped anvil (PID %d) from run %s\n", v.PID, run.ID)
			continue
		}
		env.printf("Killed %s (PID %d) on port %d\n", v.Process, v.PID, v.Port)
	}

	platform := dfx.New(env.Runner, env.Log, env.Quiet)
	if err := platform.Stop(ctx); err != nil {
		env.Log.Debug("dfx stop reported an error", zap.Error(err))
	}
	env.printf("Replica stopped\n")

	return env.Store.Clear()
}
