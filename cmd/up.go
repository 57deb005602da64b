package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/bootstrap"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/ui"
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Bring the full local stack up",
	Long: `Runs the whole bootstrap sequence in order: free the EVM RPC port, launch
anvil, restart the dfx replica, fund the cycles wallet, deploy the EVM RPC
bridge, build and install the coprocessor canister, fetch its derived EVM
address, and deploy the contracts against the local chain.

Any step failure aborts the remaining steps.`,
	Args: cobra.NoArgs,
	RunE: runUp,
}

func runUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	env := newEnv(cfg)
	env.AnvilLogPath = filepath.Join(".fusion", "anvil.log")

	if interactive() {
		return runUpTUI(cmd.Context(), env)
	}
	return runUpPlain(cmd.Context(), env)
}

func runUpPlain(parent context.Context, env *bootstrap.Env) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	env.Observer = func(ev bootstrap.Event) {
		if !ev.Done {
			fmt.Printf("[%d/%d] %s\n", ev.Index+1, ev.Total, ev.Step)
		}
	}

	result, err := bootstrap.Up(ctx, env)
	if err != nil {
		return err
	}
	return printUpSummary(env, result)
}

func runUpTUI(parent context.Context, env *bootstrap.Env) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	events := make(chan bootstrap.Event, 32)
	done := make(chan error, 1)

	model := ui.NewProgress(bootstrap.StepNames(), events, done, cancel)
	prog := tea.NewProgram(model)

	env.Quiet = true
	env.Observer = func(ev bootstrap.Event) {
		events <- ev
	}
	env.Printf = func(format string, args ...any) {
		prog.Send(ui.Notice(fmt.Sprintf(format, args...)))
	}

	var result *bootstrap.Result
	go func() {
		var err error
		result, err = bootstrap.Up(ctx, env)
		done <- err
	}()

	final, err := prog.Run()
	if err != nil {
		return fmt.Errorf("progress ui failed: %w", err)
	}
	if m, ok := final.(ui.Progress); ok && m.Err() != nil {
		return m.Err()
	}
	return printUpSummary(env, result)
}

func printUpSummary(env *bootstrap.Env, result *bootstrap.Result) error {
	if result == nil || result.Run == nil {
		return nil
	}
	if jsonOutput {
		return printJSON(result.Run)
	}

	addr := result.Run.EVMAddress
	if interactive() {
		addr = ui.DefaultStyles().Address.Render(addr)
	}
	fmt.Printf("\nEVM address: %s\n", addr)
	fmt.Printf("Run %s recorded in %s\n", result.Run.ID, env.Store.Path())
	fmt.Printf("Export it with: eval \"$(fusion address --export)\"\n")
	return nil
}
