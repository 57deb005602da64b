package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/cargo"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/dfx"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/execx"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/watch"
)

var debounceFlag time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild and reinstall the canister on source changes",
	Long: `Watches the canister source tree. Whenever a Rust source, manifest, or
candid file changes, the wasm is rebuilt and reinstalled into the running
canister. Reinstalling keeps the derived EVM address, so deployed contracts
stay valid across iterations.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&debounceFlag, "debounce", 500*time.Millisecond, "Quiet period before a rebuild fires")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := execx.New()
	builder := cargo.New(runner, logger, false)
	platform := dfx.New(runner, logger, false)

	rebuild := func(ctx context.Context) error {
		fmt.Printf("Change detected, rebuilding %s\n", cfg.Canister.CargoPackage)
		path, err := builder.BuildWasm(ctx, cfg.Canister.CargoPackage, cfg.Canister.WasmPath)
		if err != nil {
			fmt.Printf("Rebuild failed: %v\n", err)
			return err
		}
		if err := platform.InstallCanister(ctx, cfg.Canister.Name, path, dfx.ModeReinstall); err != nil {
			fmt.Printf("Reinstall failed: %v\n", err)
			return err
		}
		fmt.Printf("Reinstalled %s\n", cfg.Canister.Name)
		return nil
	}

	fmt.Printf("Watching %s (ctrl+c to stop)\n", cfg.Canister.SrcDir)
	err = watch.Run(ctx, logger, cfg.Canister.SrcDir, watch.Options{Debounce: debounceFlag}, rebuild)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
