package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/dfx"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/evmaddr"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/execx"
)

var exportAddress bool

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Fetch the canister's derived EVM address",
	Long: `Queries the running coprocessor canister for its derived EVM address.
With --export the address is printed as a POSIX export line, suitable for
eval "$(fusion address --export)".`,
	Args: cobra.NoArgs,
	RunE: runAddress,
}

func init() {
	addressCmd.Flags().BoolVar(&exportAddress, "export", false, "Print as an export EVM_ADDRESS=... line")
}

func runAddress(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	platform := dfx.New(execx.New(), logger, true)
	// The canister is already installed, so no generation delay applies.
	addr, err := evmaddr.Await(ctx, platform, cfg.Canister.Name,
		0, cfg.Waits.PollInterval.Std(), cfg.Waits.ReadyTimeout.Std())
	if err != nil {
		return err
	}

	switch {
	case exportAddress:
		fmt.Printf("export EVM_ADDRESS=%s\n", addr)
	case jsonOutput:
		return printJSON(map[string]string{"evm_address": addr})
	default:
		fmt.Println(addr)
	}
	return nil
}
