package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/bootstrap"
)

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Tear the local stack down",
	Long: `Terminates whatever listens on the EVM RPC port, stops the dfx replica,
and clears the recorded run state.`,
	Args: cobra.NoArgs,
	RunE: runDown,
}

func runDown(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return bootstrap.Down(ctx, newEnv(cfg))
}
