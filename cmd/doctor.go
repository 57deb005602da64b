package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/doctor"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/execx"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/scanner"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the host can run the bootstrap",
	Long: `Verifies the external tools (anvil, dfx, cargo, forge) are installed,
the rust wasm target is available, the dev ports are free, and the working
directory looks like a coprocessor project.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	report := doctor.Run(cmd.Context(), execx.New(), scanner.New(), cfg)

	if jsonOutput {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		for _, c := range report.Checks {
			fmt.Printf("%s %s: %s\n", marker(c.Status), c.Name, c.Detail)
		}
	}

	if report.Failed() {
		return errors.New("environment is not ready")
	}
	return nil
}

func marker(s doctor.Status) string {
	switch s {
	case doctor.StatusOK:
		return "✓"
	case doctor.StatusWarn:
		return "!"
	default:
		return "✗"
	}
}
