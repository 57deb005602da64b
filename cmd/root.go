package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/bootstrap"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/config"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/execx"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/scanner"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/state"
)

var (
	version = "0.1.0"

	jsonOutput  bool
	plainOutput bool
	verbose     bool
	configPath  string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fusion",
	Short: "Bootstrap the local ICP EVM coprocessor stack",
	Long: `fusion brings a full local coprocessor development stack up in one shot:
it frees the EVM RPC port, launches anvil, restarts the dfx replica, funds
the cycles wallet, builds and installs the coprocessor canister, fetches its
derived EVM address, and deploys the contracts against it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&plainOutput, "plain", false, "Disable interactive output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default fusion.yaml)")

	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(downCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.Version = version
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// interactive reports whether fancy terminal output is wanted and possible.
func interactive() bool {
	if plainOutput || jsonOutput {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func newEnv(cfg *config.Config) *bootstrap.Env {
	return &bootstrap.Env{
		Config:  cfg,
		Runner:  execx.New(),
		Scanner: scanner.New(),
		Store:   state.NewStore("."),
		Log:     logger,
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printListenerTable(listeners []scanner.Listener) error {
	sort.Slice(listeners, func(i, j int) bool {
		return listeners[i].Port < listeners[j].Port
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PORT\tPID\tPROCESS\tUSER\tADDRESS")
	fmt.Fprintln(w, "----\t---\t-------\t----\t-------")

	for _, l := range listeners {
		user := l.User
		if user == "" {
			user = "-"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", l.Port, l.PID, l.Process, user, l.Address)
	}

	return w.Flush()
}
