package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/anvil"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/dfx"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/execx"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the health of the local stack",
	Long:  `Probes the anvil node, the dfx replica, and the recorded run state concurrently.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

type componentStatus struct {
	Component string `json:"component"`
	Healthy   bool   `json:"healthy"`
	Detail    string `json:"detail"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := execx.New()
	node := anvil.New(runner, logger, cfg.EVM, "")
	platform := dfx.New(runner, logger, true)
	store := state.NewStore(".")

	results := make([]componentStatus, 3)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		results[0] = probeAnvil(ctx, node, cfg.EVM.ChainID)
		return nil
	})
	g.Go(func() error {
		results[1] = probeReplica(ctx, platform)
		return nil
	})
	g.Go(func() error {
		results[2] = probeState(store)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(results)
	}
	return printStatusTable(results)
}

func probeAnvil(ctx context.Context, node *anvil.Node, wantChain uint64) componentStatus {
	st := componentStatus{Component: "anvil"}

	version, err := node.ClientVersion(ctx)
	if err != nil {
		st.Detail = "not responding"
		return st
	}
	chain, err := node.ChainID(ctx)
	if err != nil {
		st.Detail = fmt.Sprintf("%s, chain id unavailable", version)
		return st
	}
	if chain != wantChain {
		st.Detail = fmt.Sprintf("%s, unexpected chain id %d", version, chain)
		return st
	}

	st.Healthy = true
	st.Detail = fmt.Sprintf("%s (chain %d)", version, chain)
	return st
}

func probeReplica(ctx context.Context, platform *dfx.Client) componentStatus {
	st := componentStatus{Component: "replica"}

	if err := platform.Ping(ctx); err != nil {
		st.Detail = "not responding"
		return st
	}
	st.Healthy = true
	st.Detail = "healthy"
	return st
}

func probeState(store *state.Store) componentStatus {
	st := componentStatus{Component: "state"}

	run, err := store.Load()
	if err != nil {
		st.Detail = err.Error()
		return st
	}
	if run == nil {
		st.Healthy = true
		st.Detail = "no recorded run"
		return st
	}

	st.Healthy = true
	st.Detail = fmt.Sprintf("run %s started %s", run.ID, run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.EVMAddress != "" {
		st.Detail += ", address " + run.EVMAddress
	}
	return st
}

func printStatusTable(results []componentStatus) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMPONENT\tSTATUS\tDETAIL")
	fmt.Fprintln(w, "---------\t------\t------")

	for _, r := range results {
		status := "down"
		if r.Healthy {
			status = "ok"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Component, status, r.Detail)
	}

	return w.Flush()
}
