// Package forge deploys the starter's Solidity contracts against the local
// node.
package forge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/config"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/evmaddr"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/execx"
)

// Deployer runs the foundry deployment script.
type Deployer struct {
	runner execx.Runner
	log    *zap.Logger
	cfg    config.ContractsConfig
	quiet  bool
}

func New(runner execx.Runner, log *zap.Logger, cfg config.ContractsConfig, quiet bool) *Deployer {
	return &Deployer{runner: runner, log: log, cfg: cfg, quiet: quiet}
}

// RunScript broadcasts the deployment script, passing the canister's derived
// EVM address to its run function. The address is validated here again: the
// contract wires it in as the only principal allowed to submit results, so a
// bad value deploys an unusable stack.
func (d *Deployer) RunScript(ctx context.Context, forkURL, address string) error {
	if err := evmaddr.Validate(address); err != nil {
		return fmt.Errorf("refusing to deploy contracts: %w", err)
	}

	err := d.runner.Run(ctx, execx.Command{
		Program: "forge",
		Args: []string{
			"script", d.cfg.Script,
			"--fork-url", forkURL,
			"--broadcast",
			"--sig", d.cfg.RunSignature,
			address,
		},
		Dir:   d.cfg.Dir,
		Quiet: d.quiet,
	})
	if err != nil {
		return fmt.Errorf("failed to deploy contracts: %w", err)
	}

	d.log.Info("deployed contracts", zap.String("coprocessor", address))
	return nil
}
