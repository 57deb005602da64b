// Package cargo compiles the coprocessor canister to wasm.
package cargo

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/execx"
)

// Target is the canister compilation target.
const Target = "wasm32-unknown-unknown"

// Builder runs cargo.
type Builder struct {
	runner execx.Runner
	log    *zap.Logger
	quiet  bool
}

func New(runner execx.Runner, log *zap.Logger, quiet bool) *Builder {
	return &Builder{runner: runner, log: log, quiet: quiet}
}

// BuildWasm compiles pkg in release mode for the wasm target and verifies
// the artifact landed at artifactPath. Install must never see a stale or
// missing wasm.
func (b *Builder) BuildWasm(ctx context.Context, pkg, artifactPath string) (string, error) {
	err := b.runner.Run(ctx, execx.Command{
		Program: "cargo",
		Args:    []string{"build", "--release", "--target", Target, "-p", pkg},
		Quiet:   b.quiet,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build %s: %w", pkg, err)
	}

	info, err := os.Stat(artifactPath)
	if err != nil {
		return "", fmt.Errorf("wasm artifact missing after build at %s: %w", artifactPath, err)
	}

	b.log.Info("built canister wasm",
		zap.String("package", pkg),
		zap.String("artifact", artifactPath),
		zap.Int64("bytes", info.Size()))
	return artifactPath, nil
}
