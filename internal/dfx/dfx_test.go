package dfx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/execx"
)

func newClient(rec *execx.Recorder) *Client {
	return New(rec, zap.NewNop(), false)
}

func TestInvocations(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		call func(c *Client) error
		want string
	}{
		{
			name: "stop",
			call: func(c *Client) error { return c.Stop(ctx) },
			want: "dfx stop",
		},
		{
			name: "start clean background",
			call: func(c *Client) error { return c.StartClean(ctx) },
			want: "dfx start --clean --background",
		},
		{
			name: "fabricate cycles",
			call: func(c *Client) error {
				return c.FabricateCycles(ctx, 10000, "rwlgt-iiaaa-aaaaa-aaaaa-cai")
			},
			want: "dfx ledger fabricate-cycles --icp 10000 --canister rwlgt-iiaaa-aaaaa-aaaaa-cai",
		},
		{
			name: "deploy bridge",
			call: func(c *Client) error { return c.Deploy(ctx, "evm_rpc") },
			want: "dfx deploy evm_rpc",
		},
		{
			name: "create with cycles",
			call: func(c *Client) error {
				return c.CreateCanister(ctx, "chain_fusion", "10_000_000_000_000")
			},
			want: "dfx canister create chain_fusion --with-cycles 10_000_000_000_000",
		},
		{
			name: "first install",
			call: func(c *Client) error {
				return c.InstallCanister(ctx, "chain_fusion",
					"target/wasm32-unknown-unknown/release/chain_fusion.wasm", ModeInstall)
			},
			want: "dfx canister install chain_fusion --wasm target/wasm32-unknown-unknown/release/chain_fusion.wasm",
		},
		{
			name: "reinstall keeps canister id",
			call: func(c *Client) error {
				return c.InstallCanister(ctx, "chain_fusion",
					"target/wasm32-unknown-unknown/release/chain_fusion.wasm", ModeReinstall)
			},
			want: "dfx canister install chain_fusion --wasm target/wasm32-unknown-unknown/release/chain_fusion.wasm --mode reinstall --yes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := execx.NewRecorder()
			require.NoError(t, tt.call(newClient(rec)))
			require.Equal(t, []string{tt.want}, rec.Lines())
		})
	}
}

func TestWalletPrincipal(t *testing.T) {
	rec := execx.NewRecorder()
	rec.Stub("dfx identity get-wallet", "rwlgt-iiaaa-aaaaa-aaaaa-cai\n", nil)

	principal, err := newClient(rec).WalletPrincipal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rwlgt-iiaaa-aaaaa-aaaaa-cai", principal)
}

func TestWalletPrincipalEmpty(t *testing.T) {
	rec := execx.NewRecorder()
	rec.Stub("dfx identity get-wallet", "\n", nil)

	_, err := newClient(rec).WalletPrincipal(context.Background())
	require.Error(t, err)
}

func TestPing(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		rec := execx.NewRecorder()
		rec.Stub("dfx ping", `{"ic_api_version": "0.18.0", "replica_health_status": "healthy"}`, nil)
		require.NoError(t, newClient(rec).Ping(context.Background()))
	})

	t.Run("explicitly unhealthy", func(t *testing.T) {
		rec := execx.NewRecorder()
		rec.Stub("dfx ping", `{"replica_health_status": "waiting_for_certified_state"}`, nil)
		err := newClient(rec).Ping(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "waiting_for_certified_state")
	})

	t.Run("non-JSON output from old releases passes", func(t *testing.T) {
		rec := execx.NewRecorder()
		rec.Stub("dfx ping", "ic-ref replica alive", nil)
		require.NoError(t, newClient(rec).Ping(context.Background()))
	})

	t.Run("command failure", func(t *testing.T) {
		rec := execx.NewRecorder()
		rec.Stub("dfx ping", "", errors.New("connection refused"))
		require.Error(t, newClient(rec).Ping(context.Background()))
	})
}

func TestWaitReady(t *testing.T) {
	t.Run("ready immediately", func(t *testing.T) {
		rec := execx.NewRecorder()
		rec.Stub("dfx ping", `{"replica_health_status": "healthy"}`, nil)
		err := newClient(rec).WaitReady(context.Background(), time.Millisecond, time.Second)
		require.NoError(t, err)
	})

	t.Run("never ready", func(t *testing.T) {
		rec := execx.NewRecorder()
		rec.Stub("dfx ping", "", errors.New("connection refused"))
		err := newClient(rec).WaitReady(context.Background(), time.Millisecond, 30*time.Millisecond)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not ready")
		assert.Greater(t, len(rec.Calls()), 1, "ping should have been retried")
	})
}

func TestCallQuery(t *testing.T) {
	rec := execx.NewRecorder()
	rec.Stub("dfx canister call chain_fusion get_evm_address --query",
		`("0x5FbDB2315678afecb367f032d93F642f64180aa3")`, nil)

	out, err := newClient(rec).CallQuery(context.Background(), "chain_fusion", "get_evm_address")
	require.NoError(t, err)
	assert.Contains(t, out, "0x5FbDB2315678afecb367f032d93F642f64180aa3")
}
