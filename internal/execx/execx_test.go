package execx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandLine(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{
			name: "plain args",
			cmd:  Command{Program: "dfx", Args: []string{"start", "--clean", "--background"}},
			want: "dfx start --clean --background",
		},
		{
			name: "no args",
			cmd:  Command{Program: "anvil"},
			want: "anvil",
		},
		{
			name: "bare candid args survive",
			cmd:  Command{Program: "dfx", Args: []string{"canister", "call", "chain_fusion", "get_evm_address", "()"}},
			want: "dfx canister call chain_fusion get_evm_address ()",
		},
		{
			name: "arg with spaces is quoted",
			cmd:  Command{Program: "dfx", Args: []string{"ledger", "fabricate-cycles", "--amount", "10 000"}},
			want: "dfx ledger fabricate-cycles --amount '10 000'",
		},
		{
			name: "signature with parens survives",
			cmd:  Command{Program: "forge", Args: []string{"script", "--sig", "run(address)"}},
			want: "forge script --sig run(address)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.Line())
		})
	}
}

func TestRecorderRecordsInOrder(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	require.NoError(t, r.Run(ctx, Command{Program: "dfx", Args: []string{"stop"}}))
	_, err := r.Output(ctx, Command{Program: "dfx", Args: []string{"ping"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"dfx stop", "dfx ping"}, r.Lines())
	assert.True(t, r.Ran("dfx stop"))
	assert.False(t, r.Ran("dfx start"))
}

func TestRecorderStubbedResults(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	r.Stub("dfx ping", `{"replica_health_status": "healthy"}`, nil)
	boom := errors.New("connection refused")
	r.Stub("dfx stop", "", boom)

	out, err := r.Output(ctx, Command{Program: "dfx", Args: []string{"ping"}})
	require.NoError(t, err)
	assert.Contains(t, out, "healthy")

	err = r.Run(ctx, Command{Program: "dfx", Args: []string{"stop"}})
	require.ErrorIs(t, err, boom)
}

func TestRecorderStartAssignsDistinctPIDs(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	pid1, err := r.Start(ctx, Command{Program: "anvil"})
	require.NoError(t, err)
	pid2, err := r.Start(ctx, Command{Program: "anvil"})
	require.NoError(t, err)

	assert.NotZero(t, pid1)
	assert.NotEqual(t, pid1, pid2)
}

func TestRecorderHonorsContext(t *testing.T) {
	r := NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx, Command{Program: "cargo", Args: []string{"build"}})
	require.Error(t, err)
	assert.Empty(t, r.Calls(), "cancelled invocations should not be recorded")
}

func TestOSRunnerOutput(t *testing.T) {
	if _, err := New().Output(context.Background(), Command{Program: "definitely-not-a-real-tool-xyz"}); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
