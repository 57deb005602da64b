package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/scanner"
	"github.com/letmejustputthishere/icp-evm-coprocessor-starter/internal/state"
)

func TestDownStopsRecordedRun(t *testing.T) {
	f := newFixture(t, []scanner.Listener{
		{Port: 8545, PID: 70001, Process: "anvil"},
	})

	run := state.NewRun()
	run.AnvilPID = 70001
	run.EVMAddress = derivedAddr
	require.NoError(t, f.env.Store.Save(run))

	require.NoError(t, Down(context.Background(), f.env))

	assert.Equal(t, []string{"kill 70001", "dfx stop"}, f.j.list())
	assert.Contains(t, f.notices.String(), "Stopped anvil (PID 70001)")
	assert.Contains(t, f.notices.String(), "Replica stopped")

	saved, err := f.env.Store.Load()
	require.NoError(t, err)
	assert.Nil(t, saved, "state is cleared")
}

func TestDownWithoutState(t *testing.T) {
	f := newFixture(t, []scanner.Listener{
		{Port: 8545, PID: 500, Process: "anvil"},
	})

	require.NoError(t, Down(context.Background(), f.env))

	assert.Equal(t, []string{"kill 500", "dfx stop"}, f.j.list())
	assert.Contains(t, f.notices.String(), "Killed anvil (PID 500) on port 8545")
}

func TestDownNothingRunning(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, Down(context.Background(), f.env))

	assert.Equal(t, []string{"dfx stop"}, f.j.list())
	assert.Contains(t, f.notices.String(), "No process found listening on port 8545")
}
