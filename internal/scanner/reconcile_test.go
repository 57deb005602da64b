package scanner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScanner drops killed PIDs from subsequent scans unless stubborn.
type fakeScanner struct {
	mu        sync.Mutex
	listeners []Listener
	killed    []int
	stubborn  bool
	scanErr   error
	killErr   error
}

func (f *fakeScanner) Scan() ([]Listener, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	out := make([]Listener, len(f.listeners))
	copy(out, f.listeners)
	return out, nil
}

func (f *fakeScanner) Kill(pid int, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.killErr != nil {
		return f.killErr
	}
	f.killed = append(f.killed, pid)
	if f.stubborn {
		return nil
	}
	var remaining []Listener
	for _, l := range f.listeners {
		if l.PID != pid {
			remaining = append(remaining, l)
		}
	}
	f.listeners = remaining
	return nil
}

func (f *fakeScanner) killedPIDs() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.killed))
	copy(out, f.killed)
	return out
}

func quickOpts() ReleaseOptions {
	return ReleaseOptions{
		Settle:   0,
		Interval: time.Millisecond,
		Timeout:  100 * time.Millisecond,
	}
}

func TestListenersOn(t *testing.T) {
	fake := &fakeScanner{listeners: []Listener{
		{Port: 8545, PID: 100, Process: "anvil"},
		{Port: 4943, PID: 200, Process: "pocket-ic"},
		{Port: 8545, PID: 300, Process: "anvil"},
	}}

	on, err := ListenersOn(fake, 8545)
	require.NoError(t, err)
	require.Len(t, on, 2)
	assert.Equal(t, 100, on[0].PID)
	assert.Equal(t, 300, on[1].PID)

	none, err := ListenersOn(fake, 3000)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReleasePortAlreadyFree(t *testing.T) {
	fake := &fakeScanner{}

	victims, err := ReleasePort(context.Background(), fake, 8545, quickOpts())
	require.NoError(t, err)
	assert.Nil(t, victims)
	assert.Empty(t, fake.killedPIDs(), "no kill is issued for a free port")
}

func TestReleasePortKillsOnlyTargets(t *testing.T) {
	fake := &fakeScanner{listeners: []Listener{
		{Port: 8545, PID: 100, Process: "anvil"},
		{Port: 4943, PID: 200, Process: "pocket-ic"},
	}}

	victims, err := ReleasePort(context.Background(), fake, 8545, quickOpts())
	require.NoError(t, err)
	require.Len(t, victims, 1)
	assert.Equal(t, 100, victims[0].PID)
	assert.Equal(t, []int{100}, fake.killedPIDs(), "listeners on other ports are untouched")

	remaining, err := ListenersOn(fake, 4943)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestReleasePortTimesOutOnSurvivor(t *testing.T) {
	fake := &fakeScanner{
		listeners: []Listener{{Port: 8545, PID: 100, Process: "anvil"}},
		stubborn:  true,
	}

	opts := quickOpts()
	opts.Timeout = 20 * time.Millisecond

	_, err := ReleasePort(context.Background(), fake, 8545, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still in use")
}

func TestReleasePortSurfacesScanError(t *testing.T) {
	boom := errors.New("lsof exploded")
	fake := &fakeScanner{scanErr: boom}

	_, err := ReleasePort(context.Background(), fake, 8545, quickOpts())
	require.ErrorIs(t, err, boom)
}

func TestReleasePortSurfacesKillError(t *testing.T) {
	boom := errors.New("operation not permitted")
	fake := &fakeScanner{
		listeners: []Listener{{Port: 8545, PID: 1, Process: "launchd"}},
		killErr:   boom,
	}

	_, err := ReleasePort(context.Background(), fake, 8545, quickOpts())
	require.ErrorIs(t, err, boom)
}

func TestReleasePortHonorsContext(t *testing.T) {
	fake := &fakeScanner{
		listeners: []Listener{{Port: 8545, PID: 100, Process: "anvil"}},
		stubborn:  true,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := quickOpts()
	opts.Settle = time.Second

	start := time.Now()
	_, err := ReleasePort(ctx, fake, 8545, opts)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "cancelled settle must not run out")
}
