package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInteresting(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{
			name: "rust source write",
			ev:   fsnotify.Event{Name: "src/lib.rs", Op: fsnotify.Write},
			want: true,
		},
		{
			name: "manifest write",
			ev:   fsnotify.Event{Name: "Cargo.toml", Op: fsnotify.Write},
			want: true,
		},
		{
			name: "candid interface create",
			ev:   fsnotify.Event{Name: "chain_fusion.did", Op: fsnotify.Create},
			want: true,
		},
		{
			name: "source removal",
			ev:   fsnotify.Event{Name: "src/job.rs", Op: fsnotify.Remove},
			want: true,
		},
		{
			name: "editor swap file",
			ev:   fsnotify.Event{Name: "src/.lib.rs.swp", Op: fsnotify.Write},
			want: false,
		},
		{
			name: "chmod only",
			ev:   fsnotify.Event{Name: "src/lib.rs", Op: fsnotify.Chmod},
			want: false,
		},
		{
			name: "unrelated file",
			ev:   fsnotify.Event{Name: "README.md", Op: fsnotify.Write},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, interesting(tt.ev))
		})
	}
}

func TestSettled(t *testing.T) {
	now := time.Now()
	debounce := 500 * time.Millisecond

	assert.False(t, settled(false, now, now, debounce), "clean tree never rebuilds")
	assert.False(t, settled(true, now, now.Add(100*time.Millisecond), debounce), "still within the window")
	assert.True(t, settled(true, now, now.Add(debounce), debounce))
	assert.True(t, settled(true, now, now.Add(2*time.Second), debounce))
}

func TestRunRebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))

	rebuilt := make(chan struct{}, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, zap.NewNop(), dir, Options{Debounce: 50 * time.Millisecond}, func(context.Context) error {
			rebuilt <- struct{}{}
			return nil
		})
	}()

	// Give the watcher a moment to register the tree.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "lib.rs"), []byte("fn main() {}\n"), 0o644))

	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after a source change")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop on cancel")
	}
}

func TestRunIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()

	rebuilt := make(chan struct{}, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, zap.NewNop(), dir, Options{Debounce: 50 * time.Millisecond}, func(context.Context) error {
			rebuilt <- struct{}{}
			return nil
		})
	}()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("scratch\n"), 0o644))

	select {
	case <-rebuilt:
		t.Fatal("markdown change should not rebuild")
	case <-time.After(500 * time.Millisecond):
	}

	cancel()
	<-done
}

func TestRunMissingDir(t *testing.T) {
	err := Run(context.Background(), zap.NewNop(), filepath.Join(t.TempDir(), "absent"), Options{}, func(context.Context) error {
		t.Fatal("rebuild must not run")
		return nil
	})
	require.Error(t, err)
}
