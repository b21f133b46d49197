package detect

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherFlagsStaleOnMarkerChange(t *testing.T) {
	root := t.TempDir()

	w, err := NewWatcher(WatcherConfig{
		Root:          root,
		DebounceDelay: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0644))

	select {
	case path := <-w.Events():
		assert.Equal(t, "go.mod", path)
	case <-time.After(2 * time.Second):
		t.Fatal("no staleness event for a marker file change")
	}
	assert.True(t, w.Stale())

	w.Reset()
	assert.False(t, w.Stale())
}

func TestWatcherIgnoresUnknownFiles(t *testing.T) {
	root := t.TempDir()

	w, err := NewWatcher(WatcherConfig{
		Root:          root,
		DebounceDelay: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("scratch\n"), 0644))

	select {
	case path := <-w.Events():
		t.Fatalf("unexpected staleness event for %q", path)
	case <-time.After(150 * time.Millisecond):
	}
	assert.False(t, w.Stale())
}

// Stop while flushes are in flight must not panic: the processing goroutine
// owns the events channel and is the only closer.
func TestWatcherStopDuringFlushes(t *testing.T) {
	root := t.TempDir()

	w, err := NewWatcher(WatcherConfig{
		Root:          root,
		DebounceDelay: time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	// Nobody drains Events, so the buffer fills and flushPending keeps
	// hitting the send path while Stop runs.
	for i := 0; i < 30; i++ {
		name := filepath.Join(root, "Dockerfile")
		require.NoError(t, os.WriteFile(name, []byte("FROM scratch\n"), 0644))
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop(), "Stop must be idempotent")

	// The channel closes once the goroutine exits.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-w.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel never closed after Stop")
		}
	}
}
