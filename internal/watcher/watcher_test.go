// file: internal/watcher/watcher_test.go
// version: 2.1.0
// guid: 9005c124-28a9-4ebc-b693-142ddea3e862

package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchers(t *testing.T) {
	m := Named("categories.json")
	assert.True(t, m("/fixtures/categories.json"))
	assert.False(t, m("/fixtures/books.json"))
}

func TestDebounceCoalescesWrites(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	var last atomic.Value
	w := New(func(name string) {
		calls.Add(1)
		last.Store(name)
	}, Named("categories.json"), 100*time.Millisecond, zerolog.Nop())
	require.NoError(t, w.Start(dir))
	defer w.Stop()

	target := filepath.Join(dir, "categories.json")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(target, []byte("[]"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "writes within the debounce window coalesce")
	assert.Equal(t, target, last.Load())
}

func TestIgnoresNonMatchingFiles(t *testing.T) {
	dir := t.TempDir()

	var calls atomic.Int32
	w := New(func(string) { calls.Add(1) }, Named("categories.json"), 50*time.Millisecond, zerolog.Nop())
	require.NoError(t, w.Start(dir))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestStartMissingDir(t *testing.T) {
	w := New(nil, nil, 0, zerolog.Nop())
	assert.Error(t, w.Start(filepath.Join(t.TempDir(), "missing")))
}

func TestStopIsIdempotent(t *testing.T) {
	w := New(nil, nil, 0, zerolog.Nop())
	require.NoError(t, w.Start(t.TempDir()))
	w.Stop()
	w.Stop()
}
