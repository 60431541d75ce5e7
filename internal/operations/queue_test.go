// file: internal/operations/queue_test.go
// version: 2.1.0
// guid: 5ebc398c-17ae-4a45-b0f6-7ec462e8bec9

package operations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	q := NewQueue("test", zerolog.Nop())
	t.Cleanup(func() { _ = q.Shutdown(time.Second) })
	return q
}

func TestQueue_SubmitReturnsResult(t *testing.T) {
	q := newTestQueue(t)

	err := q.Submit(context.Background(), "ok", func(ctx context.Context) error { return nil })
	assert.NoError(t, err)

	boom := errors.New("boom")
	err = q.Submit(context.Background(), "fail", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestQueue_SerializesOperations(t *testing.T) {
	q := newTestQueue(t)

	var (
		mu      sync.Mutex
		running int
		maxSeen int
		counter int
	)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Submit(context.Background(), "inc", func(ctx context.Context) error {
				mu.Lock()
				running++
				if running > maxSeen {
					maxSeen = running
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)
				counter++ // unsynchronized on purpose; the queue provides exclusion

				mu.Lock()
				running--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "operations must never overlap")
	assert.Equal(t, 20, counter)
}

func TestQueue_PreservesOrder(t *testing.T) {
	q := newTestQueue(t)

	var order []int
	release := make(chan struct{})
	_, err := q.Enqueue("block", func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		i := i
		_, err := q.Enqueue("append", func(ctx context.Context) error {
			order = append(order, i)
			return nil
		})
		require.NoError(t, err)
	}
	close(release)

	require.NoError(t, q.Submit(context.Background(), "barrier", func(ctx context.Context) error { return nil }))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestQueue_SkipsCancelledOperation(t *testing.T) {
	q := newTestQueue(t)

	release := make(chan struct{})
	_, err := q.Enqueue("block", func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan struct{}, 1)
	result := make(chan error, 1)
	go func() {
		result <- q.Submit(ctx, "late", func(ctx context.Context) error {
			ran <- struct{}{}
			return nil
		})
	}()

	cancel()
	assert.ErrorIs(t, <-result, context.Canceled)
	close(release)

	require.NoError(t, q.Submit(context.Background(), "barrier", func(ctx context.Context) error { return nil }))
	select {
	case <-ran:
		t.Fatal("cancelled operation should not run")
	default:
	}
}

func TestQueue_WaitsForRunningOperationAfterCancel(t *testing.T) {
	q := newTestQueue(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var committed bool
	err := q.Submit(ctx, "write", func(opCtx context.Context) error {
		cancel()
		time.Sleep(10 * time.Millisecond)
		if opCtx.Err() != nil {
			return opCtx.Err()
		}
		committed = true
		return nil
	})

	require.NoError(t, err, "a started operation reports its own result")
	assert.True(t, committed)
}

func TestQueue_RecoversPanics(t *testing.T) {
	q := newTestQueue(t)

	err := q.Submit(context.Background(), "panic", func(ctx context.Context) error { panic("bad") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	// worker survives
	assert.NoError(t, q.Submit(context.Background(), "after", func(ctx context.Context) error { return nil }))
}

func TestQueue_Shutdown(t *testing.T) {
	q := NewQueue("shutdown", zerolog.Nop())
	assert.Equal(t, "shutdown", q.Name())
	require.NoError(t, q.Shutdown(time.Second))
	require.NoError(t, q.Shutdown(time.Second), "second shutdown is a no-op")

	err := q.Submit(context.Background(), "late", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)

	_, err = q.Enqueue("late", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueue_ActiveOperations(t *testing.T) {
	q := newTestQueue(t)

	release := make(chan struct{})
	started := make(chan struct{})
	id, err := q.Enqueue("books.import", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)
	<-started

	active := q.ActiveOperations()
	require.Len(t, active, 1)
	assert.Equal(t, id, active[0].ID)
	assert.Equal(t, "books.import", active[0].Type)

	close(release)
	require.NoError(t, q.Submit(context.Background(), "barrier", func(ctx context.Context) error { return nil }))
	assert.Empty(t, q.ActiveOperations())
}
