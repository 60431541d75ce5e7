// file: internal/operations/queue.go
// version: 2.1.0
// guid: 3182bf07-8313-49db-af9e-ae59aa952a12

package operations

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jdfalk/cliqbook/internal/metrics"
	ulid "github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// ErrQueueClosed is returned when work is submitted after Shutdown.
var ErrQueueClosed = errors.New("operation queue is shut down")

// OperationFunc is one unit of serialized work.
type OperationFunc func(ctx context.Context) error

// Operation states. A pending op is claimed exactly once, either by the
// worker (running) or by a Submit caller whose ctx ended (abandoned).
const (
	opPending int32 = iota
	opRunning
	opAbandoned
)

type queuedOperation struct {
	id     string
	opType string
	ctx    context.Context
	fn     OperationFunc
	done   chan error // nil for fire-and-forget work
	state  atomic.Int32
}

// Queue runs operations one at a time, in submission order, on a single
// worker goroutine. Each collection owns one, so mutations of the same
// collection never interleave while reads stay lock-free for callers.
type Queue struct {
	name    string
	pending chan *queuedOperation
	log     zerolog.Logger

	mu     sync.RWMutex
	active map[string]string // id -> type
	closed bool

	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{} // closed once the worker has exited
}

// NewQueue creates a queue and starts its worker.
func NewQueue(name string, log zerolog.Logger) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		name:    name,
		pending: make(chan *queuedOperation, 64),
		log:     log.With().Str("queue", name).Logger(),
		active:  make(map[string]string),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	q.wg.Add(1)
	go q.worker()
	return q
}

// Submit queues fn and waits for it to finish. If ctx ends while the
// operation is still waiting its turn, the operation is skipped and ctx's
// error returned. Once the worker has picked it up, Submit waits for the
// real result and fn sees a ctx that is no longer cancelled by the caller.
func (q *Queue) Submit(ctx context.Context, opType string, fn OperationFunc) error {
	op, err := q.enqueue(ctx, opType, fn, make(chan error, 1))
	if err != nil {
		return err
	}
	select {
	case err := <-op.done:
		return err
	case <-ctx.Done():
		if op.state.CompareAndSwap(opPending, opAbandoned) {
			return ctx.Err()
		}
		return q.wait(op)
	case <-q.stopped:
		select {
		case err := <-op.done:
			return err
		default:
			return ErrQueueClosed
		}
	}
}

// wait blocks for an operation the worker has already claimed.
func (q *Queue) wait(op *queuedOperation) error {
	select {
	case err := <-op.done:
		return err
	case <-q.stopped:
		select {
		case err := <-op.done:
			return err
		default:
			return ErrQueueClosed
		}
	}
}

// Enqueue queues fn without waiting and returns its operation id.
func (q *Queue) Enqueue(opType string, fn OperationFunc) (string, error) {
	op, err := q.enqueue(q.ctx, opType, fn, nil)
	if err != nil {
		return "", err
	}
	return op.id, nil
}

func (q *Queue) enqueue(ctx context.Context, opType string, fn OperationFunc, done chan error) (*queuedOperation, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrQueueClosed
	}
	op := &queuedOperation{
		id:     ulid.Make().String(),
		opType: opType,
		ctx:    ctx,
		fn:     fn,
		done:   done,
	}
	q.active[op.id] = opType
	q.mu.Unlock()

	select {
	case q.pending <- op:
		return op, nil
	case <-ctx.Done():
		q.forget(op.id)
		return nil, ctx.Err()
	case <-q.ctx.Done():
		q.forget(op.id)
		return nil, ErrQueueClosed
	}
}

func (q *Queue) forget(id string) {
	q.mu.Lock()
	delete(q.active, id)
	q.mu.Unlock()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	defer close(q.stopped)
	for {
		select {
		case <-q.ctx.Done():
			q.drain()
			return
		case op := <-q.pending:
			q.run(op)
		}
	}
}

// drain fails whatever is still pending so Submit callers never hang.
func (q *Queue) drain() {
	for {
		select {
		case op := <-q.pending:
			q.forget(op.id)
			if op.done != nil {
				op.done <- ErrQueueClosed
			}
		default:
			return
		}
	}
}

func (q *Queue) run(op *queuedOperation) {
	if !op.state.CompareAndSwap(opPending, opRunning) {
		q.forget(op.id)
		return
	}
	err := op.ctx.Err()
	if err == nil {
		if op.done != nil {
			op.ctx = context.WithoutCancel(op.ctx)
		}
		start := time.Now()
		metrics.IncOperationStarted(op.opType)
		err = safeCall(op)
		metrics.ObserveOperationDuration(op.opType, time.Since(start))
		if err != nil {
			metrics.IncOperationFailed(op.opType)
			q.log.Debug().Err(err).Str("op", op.opType).Str("id", op.id).Msg("operation failed")
		} else {
			metrics.IncOperationCompleted(op.opType)
		}
	}
	q.forget(op.id)

	if op.done != nil {
		op.done <- err
	} else if err != nil {
		q.log.Error().Err(err).Str("op", op.opType).Str("id", op.id).Msg("background operation failed")
	}
}

func safeCall(op *queuedOperation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation %s panicked: %v", op.opType, r)
		}
	}()
	return op.fn(op.ctx)
}

// ActiveOperation represents lightweight info about an in-flight operation.
type ActiveOperation struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// ActiveOperations returns a snapshot of currently queued/running operations.
func (q *Queue) ActiveOperations() []ActiveOperation {
	q.mu.RLock()
	defer q.mu.RUnlock()
	results := make([]ActiveOperation, 0, len(q.active))
	for id, opType := range q.active {
		results = append(results, ActiveOperation{ID: id, Type: opType})
	}
	return results
}

// Name returns the queue's name.
func (q *Queue) Name() string { return q.name }

// Shutdown stops accepting work, lets the running operation finish and
// fails anything still pending.
func (q *Queue) Shutdown(timeout time.Duration) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("queue %s: shutdown timeout after %v", q.name, timeout)
	}
}
