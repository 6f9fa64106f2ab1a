package dispatch

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("dispatch: pool closed")

// Pool runs submitted closures on a fixed set of worker goroutines,
// bounding the concurrency of background work no matter how many
// handles share the pool.
type Pool struct {
	numWorkers int
	workCh     chan func()
	stopCh     chan struct{}
	wg         sync.WaitGroup
	closed     atomic.Bool
	submitMu   sync.RWMutex
}

// NewPool starts a pool with numWorkers goroutines. A non-positive
// count falls back to runtime.GOMAXPROCS(0), which suits CPU-bound
// work; IO-heavy callers may want a few times that.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		// Queue twice the worker count so submitters rarely block.
		workCh: make(chan func(), numWorkers*2),
		stopCh: make(chan struct{}),
	}

	p.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			// Finish whatever is still queued, then exit.
			for {
				select {
				case workFunc, ok := <-p.workCh:
					if !ok {
						return
					}
					workFunc()
				default:
					return
				}
			}
		case workFunc, ok := <-p.workCh:
			if !ok {
				return
			}
			workFunc()
		}
	}
}

// Submit hands task to a worker and returns once it is queued. It
// fails with ErrPoolClosed after Close, or with the context error if
// ctx expires while the queue is full.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	p.submitMu.RLock()
	defer p.submitMu.RUnlock()

	if p.closed.Load() {
		return ErrPoolClosed
	}

	select {
	case p.workCh <- task:
		return nil
	case <-p.stopCh:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits for queued tasks to finish.
// Safe to call more than once.
func (p *Pool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}

	p.submitMu.Lock()
	close(p.stopCh)
	close(p.workCh)
	p.submitMu.Unlock()

	p.wg.Wait()
}

var (
	defaultPool     *Pool
	defaultPoolOnce sync.Once
)

// DefaultPool returns the process-wide shared pool, creating it on first
// use with runtime.GOMAXPROCS(0) workers. It is never closed.
func DefaultPool() *Pool {
	defaultPoolOnce.Do(func() {
		defaultPool = NewPool(0)
	})

	return defaultPool
}
