package workers

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"photocache/internal/logging"
	"photocache/internal/metrics"
)

// ErrPoolClosed is returned by Submit after Close has been called.
var ErrPoolClosed = errors.New("worker pool closed")

// Pool is a fixed set of goroutines draining a FIFO task queue.
//
// The queue is unbounded so Submit never blocks the caller; the bound is on
// how many tasks run at once. Pools are created once at startup and passed
// to whoever needs them.
type Pool struct {
	name string
	size int

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	busy   int
	closed bool

	wg sync.WaitGroup
}

// NewPool starts a pool with size workers.
func NewPool(name string, size int) *Pool {
	if size < 1 {
		size = 1
	}

	p := &Pool{
		name: name,
		size: size,
	}
	p.cond = sync.NewCond(&p.mu)

	metrics.PoolWorkers.WithLabelValues(name).Set(float64(size))

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	logging.Debug("Pool %s started with %d workers", name, size)
	return p
}

// Name returns the pool's name.
func (p *Pool) Name() string {
	return p.name
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Submit enqueues task. It never blocks.
func (p *Pool) Submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("%s: %w", p.name, ErrPoolClosed)
	}

	p.queue = append(p.queue, task)
	metrics.PoolQueueDepth.WithLabelValues(p.name).Set(float64(len(p.queue)))
	p.cond.Signal()
	return nil
}

// Stats returns the number of queued tasks and the number of busy workers.
func (p *Pool) Stats() (queued, busy int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue), p.busy
}

// Close stops accepting work, lets the workers drain the queue and waits
// for them to exit.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
	logging.Debug("Pool %s stopped", p.name)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}

		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.busy++
		metrics.PoolQueueDepth.WithLabelValues(p.name).Set(float64(len(p.queue)))
		metrics.PoolBusyWorkers.WithLabelValues(p.name).Set(float64(p.busy))
		p.mu.Unlock()

		p.run(id, task)

		p.mu.Lock()
		p.busy--
		metrics.PoolBusyWorkers.WithLabelValues(p.name).Set(float64(p.busy))
		p.mu.Unlock()
	}
}

// run executes a task, keeping the worker alive if it panics. Callers that
// care about panics recover inside their own task.
func (p *Pool) run(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Pool %s worker %d: task panicked: %v\n%s", p.name, id, r, debug.Stack())
		}
	}()
	task()
}
