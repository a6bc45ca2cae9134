// Package parallel fans per-node work out to a bounded set of
// goroutines during compilation. A pool is submit-then-drain: the
// compiler queues one task per node, then drains the pool before it
// touches any result.
package parallel

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/inwe-boku/fluxopt/pkg/logging"
)

// MaxWorkers caps the worker count so queue sizing cannot overflow.
const MaxWorkers = math.MaxInt / 2

// ErrTooManyWorkers is returned when a worker count exceeds MaxWorkers.
var ErrTooManyWorkers = errors.New("worker count exceeds maximum")

// Pool runs queued tasks on a fixed set of goroutines. A panicking task
// is logged and dropped, it never takes its worker down.
type Pool struct {
	queue  chan func()
	logger logging.Logger
	done   sync.WaitGroup
	drain  sync.Once

	mu     sync.Mutex
	closed bool
}

// NewPool starts a pool of workers goroutines. Counts below one fall
// back to GOMAXPROCS. Task panics are reported through logger.
func NewPool(workers int, logger logging.Logger) (*Pool, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyWorkers, workers, MaxWorkers)
	}
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	p := &Pool{
		queue:  make(chan func(), 2*workers),
		logger: logger,
	}
	p.done.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p, nil
}

func (p *Pool) work() {
	defer p.done.Done()
	for task := range p.queue {
		p.run(task)
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pool task panicked", logging.Any("panic", r))
		}
	}()
	task()
}

// Go queues a task. It reports false once the pool is drained.
func (p *Pool) Go(task func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.queue <- task
	return true
}

// Wait closes the queue and blocks until every queued task ran. The
// pool cannot be reused afterwards; Wait is safe to call repeatedly.
func (p *Pool) Wait() {
	p.drain.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
	})
	p.done.Wait()
}
