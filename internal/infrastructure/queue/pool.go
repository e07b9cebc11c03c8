package queue

import (
	"context"
	"errors"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/99minutos/identity-service/internal/metrics"
)

const channelBuffer = 256

var (
	// ErrPoolClosed is returned by Do once the pool's context has been cancelled.
	ErrPoolClosed = errors.New("queue: pool closed")
	// ErrJobPanicked is returned by Do when the job panicked.
	ErrJobPanicked = errors.New("queue: job panicked")
)

type job struct {
	fn      func()
	started chan struct{}
	done    chan struct{}
	// err is written before done is closed.
	err *error
}

// Pool runs CPU-bound jobs on a fixed set of workers so that bursts of
// requests cannot oversubscribe the scheduler.
type Pool struct {
	jobs    chan job
	workers int
	stopped chan struct{}
	log     zerolog.Logger
}

// NewPool creates a Pool with numWorkers workers.
// If numWorkers <= 0, runtime.NumCPU() is used.
func NewPool(numWorkers int, log zerolog.Logger) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{
		jobs:    make(chan job, channelBuffer),
		workers: numWorkers,
		stopped: make(chan struct{}),
		log:     log,
	}
}

// Workers reports the configured worker count.
func (p *Pool) Workers() int { return p.workers }

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		go p.runWorker(ctx, i)
	}
	go func() {
		<-ctx.Done()
		close(p.stopped)
	}()
	p.log.Debug().Int("workers", p.workers).Msg("worker pool started")
}

// Do enqueues fn and blocks until a worker has run it. It returns early with
// ctx.Err() if the caller gives up, or ErrPoolClosed if the pool stops first.
// A job a worker has already picked up is waited for even if the pool stops.
// A job abandoned after being queued may still run; fn must not assume the
// caller is waiting.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	var jobErr error
	j := job{fn: fn, started: make(chan struct{}), done: make(chan struct{}), err: &jobErr}

	select {
	case p.jobs <- j:
		metrics.HashQueueDepth.Inc()
	case <-ctx.Done():
		return ctx.Err()
	case <-p.stopped:
		return ErrPoolClosed
	}

	select {
	case <-j.done:
		return jobErr
	case <-ctx.Done():
		if finished(j) {
			return jobErr
		}
		return ctx.Err()
	case <-p.stopped:
		select {
		case <-j.started:
			<-j.done
			return jobErr
		default:
			return ErrPoolClosed
		}
	}
}

func finished(j job) bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.jobs:
			metrics.HashQueueDepth.Dec()
			p.run(id, j)
		}
	}
}

func (p *Pool) run(id int, j job) {
	close(j.started)
	defer close(j.done)
	defer func() {
		if r := recover(); r != nil {
			*j.err = ErrJobPanicked
			p.log.Error().Interface("panic", r).Int("worker_id", id).Msg("worker job panicked")
		}
	}()
	j.fn()
}
