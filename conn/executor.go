package conn

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/lcx/hermes/log"
	"github.com/lcx/hermes/metrics"
)

const _defaultExecutorQueueSize = 256

var (
	// ErrExecutorClosed is returned by Post after Close.
	ErrExecutorClosed = errors.New("conn: executor closed")
	// ErrExecutorBusy is returned by Post when the job queue is full.
	ErrExecutorBusy = errors.New("conn: executor queue full")
)

// Executor runs jobs one at a time on a single goroutine. All connection
// state lives on it, so lifecycle code never takes a lock: anything that
// wants to touch that state posts a job instead.
type Executor struct {
	jobs   chan func()
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// NewExecutor creates the executor and starts its goroutine. queueSize <= 0
// selects the default.
func NewExecutor(queueSize int) *Executor {
	if queueSize <= 0 {
		queueSize = _defaultExecutorQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Executor{
		jobs:   make(chan func(), queueSize),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}

	go e.runLoop()
	return e
}

// Post enqueues job for execution. It never blocks: a full queue returns
// ErrExecutorBusy and the job is dropped.
func (e *Executor) Post(job func()) error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}

	select {
	case e.jobs <- job:
		metrics.UpdateGaugeWithGroup("conn", "executor_queue_length", metrics.Value(len(e.jobs)))
		return nil
	default:
		metrics.IncrCounterWithGroup("conn", "executor_job_dropped_total", 1)
		return ErrExecutorBusy
	}
}

// Close stops the executor. Jobs already queued still run before the
// goroutine exits; jobs posted after Close are rejected. Close is
// idempotent and does not wait, use Done to observe the exit.
func (e *Executor) Close() {
	e.cancel()
}

// Done is closed once the run loop has drained and exited.
func (e *Executor) Done() <-chan struct{} {
	return e.done
}

func (e *Executor) runLoop() {
	defer close(e.done)

	log.Debug().Msg("conn executor loop start")
	defer log.Debug().Msg("conn executor loop exit")

	for {
		select {
		case <-e.ctx.Done():
			e.closed.Store(true)
			e.drain()
			return
		case job := <-e.jobs:
			e.run(job)
		}
	}
}

// drain runs whatever made it into the queue before closed flipped, so a
// Post that raced with Close is executed rather than silently lost.
func (e *Executor) drain() {
	for {
		select {
		case job := <-e.jobs:
			e.run(job)
		default:
			return
		}
	}
}

func (e *Executor) run(job func()) {
	start := time.Now()
	job()
	metrics.RecordStopwatchWithGroup("conn", "executor_job_time", start)
}

// Timer is a one-shot timer whose function runs as an executor job.
// Cancel wins every race with a concurrent fire: the fire path re-checks
// stopped after it has been posted, and because both the re-check and
// Cancel happen on the executor goroutine there is no window where a
// cancelled timer's function can still run.
type Timer struct {
	stopped atomic.Bool
	timer   *time.Timer
}

// AfterFunc arranges for fn to run on the executor after d. The returned
// timer must be cancelled from the executor goroutine.
func (e *Executor) AfterFunc(d time.Duration, fn func()) *Timer {
	tm := &Timer{}
	tm.timer = time.AfterFunc(d, func() {
		if tm.stopped.Load() {
			return
		}
		// 入队失败说明执行器已关闭, 定时任务直接丢弃
		_ = e.Post(func() {
			if tm.stopped.Load() {
				return
			}
			fn()
		})
	})
	return tm
}

// Cancel stops the timer. Safe on a nil receiver so callers can cancel
// without checking whether anything was scheduled.
func (tm *Timer) Cancel() {
	if tm == nil {
		return
	}
	tm.stopped.Store(true)
	tm.timer.Stop()
}
