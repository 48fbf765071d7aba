// Package dispatcher persists notifications off the request path through a
// FIFO queue drained by a bounded pool of writers.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/anonto42/nano-social/backend/internal/logger"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

const DefaultConcurrency = 10

// Sink persists a notification record.
type Sink interface {
	Create(ctx context.Context, job models.NotificationJob) (*models.Notification, error)
}

type Options struct {
	// Concurrency bounds in-flight sink writes. Zero means DefaultConcurrency.
	Concurrency int
	// MaxBacklog rejects jobs with models.ErrQueueFull once this many are
	// waiting. Zero leaves the backlog unbounded.
	MaxBacklog int
	// WriteTimeout bounds a single sink write. Zero disables it.
	WriteTimeout time.Duration
}

type task struct {
	job    models.NotificationJob
	result *Result
}

type Dispatcher struct {
	sink   Sink
	log    *logger.Logger
	opts   Options
	sem    *semaphore.Weighted
	tracer trace.Tracer

	mu      sync.Mutex
	queue   []*task
	closed  bool
	started bool
	wake    chan struct{}

	baseCtx    context.Context
	loopCtx    context.Context
	loopCancel context.CancelFunc
	loopDone   chan struct{}
	inflight   sync.WaitGroup
	running    atomic.Int64
}

func New(sink Sink, log *logger.Logger, opts Options) *Dispatcher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sink:       sink,
		log:        log.With("component", "dispatcher"),
		opts:       opts,
		sem:        semaphore.NewWeighted(int64(opts.Concurrency)),
		tracer:     otel.Tracer("github.com/anonto42/nano-social/backend/internal/dispatcher"),
		wake:       make(chan struct{}, 1),
		baseCtx:    context.Background(),
		loopCtx:    loopCtx,
		loopCancel: cancel,
		loopDone:   make(chan struct{}),
	}
}

// Enqueue queues job and returns immediately. The Result resolves once the
// job has been written or has failed.
func (d *Dispatcher) Enqueue(job models.NotificationJob) *Result {
	res := newResult()

	d.mu.Lock()
	switch {
	case d.closed:
		d.mu.Unlock()
		res.resolve(nil, models.ErrDispatcherClosed)
		return res
	case d.opts.MaxBacklog > 0 && len(d.queue) >= d.opts.MaxBacklog:
		d.mu.Unlock()
		d.log.Warn("notification rejected, backlog full", "type", job.Type, "recipient_id", job.RecipientID)
		res.resolve(nil, models.ErrQueueFull)
		return res
	}
	d.queue = append(d.queue, &task{job: job, result: res})
	d.mu.Unlock()

	d.signal()
	return res
}

// Start launches the dequeue loop. ctx only contributes values (trace
// parents); the loop runs until Stop.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	d.baseCtx = context.WithoutCancel(ctx)
	go d.loop()
	d.log.Info("Notification dispatcher started.", "concurrency", d.opts.Concurrency, "max_backlog", d.opts.MaxBacklog)
}

// Stop refuses new jobs, drains the backlog and waits for in-flight writes.
// If ctx expires first, jobs still queued fail with models.ErrDispatcherClosed.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	started := d.started
	d.mu.Unlock()

	if !started {
		d.failQueued(models.ErrDispatcherClosed)
		return nil
	}
	d.signal()

	done := make(chan struct{})
	go func() {
		<-d.loopDone
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info("Notification dispatcher stopped.")
		return nil
	case <-ctx.Done():
		d.loopCancel()
		return fmt.Errorf("stop dispatcher: %w", ctx.Err())
	}
}

type Stats struct {
	Queued   int `json:"queued"`
	InFlight int `json:"in_flight"`
}

func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	queued := len(d.queue)
	d.mu.Unlock()
	return Stats{Queued: queued, InFlight: int(d.running.Load())}
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) loop() {
	defer close(d.loopDone)

	for {
		d.mu.Lock()
		for len(d.queue) == 0 {
			if d.closed {
				d.mu.Unlock()
				return
			}
			d.mu.Unlock()
			select {
			case <-d.wake:
			case <-d.loopCtx.Done():
				return
			}
			d.mu.Lock()
		}
		d.mu.Unlock()

		// the head is only popped once a slot is free, so starts follow submission order
		if err := d.sem.Acquire(d.loopCtx, 1); err != nil {
			d.failQueued(models.ErrDispatcherClosed)
			return
		}

		d.mu.Lock()
		t := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()

		d.inflight.Add(1)
		d.running.Add(1)
		go d.run(t)
	}
}

func (d *Dispatcher) run(t *task) {
	defer d.inflight.Done()
	defer d.sem.Release(1)
	defer d.running.Add(-1)

	ctx, span := d.tracer.Start(d.baseCtx, "dispatcher.deliver", trace.WithAttributes(
		attribute.String("job.id", t.result.JobID.String()),
		attribute.String("notification.type", t.job.Type),
		attribute.Int64("notification.recipient_id", int64(t.job.RecipientID)),
	))
	defer span.End()

	if d.opts.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.WriteTimeout)
		defer cancel()
	}

	n, err := d.deliver(ctx, t.job)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		d.log.Warn("notification delivery failed",
			"job_id", t.result.JobID, "type", t.job.Type, "recipient_id", t.job.RecipientID, "error", err)
	}
	t.result.resolve(n, err)
}

func (d *Dispatcher) deliver(ctx context.Context, job models.NotificationJob) (n *models.Notification, err error) {
	defer func() {
		if r := recover(); r != nil {
			n = nil
			err = fmt.Errorf("%w: panic: %v", models.ErrDispatchFailure, r)
		}
	}()

	n, err = d.sink.Create(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrDispatchFailure, err)
	}
	return n, nil
}

func (d *Dispatcher) failQueued(err error) {
	d.mu.Lock()
	pending := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, t := range pending {
		t.result.resolve(nil, err)
	}
}

// Result is the pending outcome of one enqueued job.
type Result struct {
	JobID uuid.UUID

	done         chan struct{}
	notification *models.Notification
	err          error
}

func newResult() *Result {
	return &Result{JobID: uuid.New(), done: make(chan struct{})}
}

func (r *Result) resolve(n *models.Notification, err error) {
	r.notification = n
	r.err = err
	close(r.done)
}

// Done is closed once the job has been processed.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the job is processed or ctx ends.
func (r *Result) Wait(ctx context.Context) (*models.Notification, error) {
	select {
	case <-r.done:
		return r.notification, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Err reports the job error once Done is closed, nil before.
func (r *Result) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}
