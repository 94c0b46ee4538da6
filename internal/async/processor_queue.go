package async

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jorgelunams/contratospoc/constants"
	"github.com/jorgelunams/contratospoc/internal/pipeline"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
)

// Stats counts runs by outcome since the queue started.
type Stats struct {
	Pending   int   `json:"pending"`
	Succeeded int64 `json:"succeeded"`
	Skipped   int64 `json:"skipped"`
	Failed    int64 `json:"failed"`
}

// ProcessorQueue hands each event to one of a fixed set of workers, which
// runs it through the pipeline start to finish.
type ProcessorQueue struct {
	proc     EventProcessor
	logger   *slog.Logger
	workers  int
	size     int
	timeout  time.Duration
	onResult func(Job, pipeline.Result)

	jobs chan Job
	wg   sync.WaitGroup

	// guards closing jobs against concurrent Enqueue
	mu     sync.RWMutex
	closed bool

	succeeded, skipped, failed atomic.Int64
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.size = n
		}
	}
}

// WithProcessTimeout bounds a single run. Zero leaves runs unbounded.
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithResultHook is called by the worker after each run.
func WithResultHook(fn func(Job, pipeline.Result)) Option {
	return func(q *ProcessorQueue) { q.onResult = fn }
}

// NewProcessorQueue starts the workers right away.
func NewProcessorQueue(proc EventProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: defaultWorkers,
		size:    defaultQueueSize,
	}
	for _, o := range opts {
		o(q)
	}
	q.jobs = make(chan Job, q.size)

	q.wg.Add(q.workers)
	for i := 1; i <= q.workers; i++ {
		go q.work(i)
	}
	q.logger.Info("queue.started", "workers", q.workers, "size", q.size, "process_timeout", q.timeout)
	return q
}

func (q *ProcessorQueue) work(id int) {
	defer q.wg.Done()
	for job := range q.jobs {
		q.handle(id, job)
	}
	q.logger.Debug("queue.worker.stopped", "worker_id", id)
}

func (q *ProcessorQueue) handle(worker int, job Job) {
	ctx := context.Background()
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	waited := time.Since(job.SubmittedAt)
	res := q.proc.Process(ctx, job.Event)

	log := q.logger.With(
		"worker_id", worker,
		"event_id", job.Event.ID,
		"source", job.Source,
		"wait_ms", waited.Milliseconds(),
	)
	switch res.Status {
	case constants.StatusError:
		q.failed.Add(1)
		log.Error("queue.run.failed", "reason", res.Reason)
	case constants.StatusSkipped:
		q.skipped.Add(1)
		log.Info("queue.run.skipped", "reason", res.Reason)
	default:
		q.succeeded.Add(1)
		log.Info("queue.run.ok", "contract_id", res.ContractID)
	}
	if q.onResult != nil {
		q.onResult(job, res)
	}
}

// Enqueue waits for buffer space while ctx allows. It fails with
// ErrQueueClosed once Shutdown has begun.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		return nil
	default:
	}
	q.logger.Warn("queue.full", "event_id", job.Event.ID, "size", q.size)
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ProcessorQueue) Stats() Stats {
	return Stats{
		Pending:   len(q.jobs),
		Succeeded: q.succeeded.Load(),
		Skipped:   q.skipped.Load(),
		Failed:    q.failed.Load(),
	}
}

// Shutdown stops intake and waits for queued jobs to drain or ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		q.logger.Info("queue.drained", "stats", q.Stats())
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted", "pending", len(q.jobs))
	}
}
