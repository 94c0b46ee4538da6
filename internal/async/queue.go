// Package async runs pipeline events on a bounded pool of workers.
package async

import (
	"context"
	"errors"
	"time"

	"github.com/jorgelunams/contratospoc/internal/pipeline"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Intake surfaces recorded on a Job.
const (
	SourceHTTP = "http"
	SourceNSQ  = "nsq"
)

// Job is one event waiting for a worker.
type Job struct {
	Event       pipeline.Event
	Source      string
	SubmittedAt time.Time
}

// Queue is what the intake surfaces feed.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// EventProcessor is satisfied by *pipeline.Processor.
type EventProcessor interface {
	Process(ctx context.Context, ev pipeline.Event) pipeline.Result
}
