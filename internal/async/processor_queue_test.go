package async

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgelunams/contratospoc/constants"
	"github.com/jorgelunams/contratospoc/internal/pipeline"
)

type countingProcessor struct {
	calls   atomic.Int32
	release chan struct{}
}

func (c *countingProcessor) Process(_ context.Context, ev pipeline.Event) pipeline.Result {
	if c.release != nil {
		<-c.release
	}
	c.calls.Add(1)
	return pipeline.Result{Status: constants.StatusSuccess, EventID: ev.ID, ContractID: "1"}
}

func TestQueueProcessesEveryJob(t *testing.T) {
	proc := &countingProcessor{}
	var mu sync.Mutex
	seen := map[string]constants.RunStatus{}
	q := NewProcessorQueue(proc, nil, WithWorkers(3), WithQueueSize(4), WithResultHook(func(j Job, r pipeline.Result) {
		mu.Lock()
		defer mu.Unlock()
		seen[j.Event.ID] = r.Status
	}))

	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, id := range ids {
		require.NoError(t, q.Enqueue(context.Background(), Job{Event: pipeline.Event{ID: id}, Source: "test"}))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.Equal(t, int32(len(ids)), proc.calls.Load())
	assert.Equal(t, Stats{Succeeded: int64(len(ids))}, q.Stats())
	assert.Len(t, seen, len(ids))
	for _, id := range ids {
		assert.Equal(t, constants.StatusSuccess, seen[id])
	}
}

func TestEnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&countingProcessor{}, nil, WithWorkers(1))
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{Event: pipeline.Event{ID: "late"}})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestEnqueueHonoursContextWhenFull(t *testing.T) {
	proc := &countingProcessor{release: make(chan struct{})}
	q := NewProcessorQueue(proc, nil, WithWorkers(1), WithQueueSize(1))

	// one job held by the worker, one filling the buffer
	require.NoError(t, q.Enqueue(context.Background(), Job{Event: pipeline.Event{ID: "1"}}))
	require.Eventually(t, func() bool { return q.Stats().Pending == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), Job{Event: pipeline.Event{ID: "2"}}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, Job{Event: pipeline.Event{ID: "3"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(proc.release)
	q.Shutdown(context.Background())
	assert.Equal(t, int32(2), proc.calls.Load())
}

type verdictProcessor map[string]pipeline.Result

func (v verdictProcessor) Process(_ context.Context, ev pipeline.Event) pipeline.Result {
	return v[ev.ID]
}

func TestStatsCountOutcomes(t *testing.T) {
	proc := verdictProcessor{
		"ok":   {Status: constants.StatusSuccess, ContractID: "9"},
		"dup":  {Status: constants.StatusSkipped, Reason: "already processed"},
		"bad1": {Status: constants.StatusError, Reason: "extraction failed"},
		"bad2": {Status: constants.StatusError, Reason: "semantic extraction failed"},
	}
	q := NewProcessorQueue(proc, nil, WithWorkers(2))
	for id := range proc {
		require.NoError(t, q.Enqueue(context.Background(), Job{Event: pipeline.Event{ID: id}, Source: SourceHTTP}))
	}
	q.Shutdown(context.Background())

	assert.Equal(t, Stats{Succeeded: 1, Skipped: 1, Failed: 2}, q.Stats())
}
