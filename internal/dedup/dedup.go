// Package dedup records which events have already entered the pipeline.
//
// The marker is written before any work starts, so an event interrupted
// after marking is never retried. Runs are at most once per event id.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jorgelunams/contratospoc/constants"
	"github.com/jorgelunams/contratospoc/internal/common"
	"github.com/jorgelunams/contratospoc/internal/storage"
)

// MarkerStore claims event ids. Claim returns common.ErrAlreadyProcessed
// when the id was claimed before.
type MarkerStore interface {
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	Claim(ctx context.Context, eventID string) error
}

// ObjectStore is the subset of storage.Store the blob marker needs. Create
// must fail with storage.ErrExists when the object is already present.
type ObjectStore interface {
	Exists(ctx context.Context, container, name string) (bool, error)
	Create(ctx context.Context, container, name string, data []byte, contentType string) error
}

// BlobMarkers keeps one object per event id in a dedicated bucket.
type BlobMarkers struct {
	store  ObjectStore
	bucket string
	logger *slog.Logger
}

func NewBlobMarkers(store ObjectStore, bucket string, logger *slog.Logger) *BlobMarkers {
	if logger == nil {
		logger = slog.Default()
	}
	if bucket == "" {
		bucket = constants.ProcessedEventsContainer
	}
	return &BlobMarkers{store: store, bucket: bucket, logger: logger}
}

func (m *BlobMarkers) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	ok, err := m.store.Exists(ctx, m.bucket, eventID)
	if err != nil {
		return false, fmt.Errorf("check marker %s: %w", eventID, err)
	}
	return ok, nil
}

// Claim creates the marker with a create-if-absent write, so concurrent
// claims across processes have a single winner.
func (m *BlobMarkers) Claim(ctx context.Context, eventID string) error {
	err := m.store.Create(ctx, m.bucket, eventID, []byte(constants.ProcessedMarkerContent), "text/plain")
	if errors.Is(err, storage.ErrExists) {
		return fmt.Errorf("event %s: %w", eventID, common.ErrAlreadyProcessed)
	}
	if err != nil {
		return fmt.Errorf("write marker %s: %w", eventID, err)
	}
	m.logger.Debug("dedup.marker.written", "event_id", eventID, "bucket", m.bucket)
	return nil
}

// Memory is an in-process MarkerStore for tests and the local harness.
type Memory struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{seen: make(map[string]struct{})}
}

func (m *Memory) IsProcessed(_ context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[eventID]
	return ok, nil
}

func (m *Memory) Claim(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[eventID]; ok {
		return fmt.Errorf("event %s: %w", eventID, common.ErrAlreadyProcessed)
	}
	m.seen[eventID] = struct{}{}
	return nil
}
