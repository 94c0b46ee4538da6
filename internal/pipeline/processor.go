// Package pipeline drives one storage event through extraction, semantic
// inference, aggregate building and persistence.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"time"

	"github.com/jorgelunams/contratospoc/constants"
	"github.com/jorgelunams/contratospoc/internal/builder"
	"github.com/jorgelunams/contratospoc/internal/common"
	"github.com/jorgelunams/contratospoc/internal/dedup"
	"github.com/jorgelunams/contratospoc/internal/entity"
	"github.com/jorgelunams/contratospoc/internal/extract"
	"github.com/jorgelunams/contratospoc/internal/repository"
)

// Result is reported for every event, whatever happened to it.
type Result struct {
	Status     constants.RunStatus   `json:"status"`
	EventID    string                `json:"event_id"`
	ContractID string                `json:"contract_id,omitempty"`
	Reason     string                `json:"reason,omitempty"`
	State      constants.State       `json:"-"`
	Report     *entity.PersistReport `json:"-"`
}

// IntermediateStore receives the page-text bundle next to the document.
type IntermediateStore interface {
	Put(ctx context.Context, container, name string, data []byte, contentType string) error
}

// Signer issues a time-limited read URL for a document.
type Signer interface {
	PresignedURL(ctx context.Context, container, name string) (string, error)
}

// Processor runs events one at a time per call; it holds no per-event state
// and is safe for concurrent use.
type Processor struct {
	markers   dedup.MarkerStore
	pages     extract.PageExtractor
	semantics extract.SemanticExtractor
	builder   *builder.Builder
	repo      repository.ContractRepository
	logger    *slog.Logger

	intermediate IntermediateStore
	signer       Signer
}

type Option func(*Processor)

// WithIntermediateStore uploads "<name>.json" after extraction.
func WithIntermediateStore(s IntermediateStore) Option {
	return func(p *Processor) { p.intermediate = s }
}

// WithSigner replaces the document URL with a presigned one before extraction.
func WithSigner(s Signer) Option {
	return func(p *Processor) { p.signer = s }
}

func New(
	markers dedup.MarkerStore,
	pages extract.PageExtractor,
	semantics extract.SemanticExtractor,
	b *builder.Builder,
	repo repository.ContractRepository,
	logger *slog.Logger,
	opts ...Option,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if b == nil {
		b = builder.New(nil, logger)
	}
	p := &Processor{
		markers:   markers,
		pages:     pages,
		semantics: semantics,
		builder:   b,
		repo:      repo,
		logger:    logger,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// run tracks the state of one event.
type run struct {
	ev    Event
	state constants.State
	log   *slog.Logger
	start time.Time
}

func (r *run) advance(to constants.State) {
	if r.state.Terminal() {
		r.log.Warn("pipeline.transition_ignored", "from", r.state, "to", to)
		return
	}
	r.log.Debug("pipeline.transition", "from", r.state, "to", to)
	r.state = to
}

func (r *run) skip(reason string) Result {
	r.advance(constants.StateSkipped)
	r.log.Info("pipeline.skip", "reason", reason)
	return Result{Status: constants.StatusSkipped, EventID: r.ev.ID, Reason: reason, State: r.state}
}

func (r *run) fail(reason string, err error) Result {
	from := r.state
	r.advance(constants.StateFailed)
	r.log.Error("pipeline.failed", "at", from, "reason", reason, "error", err, "elapsed", time.Since(r.start))
	return Result{Status: constants.StatusError, EventID: r.ev.ID, Reason: reason, State: r.state}
}

// Process never returns an error; every outcome is folded into the Result.
func (p *Processor) Process(ctx context.Context, ev Event) (res Result) {
	ctx = common.WithEventID(ctx, ev.ID)
	r := &run{ev: ev, state: constants.StateReceived, log: common.LoggerFrom(ctx, p.logger), start: time.Now()}
	r.log.Info("pipeline.received", "subject", ev.Subject, "event_type", ev.EventType)

	defer func() {
		if rec := recover(); rec != nil {
			res = r.fail(fmt.Sprintf("internal error: %v", rec), nil)
		}
	}()

	if ev.FromProcessedContainer() {
		return r.skip(constants.ReasonProcessedContainer)
	}
	done, err := p.markers.IsProcessed(ctx, ev.ID)
	if err != nil {
		return r.fail(constants.ReasonMarkerFailed, err)
	}
	if done {
		return r.skip(constants.ReasonAlreadyProcessed)
	}
	if ev.EventType != constants.EventTypeBlobCreated {
		return r.skip(constants.ReasonNotBlobEvent)
	}
	doc, err := ParseBlobURL(ev.Data.URL)
	if err != nil {
		return r.fail(err.Error(), err)
	}
	if !constants.IsDocument(doc.Name) {
		return r.skip(constants.ReasonNotPDF)
	}
	r.log = r.log.With("container", doc.Container, "blob", doc.Path)
	r.advance(constants.StateFiltered)

	if err := p.markers.Claim(ctx, ev.ID); err != nil {
		if errors.Is(err, common.ErrAlreadyProcessed) {
			return r.skip(constants.ReasonAlreadyProcessed)
		}
		return r.fail(constants.ReasonMarkerFailed, err)
	}
	r.advance(constants.StateDeduplicated)

	if p.signer != nil {
		if u, err := p.signer.PresignedURL(ctx, doc.Container, doc.Path); err != nil {
			r.log.Warn("pipeline.presign.failed", "error", err)
		} else {
			doc.URL = u
		}
	}

	bundle, err := p.pages.ExtractPages(ctx, doc)
	if err != nil || bundle.IsEmpty() {
		return r.fail(constants.ReasonExtractionFailed, err)
	}
	r.advance(constants.StateExtracted)
	p.uploadIntermediate(ctx, r.log, doc, bundle)

	raw, err := p.semantics.InferContractSemantics(ctx, bundle)
	if err != nil || raw == "" {
		return r.fail(constants.ReasonSemanticFailed, err)
	}
	root, err := reduce(raw, r.log)
	if err != nil {
		return r.fail(err.Error(), err)
	}
	r.advance(constants.StateSemanticsParsed)

	agg, err := p.builder.Build(ctx, root)
	if err != nil {
		return r.fail(err.Error(), err)
	}
	r.log = r.log.With("correlation_id", agg.CorrelationID)
	r.advance(constants.StateNormalized)

	report, err := p.repo.Save(common.WithCorrelationID(ctx, agg.CorrelationID), agg)
	if err != nil {
		return r.fail(fmt.Sprintf("%s: %v", constants.ReasonDatabasePrefix, err), err)
	}
	r.advance(constants.StatePersisted)

	id := strconv.FormatInt(report.ContractID, 10)
	r.advance(constants.StateCompleted)
	r.log.Info("pipeline.completed",
		"contract_id", id,
		"fines", entity.Count(report.Fines, entity.ItemInserted),
		"entities", entity.Count(report.Entities, entity.ItemInserted),
		"elapsed", time.Since(r.start),
	)
	return Result{Status: constants.StatusSuccess, EventID: ev.ID, ContractID: id, State: r.state, Report: report}
}

func (p *Processor) uploadIntermediate(ctx context.Context, log *slog.Logger, doc extract.Document, bundle extract.PageTextBundle) {
	if p.intermediate == nil {
		return
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		log.Warn("pipeline.intermediate.encode_failed", "error", err)
		return
	}
	name := constants.IntermediateName(doc.Path)
	if err := p.intermediate.Put(ctx, doc.Container, name, data, "application/json"); err != nil {
		log.Warn("pipeline.intermediate.upload_failed", "name", path.Join(doc.Container, name), "error", err)
		return
	}
	log.Debug("pipeline.intermediate.uploaded", "name", path.Join(doc.Container, name))
}
