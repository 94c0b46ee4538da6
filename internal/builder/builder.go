// Package builder turns a decoded semantic extraction result into a
// validated contract aggregate.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jorgelunams/contratospoc/constants"
	"github.com/jorgelunams/contratospoc/internal/canon"
	"github.com/jorgelunams/contratospoc/internal/common"
	"github.com/jorgelunams/contratospoc/internal/entity"
	"github.com/jorgelunams/contratospoc/internal/shape"
)

// SectionError names a required section that is missing or unusable.
type SectionError struct {
	Section string
	Cause   error
}

func (e *SectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("missing %s: %v", e.Section, e.Cause)
	}
	return "missing " + e.Section
}

func (e *SectionError) Unwrap() error { return e.Cause }

func (e *SectionError) Is(target error) bool { return target == common.ErrValidation }

// Builder is stateless apart from its clock and tables.
type Builder struct {
	canon  *canon.Canonicalizer
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Builder)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

func New(c *canon.Canonicalizer, logger *slog.Logger, opts ...Option) *Builder {
	if c == nil {
		c = canon.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &Builder{canon: c, now: time.Now, logger: logger}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build returns a complete aggregate or a *SectionError. No partial
// aggregate is ever returned.
func (b *Builder) Build(ctx context.Context, root shape.Value) (*entity.Aggregate, error) {
	log := common.LoggerFrom(ctx, b.logger)
	now := b.now()

	contractObj, err := b.section(root, constants.SectionContract, log)
	if err != nil {
		return nil, err
	}
	contract := b.contract(contractObj, now)

	companyObj, err := b.section(root, constants.SectionCompany, log)
	if err != nil {
		return nil, err
	}
	company := party(b.canon.Object(canon.Company, companyObj))

	providers, err := b.providers(root, log)
	if err != nil {
		return nil, err
	}

	agg := &entity.Aggregate{
		Contract:        contract,
		Company:         company,
		Providers:       providers,
		Representatives: b.representatives(shape.Lookup(root, constants.SectionRepresentatives, shape.Null), log),
		Fines:           b.fines(shape.Lookup(root, constants.SectionFines, shape.Null), log),
		Entities:        b.entities(shape.Lookup(root, constants.SectionEntities, shape.Null), log),
		CorrelationID:   CorrelationID(now),
		ProcessedAt:     now,
	}

	log.Info("builder.aggregate.ok",
		"correlation_id", agg.CorrelationID,
		"providers", len(agg.Providers),
		"representatives", len(agg.Representatives),
		"fines", len(agg.Fines),
		"entities", len(agg.Entities),
	)
	return agg, nil
}

// CorrelationID renders the observability id derived from t.
func CorrelationID(t time.Time) string {
	return "contrato_" + t.Format("20060102_150405")
}

func (b *Builder) section(root shape.Value, name string, log *slog.Logger) (*shape.Object, error) {
	v := shape.Lookup(root, name, shape.Null)
	if v.IsEmpty() {
		log.Warn("builder.section.missing", "section", name)
		return nil, &SectionError{Section: name}
	}
	obj, err := shape.AsObject(v, name, log)
	if err != nil {
		return nil, &SectionError{Section: name, Cause: err}
	}
	if obj.Len() == 0 {
		return nil, &SectionError{Section: name}
	}
	return obj, nil
}

// providers keeps every object when the section is a list. The first one
// must exist and be non-empty.
func (b *Builder) providers(root shape.Value, log *slog.Logger) ([]entity.Party, error) {
	if _, err := b.section(root, constants.SectionProviders, log); err != nil {
		return nil, err
	}
	objs, skipped := shape.Objects(shape.Lookup(root, constants.SectionProviders, shape.Null))
	if skipped > 0 {
		log.Warn("builder.providers.skipped_non_objects", "count", skipped)
	}
	out := make([]entity.Party, 0, len(objs))
	for _, o := range objs {
		if o.Len() == 0 {
			continue
		}
		out = append(out, party(b.canon.Object(canon.Company, o)))
	}
	return out, nil
}

func party(o *shape.Object) entity.Party {
	return entity.Party{
		Name:    o.Text("nombre"),
		TaxID:   o.Text("rut"),
		Address: o.Text("domicilio"),
	}
}
