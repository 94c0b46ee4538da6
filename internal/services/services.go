// Package services assembles the collaborators shared by the daemon and
// the CLI from one Config.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jorgelunams/contratospoc/internal/builder"
	"github.com/jorgelunams/contratospoc/internal/canon"
	"github.com/jorgelunams/contratospoc/internal/common"
	"github.com/jorgelunams/contratospoc/internal/dedup"
	"github.com/jorgelunams/contratospoc/internal/export"
	"github.com/jorgelunams/contratospoc/internal/extract"
	"github.com/jorgelunams/contratospoc/internal/llm/gemini"
	"github.com/jorgelunams/contratospoc/internal/llm/openai"
	"github.com/jorgelunams/contratospoc/internal/ocr"
	"github.com/jorgelunams/contratospoc/internal/pipeline"
	"github.com/jorgelunams/contratospoc/internal/repository"
	"github.com/jorgelunams/contratospoc/internal/storage"
)

const healthTimeout = 3 * time.Second

// App holds the wired collaborators. Close releases them.
type App struct {
	DB        *repository.DB
	Store     *storage.Store
	Repo      repository.ContractRepository
	Processor *pipeline.Processor
	Export    *export.Service

	logger  *slog.Logger
	closers []func() error
}

type options struct {
	memoryMarkers bool
	skipStorage   bool
}

type Option func(*options)

// WithMemoryMarkers keeps dedup markers in process memory. Used by the
// one-shot CLI so a debug run never claims a real event id.
func WithMemoryMarkers() Option {
	return func(o *options) { o.memoryMarkers = true }
}

// DatabaseOnly skips storage, OCR and LLM wiring; Processor stays nil.
func DatabaseOnly() Option {
	return func(o *options) { o.skipStorage = true }
}

// OpenDB opens the database and applies migrations when configured to.
func OpenDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repository.DB, error) {
	db, err := repository.Open(ctx, repository.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "open database", err)
	}
	if cfg.AutoMigrate {
		if err := repository.Migrate(db, cfg.DSN, logger); err != nil {
			db.Close(logger)
			return nil, common.NewAppError(common.CodeDatabase, "migrate", err)
		}
	}
	return db, nil
}

// Build wires everything from cfg.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts ...Option) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	app := &App{logger: logger}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	app.DB, err = OpenDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func() error { app.DB.Close(logger); return nil })
	app.Repo = repository.NewContractRepository(app.DB, logger)
	app.Export = export.NewService(app.Repo, logger)

	if o.skipStorage {
		return app, nil
	}

	app.Store, err = storage.New(storage.Config{
		Endpoint:   cfg.Storage.Endpoint,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Region:     cfg.Storage.Region,
		UseSSL:     cfg.Storage.UseSSL,
		SignExpiry: cfg.Storage.SignExpiry,
	}, logger)
	if err != nil {
		return nil, common.NewAppError(common.CodeStorage, "create storage client", err)
	}

	var markers dedup.MarkerStore
	if o.memoryMarkers {
		markers = dedup.NewMemory()
	} else {
		if err := app.Store.EnsureBucket(ctx, cfg.Storage.MarkerBucket); err != nil {
			return nil, common.NewAppError(common.CodeStorage, "ensure marker bucket", err)
		}
		markers = dedup.NewBlobMarkers(app.Store, cfg.Storage.MarkerBucket, logger)
	}

	reader := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.Lang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)
	pages := extract.NewOCRAdapter(app.Store, reader, cfg.OCR.TempDir, logger)

	semantics, err := app.semanticExtractor(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	popts := []pipeline.Option{pipeline.WithSigner(app.Store)}
	if cfg.Storage.UploadIntermediate {
		popts = append(popts, pipeline.WithIntermediateStore(app.Store))
	}
	app.Processor = pipeline.New(markers, pages, semantics, builder.New(canon.Default(), logger), app.Repo, logger, popts...)

	logger.Info("services.ready",
		"db_driver", cfg.Database.Driver,
		"llm_provider", cfg.LLM.Provider,
		"storage", cfg.Storage.Endpoint,
		"memory_markers", o.memoryMarkers,
	)
	return app, nil
}

func (a *App) semanticExtractor(ctx context.Context, cfg common.LLMConfig) (extract.SemanticExtractor, error) {
	switch cfg.Provider {
	case "gemini":
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:         cfg.APIKey,
			Model:          cfg.Model,
			Temperature:    cfg.Temperature,
			ValidateSchema: cfg.ValidateSchema,
		}, a.logger)
		if err != nil {
			return nil, common.NewAppError(common.CodeLLM, "create gemini client", err)
		}
		a.closers = append(a.closers, c.Close)
		return c, nil
	case openai.ProviderAzure, openai.ProviderOpenAI, "":
		return openai.NewClient(openai.Config{
			Provider:            cfg.Provider,
			Endpoint:            cfg.Endpoint,
			APIKey:              cfg.APIKey,
			Model:               cfg.Model,
			APIVersion:          cfg.APIVersion,
			Temperature:         cfg.Temperature,
			MaxCompletionTokens: cfg.MaxCompletionTokens,
			Timeout:             cfg.Timeout,
			ValidateSchema:      cfg.ValidateSchema,
		}, a.logger), nil
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown llm provider %q", cfg.Provider), common.ErrInvalidInput)
	}
}

// Health pings the database.
func (a *App) Health(ctx context.Context) error {
	return repository.HealthCheck(ctx, a.DB, healthTimeout, a.logger)
}

// Close runs the closers in reverse order.
func (a *App) Close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("services.close", "error", err)
	}
}
