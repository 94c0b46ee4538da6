package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"time"
)

// BlobOpener streams a stored object.
type BlobOpener interface {
	Open(ctx context.Context, container, name string) (io.ReadCloser, error)
}

// PageReader turns a local document into per-page lines.
type PageReader interface {
	Pages(ctx context.Context, filePath string) ([][]string, error)
}

// OCRAdapter downloads the document to a temporary file and hands it to a
// local PageReader.
type OCRAdapter struct {
	blobs   BlobOpener
	reader  PageReader
	tempDir string
	logger  *slog.Logger
}

func NewOCRAdapter(blobs BlobOpener, reader PageReader, tempDir string, logger *slog.Logger) *OCRAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRAdapter{blobs: blobs, reader: reader, tempDir: tempDir, logger: logger}
}

func (a *OCRAdapter) ExtractPages(ctx context.Context, doc Document) (PageTextBundle, error) {
	start := time.Now()
	local, cleanup, err := a.download(ctx, doc)
	if err != nil {
		a.logger.Error("extract.download.failed", "container", doc.Container, "blob", doc.Path, "error", err)
		return PageTextBundle{}, err
	}
	defer cleanup()

	pages, err := a.reader.Pages(ctx, local)
	if err != nil {
		a.logger.Error("extract.pages.failed", "blob", doc.Path, "error", err)
		return PageTextBundle{}, err
	}
	bundle := NewBundle(pages...)
	a.logger.Info("extract.pages.ok",
		"blob", doc.Path,
		"pages", len(bundle.Pages),
		"lines", bundle.Lines(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return bundle, nil
}

func (a *OCRAdapter) download(ctx context.Context, doc Document) (string, func(), error) {
	rc, err := a.blobs.Open(ctx, doc.Container, doc.Path)
	if err != nil {
		return "", nil, fmt.Errorf("open blob: %w", err)
	}
	defer rc.Close()

	f, err := os.CreateTemp(a.tempDir, "contract-*"+path.Ext(doc.Name))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("copy blob: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}
