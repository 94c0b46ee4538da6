package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/jorgelunams/contratospoc/constants"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "spa"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return NewExtractorWithRunner(cfg, execRunner{}, logger)
}

// NewExtractorWithRunner is NewExtractor with a custom command runner.
func NewExtractorWithRunner(cfg Config, r Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "spa"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: r, logger: logger}
}

// Pages returns the lines of each page of a PDF. Embedded text is used when
// present; scanned documents fall back to rasterize + tesseract.
func (e *Extractor) Pages(ctx context.Context, path string) ([][]string, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	if ext != constants.DocumentKind {
		e.logger.Error("ocr.unsupported_extension", "extension", ext)
		return nil, fmt.Errorf("unsupported extension: %q", ext)
	}

	method := "pdf-text"
	pages, err := e.pdfToText(ctx, path)
	if err != nil {
		return nil, err
	}
	if !hasText(pages) {
		method = "pdf-ocr"
		e.logger.Info("ocr.no_embedded_text", "path", path)
		if pages, err = e.pdfToOCR(ctx, path); err != nil {
			return nil, err
		}
	}
	e.logger.Debug("ocr.pages.ok",
		"path", path,
		"method", method,
		"pages", len(pages),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return pages, nil
}

// splitLines normalizes one page and drops blank lines.
func splitLines(page string) []string {
	lines := []string{}
	for _, ln := range strings.Split(Normalize(page), "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}

func hasText(pages [][]string) bool {
	for _, p := range pages {
		if len(p) > 0 {
			return true
		}
	}
	return false
}
