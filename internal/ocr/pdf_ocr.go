package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// rows of underscores or dashes tesseract reads off form boxes
var reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-]{3,}\s*$`)

func (e *Extractor) pdfToText(ctx context.Context, path string) ([][]string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix [-l N] <path> -
	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	out, err := e.exec(ctx, e.cfg.Pdftotext, append(args, path, "-")...)
	if err != nil {
		return nil, err
	}
	// A form-feed \f separates pages; pdftotext also ends the last page with one.
	raw := strings.Split(strings.TrimSuffix(string(out), "\f"), "\f")
	pages := make([][]string, 0, len(raw))
	for _, p := range raw {
		pages = append(pages, splitLines(p))
	}
	return pages, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) ([][]string, error) {
	tmpDir, err := os.MkdirTemp("", "contracts-pp-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("ocr.cleanup.failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	if _, err := e.exec(ctx, e.cfg.Pdftoppm, append(args, path, prefix)...); err != nil {
		return nil, err
	}

	// prefix-1.png, prefix-2.png, ... zero padded to the page count width
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no pages rendered")
	}

	pages := make([][]string, 0, len(matches))
	for _, img := range matches {
		txt, err := e.tesseractOCR(ctx, img)
		if err != nil {
			// keep page numbering stable
			e.logger.Warn("ocr.page.failed", "image", filepath.Base(img), "error", err)
			pages = append(pages, []string{})
			continue
		}
		pages = append(pages, splitLines(txt))
	}
	return pages, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang>
	out, err := e.exec(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		return "", err
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
