// Package extract pulls text out of uploaded PDF files. It tries a direct
// text-layer pass first and falls back to rasterize-and-OCR for scanned
// documents.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

// Result summarizes one extraction.
type Result struct {
	Text     string
	Pages    int
	Method   string // "pdf-text" | "pdf-ocr"
	Duration time.Duration
	Warnings []string
}

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit
	MaxLogStderr  int    // bytes of tool stderr echoed into logs, default 8KB
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
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: newExecRunner(logger, cfg.MaxLogStderr), logger: logger}
}

// Extract runs the text-layer pass and, when that yields nothing usable,
// the OCR fallback. It fails only when both methods come up empty.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	e.logger.Debug("starting pdf extraction", "path", path)

	var warnings []string

	text, pages, err := e.pdfToText(ctx, path)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("pdftotext: %v", err))
		e.logger.Warn("text-layer extraction failed, falling back to ocr", "path", path, "error", err)
	} else if strings.TrimSpace(text) == "" {
		warnings = append(warnings, "pdftotext produced no text")
		e.logger.Warn("text-layer extraction empty, falling back to ocr", "path", path)
	} else {
		return Result{
			Text:     text,
			Pages:    pages,
			Method:   "pdf-text",
			Duration: time.Since(start),
			Warnings: warnings,
		}, nil
	}

	if ctx.Err() != nil {
		return Result{Warnings: warnings}, ctx.Err()
	}

	text, pages, ocrWarns, err := e.pdfToOCR(ctx, path)
	warnings = append(warnings, ocrWarns...)
	if err != nil {
		return Result{Warnings: warnings}, fmt.Errorf("could not extract any text from %s: %w", filepath.Base(path), err)
	}

	return Result{
		Text:     text,
		Pages:    pages,
		Method:   "pdf-ocr",
		Duration: time.Since(start),
		Warnings: warnings,
	}, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (string, int, error) {
	out, stderr, err := e.runner.Run(ctx, e.cfg.Pdftotext,
		"-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(stderr)))
	}
	// pdftotext separates pages with form feeds.
	text := string(out)
	return text, 1 + strings.Count(text, "\f"), nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "fa-ocr-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, ocrErr := e.tesseractOCR(ctx, img)
		if ocrErr != nil {
			warns = append(warns, ocrErr.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", 0, warns, fmt.Errorf("ocr produced no text")
	}
	return b.String(), len(matches), warns, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, imgPath string) (string, error) {
	// tesseract <img> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, imgPath, "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		return "", fmt.Errorf("tesseract %s: %w: %s", filepath.Base(imgPath), err, strings.TrimSpace(string(errb)))
	}
	return string(out), nil
}
