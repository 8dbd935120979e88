package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptRunner dispatches on the binary name so tests control each tool.
type scriptRunner struct {
	handlers map[string]func(args []string) (stdout []byte, err error)
}

func (r *scriptRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	h, ok := r.handlers[name]
	if !ok {
		return nil, nil, errors.New("unexpected binary: " + name)
	}
	out, err := h(args)
	if err != nil {
		return nil, []byte(err.Error()), err
	}
	return out, nil, nil
}

func newTestExtractor(handlers map[string]func([]string) ([]byte, error)) *Extractor {
	e := NewExtractor(Config{}, nil)
	e.runner = &scriptRunner{handlers: handlers}
	return e
}

func TestExtractTextLayer(t *testing.T) {
	e := newTestExtractor(map[string]func([]string) ([]byte, error){
		"pdftotext": func(args []string) ([]byte, error) {
			assert.Contains(t, args, "-layout")
			return []byte("page one\fpage two"), nil
		},
	})

	res, err := e.Extract(context.Background(), "/tmp/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf-text", res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Contains(t, res.Text, "page one")
	assert.Empty(t, res.Warnings)
}

func TestExtractFallsBackToOCR(t *testing.T) {
	e := newTestExtractor(map[string]func([]string) ([]byte, error){
		"pdftotext": func(args []string) ([]byte, error) {
			return []byte("   \n"), nil // text layer present but empty
		},
		"pdftoppm": func(args []string) ([]byte, error) {
			// Last arg is the page prefix; fake two rendered pages.
			prefix := args[len(args)-1]
			require.NoError(t, os.WriteFile(prefix+"-1.png", []byte("png"), 0o644))
			require.NoError(t, os.WriteFile(prefix+"-2.png", []byte("png"), 0o644))
			return nil, nil
		},
		"tesseract": func(args []string) ([]byte, error) {
			return []byte("ocr text from " + filepath.Base(args[0])), nil
		},
	})

	res, err := e.Extract(context.Background(), "/tmp/scanned.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Contains(t, res.Text, "ocr text from page-1.png")
	assert.Contains(t, res.Text, "\f", "page break marker preserved")
	assert.NotEmpty(t, res.Warnings, "fallback reason recorded")
}

func TestExtractFallsBackOnPrimaryError(t *testing.T) {
	e := newTestExtractor(map[string]func([]string) ([]byte, error){
		"pdftotext": func(args []string) ([]byte, error) {
			return nil, errors.New("damaged xref table")
		},
		"pdftoppm": func(args []string) ([]byte, error) {
			prefix := args[len(args)-1]
			require.NoError(t, os.WriteFile(prefix+"-1.png", []byte("png"), 0o644))
			return nil, nil
		},
		"tesseract": func(args []string) ([]byte, error) {
			return []byte("recovered text"), nil
		},
	})

	res, err := e.Extract(context.Background(), "/tmp/broken.pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, "recovered text", res.Text)
}

func TestExtractFailsWhenBothMethodsFail(t *testing.T) {
	e := newTestExtractor(map[string]func([]string) ([]byte, error){
		"pdftotext": func(args []string) ([]byte, error) {
			return nil, errors.New("not a pdf")
		},
		"pdftoppm": func(args []string) ([]byte, error) {
			return nil, errors.New("cannot rasterize")
		},
	})

	_, err := e.Extract(context.Background(), "/tmp/garbage.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not extract any text")
}

func TestExtractMaxPagesCapsOCR(t *testing.T) {
	e := NewExtractor(Config{MaxPages: 1}, nil)
	e.runner = &scriptRunner{handlers: map[string]func([]string) ([]byte, error){
		"pdftotext": func(args []string) ([]byte, error) { return nil, nil },
		"pdftoppm": func(args []string) ([]byte, error) {
			prefix := args[len(args)-1]
			for _, n := range []string{"-1", "-2", "-3"} {
				require.NoError(t, os.WriteFile(prefix+n+".png", []byte("png"), 0o644))
			}
			return nil, nil
		},
		"tesseract": func(args []string) ([]byte, error) {
			return []byte("x"), nil
		},
	}}

	res, err := e.Extract(context.Background(), "/tmp/long.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
}

func TestNewExtractorDefaults(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	assert.Equal(t, "pdftotext", e.cfg.Pdftotext)
	assert.Equal(t, "pdftoppm", e.cfg.Pdftoppm)
	assert.Equal(t, "tesseract", e.cfg.Tesseract)
	assert.Equal(t, "eng", e.cfg.TesseractLang)
	assert.Equal(t, 300, e.cfg.DPI)

	r, ok := e.runner.(execRunner)
	require.True(t, ok)
	assert.NotNil(t, r.logger)
	assert.Equal(t, 8<<10, r.maxLogStderr)
}

func TestExecRunnerCustomStderrCap(t *testing.T) {
	e := NewExtractor(Config{MaxLogStderr: 64}, nil)
	r, ok := e.runner.(execRunner)
	require.True(t, ok)
	assert.Equal(t, 64, r.maxLogStderr)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "lo...(truncated)", truncate("long stderr", 2))
}
