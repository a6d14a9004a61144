package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/docrouter/constants"
	"github.com/joseph-ayodele/docrouter/internal/common"
)

// ErrNoPages means the extractor produced no pages at all.
var ErrNoPages = errors.New("extract: document has no pages")

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
}

// PDFExtractor reads text layers with poppler's pdftotext.
type PDFExtractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*PDFExtractor)

func WithRunner(r Runner) Option {
	return func(e *PDFExtractor) {
		if r != nil {
			e.runner = r
		}
	}
}

func NewPDFExtractor(cfg Config, logger *slog.Logger, opts ...Option) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	e := &PDFExtractor{cfg: cfg, runner: ExecRunner{Logger: logger}, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *PDFExtractor) Extract(ctx context.Context, path string) (Document, error) {
	start := time.Now()
	doc := Document{Path: path, Method: "pdftotext"}

	if !constants.IsDocumentExt(filepath.Ext(path)) {
		return doc, fmt.Errorf("%w: unsupported extension %q", common.ErrInvalidInput, filepath.Ext(path))
	}
	st, err := os.Stat(path)
	if err != nil {
		return doc, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	if st.IsDir() {
		return doc, fmt.Errorf("%w: %s is a directory", common.ErrInvalidInput, path)
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		e.logger.Error("extract.pdftotext.failed", "path", path, "error", err, "stderr", truncate(string(errb), 1<<10))
		return doc, fmt.Errorf("pdftotext: %w", err)
	}

	doc.Pages = splitPages(string(out))
	doc.Duration = time.Since(start)
	if len(doc.Pages) == 0 {
		return doc, ErrNoPages
	}
	e.logger.Debug("extract.pdftotext.ok", "path", path, "pages", len(doc.Pages), "duration_ms", doc.Duration.Milliseconds())
	return doc, nil
}

// splitPages splits on form feed. pdftotext terminates every page with one, so a
// trailing empty segment is dropped.
func splitPages(text string) []string {
	if text == "" {
		return nil
	}
	pages := strings.Split(text, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
