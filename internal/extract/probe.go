package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFProbe counts pages with pdfcpu; it never shells out.
type PDFProbe struct {
	logger *slog.Logger
}

func NewPDFProbe(logger *slog.Logger) *PDFProbe {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFProbe{logger: logger}
}

func (p *PDFProbe) PageCount(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		p.logger.Debug("extract.probe.failed", "path", path, "error", err)
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	return pdfCtx.PageCount, nil
}
