package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docrouter/internal/memory"
	"github.com/joseph-ayodele/docrouter/internal/utils"
)

const (
	SheetName = "Thread"
	// excel refuses cells longer than 32767 characters
	maxCellRunes = 32000
)

var Headers = []string{
	"Timestamp",
	"Source",
	"Input Type",
	"Intent",
	"Extracted Values",
}

// Service produces XLSX bytes for a thread's interaction history.
type Service struct {
	store  memory.Store
	logger *slog.Logger
}

func NewService(store memory.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportThreadXLSX returns a workbook with one row per record, in log order.
// An unknown thread yields a header-only workbook.
func (s *Service) ExportThreadXLSX(ctx context.Context, threadID string) ([]byte, error) {
	start := time.Now()

	recs, err := s.store.Context(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}

		values, err := json.Marshal(r.ExtractedValues)
		if err != nil {
			values = []byte(fmt.Sprint(r.ExtractedValues))
		}

		write(1, r.Timestamp.UTC().Format(time.RFC3339Nano))
		write(2, r.Source)
		write(3, r.InputType)
		write(4, r.Intent)
		write(5, utils.TruncateRunes(string(values), maxCellRunes))
		row++
	}

	_ = f.SetColWidth(SheetName, "A", "A", 32) // timestamp
	_ = f.SetColWidth(SheetName, "B", "C", 18)
	_ = f.SetColWidth(SheetName, "D", "D", 22)
	_ = f.SetColWidth(SheetName, "E", "E", 80)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"thread_id", threadID,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
