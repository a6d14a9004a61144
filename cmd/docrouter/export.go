package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docrouter/internal/common"
)

func newExportCmd() *cobra.Command {
	var (
		inputs   []string
		threadID string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Process inputs on one thread and write the thread as XLSX",
		Long: `Process every --input on a single thread, then write that thread's interaction
log as a spreadsheet. With a sqlite store and no inputs, --thread exports an existing thread.

Examples:
  docrouter export --input rfq.eml --input complaint.eml --out thread.xlsx`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(inputs) == 0 && threadID == "" {
				return common.InvalidArgumentError("--input or --thread is required")
			}
			a, err := loadApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			return a.exportThread(cmd.Context(), inputs, threadID, out, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringArrayVar(&inputs, "input", nil, "input file path or - for stdin (repeatable)")
	cmd.Flags().StringVar(&threadID, "thread", "", "thread id to continue or export")
	cmd.Flags().StringVar(&out, "out", "thread.xlsx", "output workbook path")
	return cmd
}

func (a *app) exportThread(ctx context.Context, inputs []string, threadID, out string, stdin io.Reader, w io.Writer) error {
	if len(inputs) > 0 {
		last, err := a.processInputs(ctx, inputs, threadID, true, stdin, w)
		if err != nil {
			return err
		}
		threadID = last
	}
	data, err := a.exporter.ExportThreadXLSX(ctx, threadID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return common.WrapError(err, "write "+out)
	}
	a.logger.Info("export.written", "thread_id", threadID, "path", out, "bytes", len(data))
	return nil
}
