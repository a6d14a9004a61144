package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docrouter/constants"
	"github.com/joseph-ayodele/docrouter/internal/async"
	"github.com/joseph-ayodele/docrouter/internal/common"
	"github.com/joseph-ayodele/docrouter/internal/entity"
	"github.com/joseph-ayodele/docrouter/internal/ingest"
	"github.com/joseph-ayodele/docrouter/internal/utils"
)

func newProcessCmd() *cobra.Command {
	var (
		threadID    string
		chain       bool
		showContext bool
		dir         string
		workers     int
	)
	cmd := &cobra.Command{
		Use:   "process [inputs...]",
		Short: "Classify and extract one or more inputs",
		Long: `Process each input through classification and extraction and print the result.

An input is a file path or "-" for stdin. PDF paths are handed to the document
handler as references; other files are read and processed as content.

Examples:
  # One email, new thread
  docrouter process testdata/rfq.eml

  # A follow-up on the same thread
  docrouter process --chain rfq.eml complaint.eml --show-context

  # From stdin
  cat invoice.json | docrouter process -

  # A whole directory, four at a time
  docrouter process --dir inbox/ --workers 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir != "" {
				found, stats, err := ingest.ScanDirectory(dir, nil, true)
				if err != nil {
					return common.NewAppError("INPUT_ERROR", "scan "+dir, err)
				}
				slog.Debug("process.scan", "dir", dir, "scanned", stats.Scanned, "matched", stats.Matched)
				args = append(args, found...)
			}
			if len(args) == 0 {
				return common.InvalidArgumentError("at least one input or --dir is required")
			}
			a, err := loadApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			var last string
			if workers > 1 && !chain {
				last, err = a.processParallel(cmd.Context(), args, threadID, workers, cmd.InOrStdin(), cmd.OutOrStdout())
			} else {
				last, err = a.processInputs(cmd.Context(), args, threadID, chain, cmd.InOrStdin(), cmd.OutOrStdout())
			}
			if err != nil {
				return err
			}
			if showContext && last != "" {
				return a.printContext(cmd.Context(), last, cmd.OutOrStdout())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "thread id to log under (default: a new thread per input)")
	cmd.Flags().BoolVar(&chain, "chain", false, "forward the returned thread id from one input to the next")
	cmd.Flags().BoolVar(&showContext, "show-context", false, "print the thread context after the last input")
	cmd.Flags().StringVar(&dir, "dir", "", "also process every pdf, json, eml, and txt file under this directory")
	cmd.Flags().IntVar(&workers, "workers", 1, "process independent inputs concurrently (ignored with --chain)")
	return cmd
}

// processInputs runs every input and returns the thread id of the last result.
func (a *app) processInputs(ctx context.Context, inputs []string, threadID string, chain bool, stdin io.Reader, out io.Writer) (string, error) {
	var last string
	for _, in := range inputs {
		content, err := readInput(in, stdin)
		if err != nil {
			return last, err
		}
		res := a.dispatcher.Process(ctx, content, threadID)
		last = res.ThreadID()
		if chain {
			threadID = last
		}
		if err := printResult(out, in, res); err != nil {
			return last, err
		}
	}
	return last, nil
}

// processParallel reads every input up front, routes them on a worker pool, and prints
// results in input order.
func (a *app) processParallel(ctx context.Context, inputs []string, threadID string, workers int, stdin io.Reader, out io.Writer) (string, error) {
	jobs := make([]async.Job, 0, len(inputs))
	for _, in := range inputs {
		content, err := readInput(in, stdin)
		if err != nil {
			return "", err
		}
		jobs = append(jobs, async.Job{Label: in, Content: content, ThreadID: threadID})
	}

	var last string
	pool := async.NewPool(a.dispatcher, a.logger, async.WithWorkers(workers))
	for _, o := range pool.Run(ctx, jobs) {
		if o.Result == nil {
			return last, ctx.Err()
		}
		last = o.Result.ThreadID()
		if err := printResult(out, o.Job.Label, o.Result); err != nil {
			return last, err
		}
	}
	return last, nil
}

// readInput returns the content to route for one input argument.
func readInput(arg string, stdin io.Reader) (string, error) {
	if arg == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", common.WrapError(err, "read stdin")
		}
		return string(b), nil
	}
	if constants.IsDocumentExt(filepath.Ext(arg)) {
		return arg, nil
	}
	b, err := os.ReadFile(arg)
	if err != nil {
		return "", common.NewAppError("INPUT_ERROR", "read "+arg, err)
	}
	return string(b), nil
}

func printResult(w io.Writer, input string, res entity.Result) error {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return common.WrapError(err, "encode result")
	}
	_, err = fmt.Fprintf(w, "== %s\n%s\n", input, b)
	return err
}

func (a *app) printContext(ctx context.Context, threadID string, w io.Writer) error {
	recs, err := a.store.Context(ctx, threadID)
	if err != nil {
		return err
	}
	items := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		items = append(items, utils.RecordToMap(r))
	}
	b, err := json.MarshalIndent(map[string]any{"thread_id": threadID, "records": items}, "", "  ")
	if err != nil {
		return common.WrapError(err, "encode context")
	}
	_, err = fmt.Fprintf(w, "== context\n%s\n", b)
	return err
}
