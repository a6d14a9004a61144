// Command docrouter classifies documents and routes them to extraction handlers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docrouter",
		Short: "Classify documents and extract structured fields",
		Long: `docrouter detects the format of each input (PDF, JSON, email, text), asks the
configured LLM for its intent, and hands it to the matching extraction handler.
Every step is logged on a conversation thread.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "docrouter.yaml", "path to YAML config (optional)")
	root.AddCommand(newProcessCmd(), newServeCmd(), newExportCmd())
	return root
}
