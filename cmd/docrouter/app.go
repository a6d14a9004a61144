package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/joseph-ayodele/docrouter/internal/classifier"
	"github.com/joseph-ayodele/docrouter/internal/common"
	"github.com/joseph-ayodele/docrouter/internal/export"
	"github.com/joseph-ayodele/docrouter/internal/extract"
	"github.com/joseph-ayodele/docrouter/internal/handlers"
	"github.com/joseph-ayodele/docrouter/internal/llm"
	"github.com/joseph-ayodele/docrouter/internal/llm/gemini"
	"github.com/joseph-ayodele/docrouter/internal/llm/openai"
	"github.com/joseph-ayodele/docrouter/internal/memory"
	"github.com/joseph-ayodele/docrouter/internal/pipeline"
	"github.com/joseph-ayodele/docrouter/internal/telemetry"
)

// app is the wired object graph shared by every subcommand.
type app struct {
	cfg        *common.Config
	logger     *slog.Logger
	store      memory.Store
	registry   *prometheus.Registry
	dispatcher *pipeline.Dispatcher
	exporter   *export.Service

	// remote serves gRPC and HTTP callers. Its document paths are confined to
	// server.document_root.
	remote *pipeline.Dispatcher

	closers []func(context.Context) error
}

func loadApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return buildApp(ctx, cfg, logger)
}

func buildApp(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	if cfg.Telemetry.Tracing {
		shutdown, err := telemetry.InitTracer(cfg.Telemetry.ServiceName, os.Stderr, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, shutdown)
	}

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(a.registry)

	switch cfg.Store.Driver {
	case "sqlite":
		s, err := memory.OpenSQLStore(ctx, cfg.Store.DSN, logger)
		if err != nil {
			return nil, err
		}
		a.store = s
		a.closers = append(a.closers, func(context.Context) error { return s.Close() })
	default:
		a.store = memory.NewMemoryStore(logger)
	}

	completer, err := newCompleter(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}
	gen := llm.NewAdapter(completer, llm.WithLogger(logger), llm.WithObserver(metrics))

	policy, err := pipeline.NewPolicy(cfg.Routing.TextEmailIntents)
	if err != nil {
		return nil, err
	}

	probe := extract.NewPDFProbe(logger)
	newClassifier := func(opts ...classifier.Option) *classifier.Classifier {
		opts = append([]classifier.Option{
			classifier.WithLogger(logger),
			classifier.WithMaxChars(cfg.Extract.MaxClassifierChars),
		}, opts...)
		return classifier.New(gen, a.store, opts...)
	}
	pdf := extract.NewPDFExtractor(extract.Config{Pdftotext: cfg.Extract.Pdftotext}, logger)
	doc := handlers.NewDocumentHandler(gen, a.store, pdf,
		handlers.WithLogger(logger),
		handlers.WithMaxChars(cfg.Extract.MaxDocumentChars),
	)
	hs := pipeline.Handlers{
		Email:    handlers.NewEmailHandler(gen, a.store, handlers.WithLogger(logger)),
		JSON:     handlers.NewJSONHandler(gen, a.store, handlers.WithLogger(logger)),
		Document: doc,
	}
	newDispatcher := func(cls *classifier.Classifier) *pipeline.Dispatcher {
		return pipeline.NewDispatcher(cls, hs, a.store,
			pipeline.WithPolicy(policy),
			pipeline.WithMetrics(metrics),
			pipeline.WithLogger(logger),
		)
	}
	a.dispatcher = newDispatcher(newClassifier(classifier.WithProbe(probe)))
	if root := cfg.Server.DocumentRoot; root != "" {
		a.remote = newDispatcher(newClassifier(classifier.WithProbe(probe), classifier.WithDocumentRoot(root)))
	} else {
		a.remote = newDispatcher(newClassifier())
	}
	a.exporter = export.NewService(a.store, logger)

	logger.Info("app.ready",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"store", cfg.Store.Driver,
		"document_root", cfg.Server.DocumentRoot,
		"tracing", cfg.Telemetry.Tracing,
	)
	return a, nil
}

func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("app.close", "error", err)
		}
	}
}

func newCompleter(cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger), nil
	case "gemini":
		return gemini.NewClient(gemini.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger), nil
	}
	return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown llm.provider %q", cfg.Provider), common.ErrInvalidInput)
}

func newLogger(cfg common.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("invalid log.level %q", cfg.Level), common.ErrInvalidInput)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("invalid log.format %q", cfg.Format), common.ErrInvalidInput)
}
