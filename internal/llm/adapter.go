package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joseph-ayodele/docrouter/internal/common"
)

const previewRunes = 500

// Adapter turns a provider Completer into a Generator.
type Adapter struct {
	completer Completer
	logger    *slog.Logger
	tracer    trace.Tracer
	observer  Observer
}

type AdapterOption func(*Adapter)

func WithLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) AdapterOption {
	return func(a *Adapter) {
		if t != nil {
			a.tracer = t
		}
	}
}

func WithObserver(o Observer) AdapterOption {
	return func(a *Adapter) { a.observer = o }
}

func NewAdapter(c Completer, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		completer: c,
		logger:    slog.Default(),
		tracer:    otel.Tracer("github.com/joseph-ayodele/docrouter/internal/llm"),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Generate sends one completion. In structured mode the answer is normalized to
// canonical JSON when possible and returned raw otherwise.
func (a *Adapter) Generate(ctx context.Context, instructions, content string, structured bool) (string, bool) {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	ctx, span := a.tracer.Start(ctx, "llm.generate", trace.WithAttributes(
		attribute.Bool("llm.structured", structured),
		attribute.Int("llm.content_len", len(content)),
	))
	defer span.End()

	if a.completer == nil {
		a.logger.Error("llm.generate.no_completer", "req_id", rid)
		a.observe(OutcomeError, 0)
		span.SetStatus(codes.Error, "no completer")
		return "", false
	}

	start := time.Now()
	a.logger.Info("llm.generate.start", "req_id", rid, "structured", structured, "content_len", len(content))

	text, err := a.completer.Complete(ctx, CompletionRequest{
		Prompt:          BuildPrompt(instructions, content, structured),
		Temperature:     Temperature,
		MaxOutputTokens: MaxOutputTokens,
	})
	elapsed := time.Since(start)
	if err != nil {
		outcome := OutcomeError
		if errors.Is(err, ErrBlocked) {
			outcome = OutcomeBlocked
			a.logger.Warn("llm.generate.blocked", "req_id", rid, "error", err, "elapsed_ms", elapsed.Milliseconds())
		} else {
			a.logger.Error("llm.generate.error", "req_id", rid, "error", err, "elapsed_ms", elapsed.Milliseconds())
		}
		a.observe(outcome, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return "", false
	}

	if !structured {
		a.logger.Info("llm.generate.ok", "req_id", rid, "bytes", len(text), "elapsed_ms", elapsed.Milliseconds())
		a.observe(OutcomeOK, elapsed)
		return text, true
	}

	p := ExtractPayload(text)
	if !p.Structured {
		a.logger.Warn("llm.generate.invalid_json",
			"req_id", rid,
			"error", p.Err,
			"preview", preview(text),
			"elapsed_ms", elapsed.Milliseconds(),
		)
		a.observe(OutcomeInvalidJSON, elapsed)
		span.SetAttributes(attribute.Bool("llm.json_valid", false))
		return p.Text, true
	}

	a.logger.Info("llm.generate.ok", "req_id", rid, "bytes", len(p.Text), "elapsed_ms", elapsed.Milliseconds())
	a.observe(OutcomeOK, elapsed)
	span.SetAttributes(attribute.Bool("llm.json_valid", true))
	return p.Text, true
}

func (a *Adapter) observe(outcome string, elapsed time.Duration) {
	if a.observer != nil {
		a.observer.ObserveGeneration(outcome, elapsed)
	}
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewRunes {
		return s
	}
	return string(r[:previewRunes]) + "..."
}
