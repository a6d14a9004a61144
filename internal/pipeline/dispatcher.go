// Package pipeline classifies raw input and dispatches it to a format handler.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joseph-ayodele/docrouter/constants"
	"github.com/joseph-ayodele/docrouter/internal/classifier"
	"github.com/joseph-ayodele/docrouter/internal/common"
	"github.com/joseph-ayodele/docrouter/internal/entity"
	"github.com/joseph-ayodele/docrouter/internal/handlers"
	"github.com/joseph-ayodele/docrouter/internal/memory"
	"github.com/joseph-ayodele/docrouter/internal/telemetry"
)

const unhandledMessage = "Unhandled format or intent"

// Classifier is satisfied by *classifier.Classifier.
type Classifier interface {
	Classify(ctx context.Context, raw, threadID string) classifier.Classification
}

// Handlers binds routes to handler instances. A nil handler makes its route unhandled.
type Handlers struct {
	Email    handlers.Handler
	JSON     handlers.Handler
	Document handlers.Handler
}

func (h Handlers) forRoute(r Route) handlers.Handler {
	switch r {
	case RouteEmail:
		return h.Email
	case RouteJSON:
		return h.JSON
	case RouteDocument:
		return h.Document
	}
	return nil
}

type Dispatcher struct {
	classifier Classifier
	handlers   Handlers
	store      memory.Store
	policy     Policy
	metrics    *telemetry.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

type Option func(*Dispatcher)

func WithPolicy(p Policy) Option {
	return func(d *Dispatcher) { d.policy = p }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

func NewDispatcher(c Classifier, hs Handlers, store memory.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		classifier: c,
		handlers:   hs,
		store:      store,
		policy:     DefaultPolicy(),
		logger:     slog.Default(),
		tracer:     otel.Tracer("github.com/joseph-ayodele/docrouter/internal/pipeline"),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Process classifies raw, runs the selected handler on the classified thread and
// returns the handler result stamped with thread_id.
func (d *Dispatcher) Process(ctx context.Context, raw, threadID string) entity.Result {
	start := time.Now()
	ctx, span := d.tracer.Start(ctx, "pipeline.process")
	defer span.End()

	cls := d.classifier.Classify(ctx, raw, threadID)
	route := d.policy.Route(cls.Format, cls.Intent)
	h := d.handlers.forRoute(route)

	span.SetAttributes(
		attribute.String("docrouter.thread_id", cls.ThreadID),
		attribute.String("docrouter.format", string(cls.Format)),
		attribute.String("docrouter.intent", string(cls.Intent)),
		attribute.String("docrouter.route", string(route)),
	)

	var (
		res     entity.Result
		handler string
	)
	if h == nil {
		handler = string(constants.SourceDispatcher)
		res = d.unhandled(ctx, cls)
	} else {
		handler = string(h.Name())
		res = h.Extract(ctx, raw, cls.ThreadID)
		if res == nil {
			res = entity.Result{}
		}
	}
	res[entity.KeyThreadID] = cls.ThreadID

	if res.IsError() {
		span.SetStatus(codes.Error, fmt.Sprint(res[entity.KeyMessage]))
	}
	d.metrics.ObserveRouted(string(cls.Format), string(cls.Intent), handler)
	d.metrics.ObserveResult(handler, res.IsError())
	d.logger.Info("dispatch.done",
		"req_id", common.RequestIDFromContext(ctx),
		"thread_id", cls.ThreadID,
		"format", cls.Format,
		"intent", cls.Intent,
		"handler", handler,
		"error", res.IsError(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}

func (d *Dispatcher) unhandled(ctx context.Context, cls classifier.Classification) entity.Result {
	intent := cls.Label
	if intent == "" || intent == string(constants.IntentUnknown) {
		intent = constants.RecordIntentUnhandled
	}
	d.logger.Warn("dispatch.unhandled", "thread_id", cls.ThreadID, "format", cls.Format, "intent", cls.Label)

	_, err := d.store.Log(ctx, cls.ThreadID, entity.InteractionRecord{
		Source:    string(constants.SourceDispatcher),
		InputType: string(cls.Format),
		Intent:    intent,
		ExtractedValues: map[string]any{
			"message": fmt.Sprintf("No specific handler for %s/%s", cls.Format, cls.Label),
		},
	})
	if err != nil {
		d.logger.Error("dispatch.log_failed", "thread_id", cls.ThreadID, "error", err)
	}
	return entity.ErrorResult(unhandledMessage)
}
