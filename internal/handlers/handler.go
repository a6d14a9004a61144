// Package handlers holds the format-specific extraction handlers. Each invocation
// appends exactly one interaction record and never returns an error; failures are
// reported in the result under status=error.
package handlers

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/docrouter/constants"
	"github.com/joseph-ayodele/docrouter/internal/common"
	"github.com/joseph-ayodele/docrouter/internal/entity"
	"github.com/joseph-ayodele/docrouter/internal/llm"
	"github.com/joseph-ayodele/docrouter/internal/memory"
)

// Handler extracts structured fields from content on behalf of a thread.
type Handler interface {
	Name() constants.Source
	Extract(ctx context.Context, content, threadID string) entity.Result
}

type base struct {
	gen      llm.Generator
	store    memory.Store
	logger   *slog.Logger
	maxChars int
}

type Option func(*base)

func WithLogger(l *slog.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMaxChars bounds the text sent to the generator. Only the document handler truncates.
func WithMaxChars(n int) Option {
	return func(b *base) {
		if n > 0 {
			b.maxChars = n
		}
	}
}

func newBase(gen llm.Generator, store memory.Store, opts []Option) base {
	b := base{gen: gen, store: store, logger: slog.Default(), maxChars: DefaultDocumentChars}
	for _, o := range opts {
		o(&b)
	}
	return b
}

// structured asks for a JSON object and maps generator failures to error results.
func (b *base) structured(ctx context.Context, source constants.Source, instructions, content string) entity.Result {
	text, ok := b.gen.Generate(ctx, instructions, content, true)
	if !ok {
		b.logger.Warn("handler.generate.unavailable", "handler", source)
		return entity.ErrorResult(common.ErrGeneratorUnavailable.Error())
	}
	obj, err := llm.DecodeObject(text)
	if err != nil {
		b.logger.Warn("handler.generate.invalid_json", "handler", source, "error", err)
		res := entity.ErrorResult(common.ErrInvalidJSON.Error())
		res[entity.KeyRawOutput] = text
		return res
	}
	return entity.Result(obj)
}

func (b *base) record(ctx context.Context, threadID string, source constants.Source, format constants.Format, intent string, values map[string]any) {
	_, err := b.store.Log(ctx, threadID, entity.InteractionRecord{
		Source:          string(source),
		InputType:       string(format),
		Intent:          intent,
		ExtractedValues: values,
	})
	if err != nil {
		b.logger.Error("handler.log_failed", "handler", source, "thread_id", threadID, "error", err)
	}
}
