// Package classifier detects the format of raw input and asks the generator for its intent.
package classifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/joseph-ayodele/docrouter/constants"
	"github.com/joseph-ayodele/docrouter/internal/entity"
	"github.com/joseph-ayodele/docrouter/internal/extract"
	"github.com/joseph-ayodele/docrouter/internal/llm"
	"github.com/joseph-ayodele/docrouter/internal/memory"
	"github.com/joseph-ayodele/docrouter/internal/utils"
)

const DefaultMaxChars = 1000

var emailHeaderRe = regexp.MustCompile(`(?im)^(From:|To:|Subject:|Date:)`)

var instructions = "You are an intelligent classification agent. Your task is to accurately identify the intent of the user's input.\n" +
	"Possible intents include: Invoice, RFQ (Request for Quote), Complaint, Regulation, General Inquiry, Other.\n" +
	"Respond ONLY with the identified intent word."

// Classification is the outcome of one Classify call.
type Classification struct {
	Format constants.Format
	Intent constants.Intent
	// Label is the cleaned generator answer, or "Unknown" when there was none.
	Label    string
	ThreadID string
}

type Classifier struct {
	gen      llm.Generator
	store    memory.Store
	probe    extract.PageCounter
	docRoot  string
	maxChars int
	logger   *slog.Logger
	tracer   trace.Tracer
}

type Option func(*Classifier)

func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProbe enables document detection for file paths.
func WithProbe(p extract.PageCounter) Option {
	return func(c *Classifier) { c.probe = p }
}

// WithDocumentRoot limits document detection to paths under root, after symlinks are
// resolved. Paths outside root are classified by their content.
func WithDocumentRoot(root string) Option {
	return func(c *Classifier) {
		if root == "" {
			return
		}
		c.docRoot = resolvePath(root)
	}
}

func WithMaxChars(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Classifier) {
		if t != nil {
			c.tracer = t
		}
	}
}

func New(gen llm.Generator, store memory.Store, opts ...Option) *Classifier {
	c := &Classifier{
		gen:      gen,
		store:    store,
		maxChars: DefaultMaxChars,
		logger:   slog.Default(),
		tracer:   otel.Tracer("github.com/joseph-ayodele/docrouter/internal/classifier"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify resolves format and intent and logs one classifier record under threadID,
// generating a thread id when none is given.
func (c *Classifier) Classify(ctx context.Context, raw, threadID string) Classification {
	ctx, span := c.tracer.Start(ctx, "classifier.classify")
	defer span.End()

	if threadID == "" {
		threadID = uuid.NewString()
	}
	format := c.DetectFormat(ctx, raw)

	out := Classification{Format: format, Intent: constants.IntentUnknown, Label: string(constants.IntentUnknown), ThreadID: threadID}
	var recorded any // null when the generator had nothing to say

	prompt := "Given the following content, what is its primary intent?\n\nContent: " + utils.TruncateRunes(raw, c.maxChars) + "..."
	if answer, ok := c.gen.Generate(ctx, instructions, prompt, false); ok {
		if label := CleanLabel(answer); label != "" {
			out.Label = label
			out.Intent, _ = constants.CanonicalizeIntent(label)
			recorded = label
		}
	}

	_, err := c.store.Log(ctx, threadID, entity.InteractionRecord{
		Source:          string(constants.SourceClassifier),
		InputType:       string(format),
		Intent:          out.Label,
		ExtractedValues: map[string]any{"format": string(format), "intent": recorded},
	})
	if err != nil {
		c.logger.Warn("classifier.log_failed", "thread_id", threadID, "error", err)
	}

	span.SetAttributes(
		attribute.String("docrouter.format", string(format)),
		attribute.String("docrouter.intent", string(out.Intent)),
		attribute.String("docrouter.thread_id", threadID),
	)
	c.logger.Info("classifier.classified",
		"thread_id", threadID,
		"format", format,
		"intent", out.Intent,
		"label", out.Label,
	)
	return out
}

// DetectFormat applies the format heuristics in order: document path, JSON, email headers, text.
func (c *Classifier) DetectFormat(ctx context.Context, raw string) constants.Format {
	if c.isDocument(ctx, raw) {
		return constants.FormatDocument
	}
	if json.Valid([]byte(raw)) {
		return constants.FormatJSON
	}
	if emailHeaderRe.MatchString(raw) {
		return constants.FormatEmail
	}
	return constants.FormatText
}

func (c *Classifier) isDocument(ctx context.Context, raw string) bool {
	if c.probe == nil {
		return false
	}
	path := strings.TrimSpace(raw)
	if path == "" || strings.ContainsAny(path, "\n\r") || !constants.IsDocumentExt(filepath.Ext(path)) {
		return false
	}
	if c.docRoot != "" && !within(c.docRoot, resolvePath(path)) {
		c.logger.Warn("classifier.document_outside_root", "root", c.docRoot)
		return false
	}
	if st, err := os.Stat(path); err != nil || st.IsDir() {
		return false
	}
	n, err := c.probe.PageCount(ctx, path)
	return err == nil && n > 0
}

// resolvePath returns the absolute, symlink-free form of path, or the cleaned absolute
// path when it does not exist.
func resolvePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// CleanLabel trims a generator answer and removes periods.
func CleanLabel(answer string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.TrimSpace(answer), ".", ""))
}
