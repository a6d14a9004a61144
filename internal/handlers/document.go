package handlers

import (
	"context"
	"strings"

	"github.com/joseph-ayodele/docrouter/constants"
	"github.com/joseph-ayodele/docrouter/internal/entity"
	"github.com/joseph-ayodele/docrouter/internal/extract"
	"github.com/joseph-ayodele/docrouter/internal/llm"
	"github.com/joseph-ayodele/docrouter/internal/memory"
	"github.com/joseph-ayodele/docrouter/internal/utils"
)

const DefaultDocumentChars = 4000

const (
	extractionFailedMessage = "Failed to extract text from PDF"
	noTextMessage           = "No readable text extracted from PDF"
)

const documentInstructions = "You are a PDF content extraction agent. Extract key details from the provided text, focusing on invoice-like information.\n" +
	"Extract 'invoice_number', 'total_amount', 'currency', 'date_issued', 'vendor_name', 'customer_name'.\n" +
	"If a field is not found, use 'N/A'. Return the output as a JSON object."

type DocumentHandler struct {
	base
	extractor extract.TextExtractor
}

func NewDocumentHandler(gen llm.Generator, store memory.Store, extractor extract.TextExtractor, opts ...Option) *DocumentHandler {
	return &DocumentHandler{base: newBase(gen, store, opts), extractor: extractor}
}

func (h *DocumentHandler) Name() constants.Source { return constants.SourceDocumentHandler }

// Extract reads the document at ref and extracts invoice-like fields from its text.
func (h *DocumentHandler) Extract(ctx context.Context, ref, threadID string) entity.Result {
	doc, err := h.extractor.Extract(ctx, strings.TrimSpace(ref))
	if err != nil {
		h.logger.Warn("handler.document.extract_failed", "thread_id", threadID, "ref", ref, "error", err)
		h.record(ctx, threadID, h.Name(), constants.FormatDocument, constants.RecordIntentExtractionError,
			map[string]any{"error": extractionFailedMessage + ": " + err.Error()})
		return entity.ErrorResult(extractionFailedMessage)
	}

	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		h.logger.Warn("handler.document.no_text", "thread_id", threadID, "ref", ref, "pages", len(doc.Pages))
		h.record(ctx, threadID, h.Name(), constants.FormatDocument, constants.RecordIntentNoText,
			map[string]any{"message": noTextMessage})
		return entity.ErrorResult(noTextMessage)
	}

	res := h.structured(ctx, h.Name(), documentInstructions,
		"Extract information from the following PDF text:\n\n"+utils.TruncateRunes(text, h.maxChars)+"...")

	h.record(ctx, threadID, h.Name(), constants.FormatDocument, constants.RecordIntentProcessedPDF, res)
	h.logger.Info("handler.document.processed", "thread_id", threadID, "pages", len(doc.Pages), "error", res.IsError())
	return res
}
