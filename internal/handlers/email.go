package handlers

import (
	"context"
	"strings"

	"github.com/joseph-ayodele/docrouter/constants"
	"github.com/joseph-ayodele/docrouter/internal/entity"
	"github.com/joseph-ayodele/docrouter/internal/llm"
	"github.com/joseph-ayodele/docrouter/internal/memory"
)

// Email result fields.
const (
	FieldSenderName      = "sender_name"
	FieldSenderEmail     = "sender_email"
	FieldSubject         = "subject"
	FieldExtractedIntent = "extracted_intent"
	FieldUrgency         = "urgency"
	FieldSummary         = "summary"
)

const emailInstructions = `You are an email processing agent. Your task is to extract key information from the provided email content.
Extract the sender's name and email, the email's subject, the primary intent (e.g., RFQ, Complaint, Inquiry), and the urgency (Low, Medium, High).
Format the output as a JSON object with the following keys: 'sender_name', 'sender_email', 'subject', 'extracted_intent', 'urgency', 'summary'.
For 'summary', provide a concise one-paragraph summary of the email's main content.
If any field is not explicitly found, use "N/A" for strings or 0 for numbers.`

type EmailHandler struct {
	base
}

func NewEmailHandler(gen llm.Generator, store memory.Store, opts ...Option) *EmailHandler {
	return &EmailHandler{base: newBase(gen, store, opts)}
}

func (h *EmailHandler) Name() constants.Source { return constants.SourceEmailHandler }

func (h *EmailHandler) Extract(ctx context.Context, content, threadID string) entity.Result {
	res := h.structured(ctx, h.Name(), emailInstructions, "Process the following email:\n\n"+content)

	intent := normalizeExtractedIntent(res[FieldExtractedIntent])
	res[FieldExtractedIntent] = intent

	h.record(ctx, threadID, h.Name(), constants.FormatEmail, intent, res)
	h.logger.Info("handler.email.processed",
		"thread_id", threadID,
		"sender_email", res[FieldSenderEmail],
		"intent", intent,
		"error", res.IsError(),
	)
	return res
}

func normalizeExtractedIntent(v any) string {
	s, _ := v.(string)
	s = strings.TrimSpace(strings.ReplaceAll(s, ".", ""))
	if s == "" {
		return string(constants.IntentUnknown)
	}
	return s
}
