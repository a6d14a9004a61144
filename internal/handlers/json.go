package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/docrouter/constants"
	"github.com/joseph-ayodele/docrouter/internal/entity"
	"github.com/joseph-ayodele/docrouter/internal/llm"
	"github.com/joseph-ayodele/docrouter/internal/memory"
)

const invalidJSONMessage = "Invalid JSON format"

// InvoiceFields is the target schema of the JSON handler, in prompt order.
var InvoiceFields = []string{
	"invoice_number",
	"customer_name",
	"total_amount",
	"currency",
	"date_issued",
	"line_items",
}

const invoiceTemplate = `{
  "invoice_number": null,
  "customer_name": null,
  "total_amount": null,
  "currency": null,
  "date_issued": null,
  "line_items": []
}`

const jsonInstructions = "You are a JSON processing agent. Your task is to extract information from the provided JSON payload and reformat it according to the target schema.\n" +
	"If a field is missing or an anomaly is detected (e.g., incorrect data type), note it.\n" +
	"Return the output as a JSON object matching the target schema, with extracted values.\n" +
	"Target Schema:\n```json\n" + invoiceTemplate + "\n```"

type presenceCheck struct {
	field  string
	schema *jsonschema.Schema
}

// presenceChecks holds one compiled schema per target field: required and not null.
var presenceChecks = mustPresenceChecks(InvoiceFields)

func mustPresenceChecks(fields []string) []presenceCheck {
	out := make([]presenceCheck, 0, len(fields))
	for _, f := range fields {
		s, err := llm.CompileSchema("presence_"+f, map[string]any{
			"type":       "object",
			"required":   []string{f},
			"properties": map[string]any{f: map[string]any{"not": map[string]any{"type": "null"}}},
		})
		if err != nil {
			panic(fmt.Sprintf("compile presence schema for %s: %v", f, err))
		}
		out = append(out, presenceCheck{field: f, schema: s})
	}
	return out
}

// MissingFields lists the target fields that are absent or null in v.
func MissingFields(v map[string]any) []string {
	var missing []string
	for _, c := range presenceChecks {
		if err := c.schema.Validate(v); err != nil {
			missing = append(missing, c.field)
		}
	}
	return missing
}

type JSONHandler struct {
	base
}

func NewJSONHandler(gen llm.Generator, store memory.Store, opts ...Option) *JSONHandler {
	return &JSONHandler{base: newBase(gen, store, opts)}
}

func (h *JSONHandler) Name() constants.Source { return constants.SourceJSONHandler }

func (h *JSONHandler) Extract(ctx context.Context, payload, threadID string) entity.Result {
	var data any
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		h.logger.Warn("handler.json.invalid_input", "thread_id", threadID, "error", err)
		h.record(ctx, threadID, h.Name(), constants.FormatJSON, constants.RecordIntentError,
			map[string]any{"error": invalidJSONMessage})
		return entity.ErrorResult(invalidJSONMessage)
	}

	pretty, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		pretty = []byte(payload)
	}
	res := h.structured(ctx, h.Name(), jsonInstructions, "Process the following JSON data:\n\n"+string(pretty))

	var missing []string
	if !res.IsError() {
		missing = MissingFields(res)
		if len(missing) > 0 {
			res[entity.KeyAnomalies] = []any{"Missing required fields: " + strings.Join(missing, ", ")}
		}
	}

	h.record(ctx, threadID, h.Name(), constants.FormatJSON, constants.RecordIntentProcessedJSON, res)
	h.logger.Info("handler.json.processed", "thread_id", threadID, "missing", missing, "error", res.IsError())
	return res
}
