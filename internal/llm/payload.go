package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/docrouter/internal/common"
)

// Payload is the outcome of reading structured data out of model text.
type Payload struct {
	Structured bool
	// Text is canonical JSON when Structured, otherwise the raw input.
	Text  string
	Value any
	Err   error
}

// ExtractPayload strips an optional markdown fence and parses the remainder as JSON.
func ExtractPayload(raw string) Payload {
	body := stripFence(strings.TrimSpace(raw))

	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return Payload{Text: raw, Err: err}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return Payload{Text: raw, Err: err}
	}
	return Payload{Structured: true, Text: string(b), Value: v}
}

func stripFence(s string) string {
	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.TrimPrefix(s, "```json")
	case strings.HasPrefix(s, "```"):
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && isLangTag(s[:nl]) {
			s = s[nl+1:]
		}
	default:
		return s
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isLangTag(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// DecodeObject decodes a generator result that must be a JSON object.
func DecodeObject(text string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidJSON, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: null", common.ErrInvalidJSON)
	}
	return out, nil
}
