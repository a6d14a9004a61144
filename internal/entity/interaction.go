package entity

import (
	"time"
)

// InteractionRecord is one logged classification/extraction event within a thread.
type InteractionRecord struct {
	Source          string         `json:"source"`
	InputType       string         `json:"input_type"`
	Intent          string         `json:"intent"`
	Timestamp       time.Time      `json:"timestamp"`
	ExtractedValues map[string]any `json:"extracted_values"`
}
