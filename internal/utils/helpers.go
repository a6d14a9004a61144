package utils

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docrouter/internal/entity"
)

// TruncateRunes returns at most n runes of s. n <= 0 means no limit.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// normalize round-trips v through JSON so structpb only sees plain JSON types.
func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func ToPBStruct(m map[string]any) (*structpb.Struct, error) {
	n, err := normalize(m)
	if err != nil {
		return nil, fmt.Errorf("normalize struct: %w", err)
	}
	obj, _ := n.(map[string]any)
	if obj == nil {
		obj = map[string]any{}
	}
	return structpb.NewStruct(obj)
}

func RecordToMap(r entity.InteractionRecord) map[string]any {
	values := r.ExtractedValues
	if values == nil {
		values = map[string]any{}
	}
	return map[string]any{
		"source":           r.Source,
		"input_type":       r.InputType,
		"intent":           r.Intent,
		"timestamp":        r.Timestamp.UTC().Format(time.RFC3339Nano),
		"extracted_values": values,
	}
}

func ToPBRecordList(recs []entity.InteractionRecord) (*structpb.ListValue, error) {
	items := make([]any, 0, len(recs))
	for _, r := range recs {
		items = append(items, RecordToMap(r))
	}
	n, err := normalize(items)
	if err != nil {
		return nil, fmt.Errorf("normalize records: %w", err)
	}
	list, _ := n.([]any)
	return structpb.NewList(list)
}
