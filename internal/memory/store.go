// Package memory holds the thread-keyed interaction log.
//
// A thread is only a key: it exists once the first record is logged under it and
// disappears only on Reset. Records are immutable once appended; every read returns
// fresh copies, so callers never hold live references into the log.
package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joseph-ayodele/docrouter/internal/entity"
)

// Store is the interaction log consumed by the classifier, handlers, and dispatcher.
type Store interface {
	// Log appends rec to threadID and returns the thread id, generating one when threadID is empty.
	Log(ctx context.Context, threadID string, rec entity.InteractionRecord) (string, error)
	// Context returns the thread's records in append order (empty when unknown).
	Context(ctx context.Context, threadID string) ([]entity.InteractionRecord, error)
	// LastExtractedFields returns the extracted values of the thread's last record (empty when unknown).
	LastExtractedFields(ctx context.Context, threadID string) (map[string]any, error)
	// Threads lists known thread ids in creation order.
	Threads(ctx context.Context) ([]string, error)
	// Reset clears every thread. Meant for test isolation.
	Reset(ctx context.Context) error
}

// encodeValues serializes extracted values. Values that cannot be encoded as JSON
// are replaced by their string rendering.
func encodeValues(values map[string]any) ([]byte, error) {
	if values == nil {
		return []byte("{}"), nil
	}
	if b, err := json.Marshal(values); err == nil {
		return b, nil
	}
	flat := make(map[string]string, len(values))
	for k, v := range values {
		flat[k] = fmt.Sprint(v)
	}
	return json.Marshal(flat)
}

func decodeValues(b []byte) map[string]any {
	out := map[string]any{}
	if len(b) == 0 {
		return out
	}
	_ = json.Unmarshal(b, &out)
	return out
}
