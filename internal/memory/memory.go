package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docrouter/internal/common"
	"github.com/joseph-ayodele/docrouter/internal/entity"
)

type storedRecord struct {
	source    string
	inputType string
	intent    string
	timestamp time.Time
	values    []byte
}

func (r storedRecord) toEntity() entity.InteractionRecord {
	return entity.InteractionRecord{
		Source:          r.source,
		InputType:       r.inputType,
		Intent:          r.intent,
		Timestamp:       r.timestamp,
		ExtractedValues: decodeValues(r.values),
	}
}

// thread serializes appends to a single thread id.
type thread struct {
	mu      sync.Mutex
	records []storedRecord
}

// MemoryStore is the default in-process interaction log.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*thread
	order   []string

	logger *slog.Logger
	now    func() time.Time
}

func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		threads: make(map[string]*thread),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Log(_ context.Context, threadID string, rec entity.InteractionRecord) (string, error) {
	if threadID == "" {
		threadID = uuid.NewString()
	}
	values, err := encodeValues(rec.ExtractedValues)
	if err != nil {
		return threadID, common.WrapError(err, "encode extracted values")
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	t := s.getOrCreate(threadID)
	t.mu.Lock()
	t.records = append(t.records, storedRecord{
		source:    rec.Source,
		inputType: rec.InputType,
		intent:    rec.Intent,
		timestamp: ts,
		values:    values,
	})
	n := len(t.records)
	t.mu.Unlock()

	s.logger.Debug("memory.log", "thread_id", threadID, "source", rec.Source, "intent", rec.Intent, "records", n)
	return threadID, nil
}

func (s *MemoryStore) getOrCreate(threadID string) *thread {
	s.mu.RLock()
	t, ok := s.threads[threadID]
	s.mu.RUnlock()
	if ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok = s.threads[threadID]; ok {
		return t
	}
	t = &thread{}
	s.threads[threadID] = t
	s.order = append(s.order, threadID)
	return t
}

func (s *MemoryStore) lookup(threadID string) *thread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threads[threadID]
}

func (s *MemoryStore) Context(_ context.Context, threadID string) ([]entity.InteractionRecord, error) {
	t := s.lookup(threadID)
	if t == nil {
		return []entity.InteractionRecord{}, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]entity.InteractionRecord, 0, len(t.records))
	for _, r := range t.records {
		out = append(out, r.toEntity())
	}
	return out, nil
}

func (s *MemoryStore) LastExtractedFields(_ context.Context, threadID string) (map[string]any, error) {
	t := s.lookup(threadID)
	if t == nil {
		return map[string]any{}, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.records) == 0 {
		return map[string]any{}, nil
	}
	return decodeValues(t.records[len(t.records)-1].values), nil
}

func (s *MemoryStore) Threads(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out, nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads = make(map[string]*thread)
	s.order = nil
	s.logger.Info("memory.reset")
	return nil
}
