package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docrouter/internal/entity"
)

func newSQLStore(t *testing.T) Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	s, err := OpenSQLStore(context.Background(), dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func stores() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore(nil) },
		"sqlite": newSQLStore,
	}
}

func record(source, intent string, values map[string]any) entity.InteractionRecord {
	return entity.InteractionRecord{Source: source, InputType: "Email", Intent: intent, ExtractedValues: values}
}

func TestStore(t *testing.T) {
	for name, open := range stores() {
		t.Run(name, func(t *testing.T) {
			t.Run("log generates thread id", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()

				id, err := s.Log(ctx, "", record("classifier", "RFQ", nil))
				require.NoError(t, err)
				_, err = uuid.Parse(id)
				require.NoError(t, err)

				recs, err := s.Context(ctx, id)
				require.NoError(t, err)
				require.Len(t, recs, 1)
				assert.Equal(t, "classifier", recs[0].Source)
				assert.False(t, recs[0].Timestamp.IsZero())
				assert.Equal(t, map[string]any{}, recs[0].ExtractedValues)
			})

			t.Run("two logs keep call order", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()

				id, err := s.Log(ctx, "", record("email_handler", "RFQ", map[string]any{"subject": "first"}))
				require.NoError(t, err)
				again, err := s.Log(ctx, id, record("email_handler", "Complaint", map[string]any{"subject": "second"}))
				require.NoError(t, err)
				assert.Equal(t, id, again)

				recs, err := s.Context(ctx, id)
				require.NoError(t, err)
				require.Len(t, recs, 2)
				assert.Equal(t, "first", recs[0].ExtractedValues["subject"])
				assert.Equal(t, "second", recs[1].ExtractedValues["subject"])

				last, err := s.LastExtractedFields(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, map[string]any{"subject": "second"}, last)
			})

			t.Run("unknown thread is empty", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()

				recs, err := s.Context(ctx, "nope")
				require.NoError(t, err)
				assert.Empty(t, recs)
				assert.NotNil(t, recs)

				last, err := s.LastExtractedFields(ctx, "nope")
				require.NoError(t, err)
				assert.Equal(t, map[string]any{}, last)
			})

			t.Run("records are copies", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()

				values := map[string]any{"total_amount": 10.5}
				id, err := s.Log(ctx, "", record("json_handler", "Processed JSON", values))
				require.NoError(t, err)
				values["total_amount"] = 99.0

				last, err := s.LastExtractedFields(ctx, id)
				require.NoError(t, err)
				last["total_amount"] = 1.0

				again, err := s.LastExtractedFields(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, 10.5, again["total_amount"])
			})

			t.Run("unserializable values are stringified", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()

				id, err := s.Log(ctx, "", record("dispatcher", "Unhandled", map[string]any{
					"ch": make(chan int),
					"n":  3,
				}))
				require.NoError(t, err)

				last, err := s.LastExtractedFields(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, "3", last["n"])
				assert.IsType(t, "", last["ch"])
			})

			t.Run("threads and reset", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()

				a, err := s.Log(ctx, "a", record("classifier", "RFQ", nil))
				require.NoError(t, err)
				b, err := s.Log(ctx, "b", record("classifier", "RFQ", nil))
				require.NoError(t, err)
				_, err = s.Log(ctx, "a", record("email_handler", "RFQ", nil))
				require.NoError(t, err)

				ids, err := s.Threads(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{a, b}, ids)

				require.NoError(t, s.Reset(ctx))
				ids, err = s.Threads(ctx)
				require.NoError(t, err)
				assert.Empty(t, ids)
				recs, err := s.Context(ctx, a)
				require.NoError(t, err)
				assert.Empty(t, recs)
			})

			t.Run("explicit timestamp is kept", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()

				ts := time.Date(2024, 3, 1, 12, 0, 0, 500, time.UTC)
				rec := record("classifier", "Other", nil)
				rec.Timestamp = ts
				id, err := s.Log(ctx, "", rec)
				require.NoError(t, err)

				recs, err := s.Context(ctx, id)
				require.NoError(t, err)
				require.Len(t, recs, 1)
				assert.True(t, ts.Equal(recs[0].Timestamp))
			})

			t.Run("concurrent appends to one thread", func(t *testing.T) {
				s := open(t)
				ctx := context.Background()
				const n = 50

				var wg sync.WaitGroup
				for i := 0; i < n; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						_, err := s.Log(ctx, "shared", record("email_handler", "RFQ", map[string]any{"i": i}))
						assert.NoError(t, err)
					}(i)
				}
				wg.Wait()

				recs, err := s.Context(ctx, "shared")
				require.NoError(t, err)
				assert.Len(t, recs, n)
			})
		})
	}
}
