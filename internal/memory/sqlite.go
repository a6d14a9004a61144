package memory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/docrouter/internal/common"
	"github.com/joseph-ayodele/docrouter/internal/entity"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS interactions (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	thread_id        TEXT NOT NULL,
	source           TEXT NOT NULL,
	input_type       TEXT NOT NULL,
	intent           TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	extracted_values TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interactions_thread ON interactions(thread_id, id);
`

// SQLStore keeps the interaction log in SQLite. With the default in-memory DSN it is
// no more durable than MemoryStore.
type SQLStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// OpenSQLStore opens dsn with the pure-Go sqlite driver and ensures the schema exists.
func OpenSQLStore(ctx context.Context, dsn string, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, common.NewAppError("STORE_OPEN", "open sqlite", err)
	}
	// one connection: appends are serialized and a memory database stays alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, common.NewAppError("STORE_OPEN", "ping sqlite", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, common.NewAppError("STORE_MIGRATE", "create schema", err)
	}
	logger.Info("store.sqlite.open", "dsn", dsn)
	return &SQLStore{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) Log(ctx context.Context, threadID string, rec entity.InteractionRecord) (string, error) {
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

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interactions (thread_id, source, input_type, intent, created_at, extracted_values)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		threadID, rec.Source, rec.InputType, rec.Intent, ts.UTC().Format(time.RFC3339Nano), string(values))
	if err != nil {
		return threadID, fmt.Errorf("%w: insert interaction: %v", common.ErrStore, err)
	}
	s.logger.Debug("memory.log", "thread_id", threadID, "source", rec.Source, "intent", rec.Intent)
	return threadID, nil
}

func (s *SQLStore) Context(ctx context.Context, threadID string) ([]entity.InteractionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, input_type, intent, created_at, extracted_values
		 FROM interactions WHERE thread_id = ? ORDER BY id`, threadID)
	if err != nil {
		return nil, fmt.Errorf("%w: query context: %v", common.ErrStore, err)
	}
	defer rows.Close()

	out := []entity.InteractionRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate context: %v", common.ErrStore, err)
	}
	return out, nil
}

func (s *SQLStore) LastExtractedFields(ctx context.Context, threadID string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT extracted_values FROM interactions WHERE thread_id = ? ORDER BY id DESC LIMIT 1`,
		threadID).Scan(&raw)
	if err == sql.ErrNoRows {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query last fields: %v", common.ErrStore, err)
	}
	return decodeValues([]byte(raw)), nil
}

func (s *SQLStore) Threads(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT thread_id FROM interactions GROUP BY thread_id ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("%w: list threads: %v", common.ErrStore, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan thread: %v", common.ErrStore, err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM interactions`); err != nil {
		return fmt.Errorf("%w: reset: %v", common.ErrStore, err)
	}
	s.logger.Info("memory.reset")
	return nil
}

func scanRecord(rows *sql.Rows) (entity.InteractionRecord, error) {
	var (
		rec     entity.InteractionRecord
		created string
		values  string
	)
	if err := rows.Scan(&rec.Source, &rec.InputType, &rec.Intent, &created, &values); err != nil {
		return rec, fmt.Errorf("%w: scan interaction: %v", common.ErrStore, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return rec, fmt.Errorf("%w: parse timestamp %q: %v", common.ErrStore, created, err)
	}
	rec.Timestamp = ts
	rec.ExtractedValues = decodeValues([]byte(values))
	return rec, nil
}
