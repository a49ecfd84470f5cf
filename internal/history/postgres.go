package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// DBPool abstracts the pgxpool.Pool surface the store needs, allowing mocks
// in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

const sqlCreateHistoryTable = `
	CREATE TABLE IF NOT EXISTS action_history (
		id BIGSERIAL PRIMARY KEY,
		ts TIMESTAMPTZ NOT NULL,
		session_id TEXT NOT NULL,
		action_type TEXT NOT NULL,
		action JSONB NOT NULL,
		url TEXT NOT NULL DEFAULT '',
		page_title TEXT NOT NULL DEFAULT '',
		success BOOLEAN NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		duration_ms BIGINT NOT NULL DEFAULT 0
	);`

const sqlInsertRecord = `
	INSERT INTO action_history (ts, session_id, action_type, action, url, page_title, success, message, duration_ms)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

// sqlTrimHistory evicts the oldest rows beyond the retention cap.
const sqlTrimHistory = `
	DELETE FROM action_history
	WHERE id IN (
		SELECT id FROM action_history ORDER BY id DESC OFFSET $1
	);`

const sqlSelectColumns = `ts, session_id, action_type, action, url, page_title, success, message, duration_ms`

// PostgresStore persists action history in PostgreSQL. It exists for
// deployments where multiple runners share one history, with the same
// retention semantics as the file store.
type PostgresStore struct {
	pool    DBPool
	maxSize int
	log     *zap.Logger
}

// NewPostgresStore verifies the connection and ensures the schema exists.
func NewPostgresStore(ctx context.Context, pool DBPool, maxSize int, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, sqlCreateHistoryTable); err != nil {
		return nil, fmt.Errorf("failed to ensure history schema: %w", err)
	}
	return &PostgresStore{
		pool:    pool,
		maxSize: maxSize,
		log:     logger.Named("history.pg"),
	}, nil
}

// Append implements Store.
func (s *PostgresStore) Append(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec.Action)
	if err != nil {
		return fmt.Errorf("encoding action payload: %w", err)
	}
	_, err = s.pool.Exec(ctx, sqlInsertRecord,
		rec.Timestamp, rec.SessionID, rec.ActionType, payload,
		rec.URL, rec.PageTitle, rec.Success, rec.Message, rec.DurationMS)
	if err != nil {
		return fmt.Errorf("inserting history record: %w", err)
	}
	if s.maxSize > 0 {
		if _, err := s.pool.Exec(ctx, sqlTrimHistory, s.maxSize); err != nil {
			// Retention is best effort; the new record is already stored.
			s.log.Warn("failed to trim history", zap.Error(err))
		}
	}
	return nil
}

// Recent implements Store.
func (s *PostgresStore) Recent(ctx context.Context, n int) ([]Record, error) {
	if n <= 0 {
		n = s.maxSize
	}
	q := fmt.Sprintf(`SELECT %s FROM (
		SELECT id, %s FROM action_history ORDER BY id DESC LIMIT $1
	) sub ORDER BY id ASC;`, sqlSelectColumns, sqlSelectColumns)
	return s.query(ctx, q, n)
}

// ByType implements Store.
func (s *PostgresStore) ByType(ctx context.Context, actionType string) ([]Record, error) {
	q := fmt.Sprintf(`SELECT %s FROM action_history WHERE action_type = $1 ORDER BY id ASC;`, sqlSelectColumns)
	return s.query(ctx, q, actionType)
}

// Failed implements Store.
func (s *PostgresStore) Failed(ctx context.Context) ([]Record, error) {
	q := fmt.Sprintf(`SELECT %s FROM action_history WHERE NOT success ORDER BY id ASC;`, sqlSelectColumns)
	return s.query(ctx, q)
}

// Search implements Store.
func (s *PostgresStore) Search(ctx context.Context, query string) ([]Record, error) {
	q := fmt.Sprintf(`SELECT %s FROM action_history
		WHERE url ILIKE '%%' || $1 || '%%'
		   OR message ILIKE '%%' || $1 || '%%'
		   OR action_type ILIKE '%%' || $1 || '%%'
		   OR action::text ILIKE '%%' || $1 || '%%'
		ORDER BY id ASC;`, sqlSelectColumns)
	return s.query(ctx, q, query)
}

func (s *PostgresStore) query(ctx context.Context, sql string, args ...any) ([]Record, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var payload []byte
		if err := rows.Scan(&rec.Timestamp, &rec.SessionID, &rec.ActionType, &payload,
			&rec.URL, &rec.PageTitle, &rec.Success, &rec.Message, &rec.DurationMS); err != nil {
			return nil, fmt.Errorf("scanning history record: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &rec.Action); err != nil {
				s.log.Warn("skipping malformed action payload", zap.Error(err))
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history rows: %w", err)
	}
	return out, nil
}

// Clear implements Store.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM action_history;`); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
