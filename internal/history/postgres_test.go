package history

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for
// more robust SQL mock expectations.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

func newMockStore(t *testing.T, maxSize int) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)

	mockPool.ExpectPing()
	mockPool.ExpectExec(flexibleSQLMatcher(sqlCreateHistoryTable)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	store, err := NewPostgresStore(context.Background(), mockPool, maxSize, zap.NewNop())
	require.NoError(t, err)
	return store, mockPool
}

func TestNewPostgresStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = NewPostgresStore(context.Background(), mockPool, 100, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should create the schema", func(t *testing.T) {
		_, mockPool := newMockStore(t, 100)
		defer mockPool.Close()
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresStoreAppend(t *testing.T) {
	t.Run("inserts the record and trims", func(t *testing.T) {
		store, mockPool := newMockStore(t, 2000)
		defer mockPool.Close()

		rec := testRecord("click", true)
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertRecord)).
			WithArgs(rec.Timestamp, rec.SessionID, rec.ActionType, pgxmock.AnyArg(),
				rec.URL, rec.PageTitle, rec.Success, rec.Message, rec.DurationMS).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec(flexibleSQLMatcher(sqlTrimHistory)).
			WithArgs(2000).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		require.NoError(t, store.Append(context.Background(), rec))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("a failed trim does not fail the append", func(t *testing.T) {
		store, mockPool := newMockStore(t, 10)
		defer mockPool.Close()

		rec := testRecord("navigate", true)
		mockPool.ExpectExec(flexibleSQLMatcher(sqlInsertRecord)).
			WithArgs(rec.Timestamp, rec.SessionID, rec.ActionType, pgxmock.AnyArg(),
				rec.URL, rec.PageTitle, rec.Success, rec.Message, rec.DurationMS).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec(flexibleSQLMatcher(sqlTrimHistory)).
			WithArgs(10).
			WillReturnError(errors.New("lock timeout"))

		assert.NoError(t, store.Append(context.Background(), rec))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresStoreQueries(t *testing.T) {
	columns := []string{"ts", "session_id", "action_type", "action", "url", "page_title", "success", "message", "duration_ms"}
	now := time.Now().UTC()

	t.Run("failed returns unsuccessful records", func(t *testing.T) {
		store, mockPool := newMockStore(t, 100)
		defer mockPool.Close()

		rows := pgxmock.NewRows(columns).
			AddRow(now, "session-1", "click", []byte(`{"type":"click"}`), "https://example.com", "Example", false, "element not found", int64(120))
		mockPool.ExpectQuery("WHERE NOT success").WillReturnRows(rows)

		records, err := store.Failed(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "click", records[0].ActionType)
		assert.False(t, records[0].Success)
		assert.Equal(t, "click", records[0].Action["type"])
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("by type binds the action type", func(t *testing.T) {
		store, mockPool := newMockStore(t, 100)
		defer mockPool.Close()

		rows := pgxmock.NewRows(columns).
			AddRow(now, "session-1", "navigate", []byte(`{"type":"navigate"}`), "https://example.com", "Example", true, "ok", int64(80))
		mockPool.ExpectQuery("WHERE action_type = \\$1").
			WithArgs("navigate").
			WillReturnRows(rows)

		records, err := store.ByType(context.Background(), "navigate")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "navigate", records[0].ActionType)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("query errors are propagated", func(t *testing.T) {
		store, mockPool := newMockStore(t, 100)
		defer mockPool.Close()

		mockPool.ExpectQuery("WHERE NOT success").WillReturnError(errors.New("connection reset"))

		_, err := store.Failed(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "querying history")
	})
}

func TestPostgresStoreClear(t *testing.T) {
	store, mockPool := newMockStore(t, 100)
	defer mockPool.Close()

	mockPool.ExpectExec("DELETE FROM action_history").
		WillReturnResult(pgxmock.NewResult("DELETE", 42))

	require.NoError(t, store.Clear(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
