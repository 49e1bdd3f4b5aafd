package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/platform/apierr"
)

func TestMigrate_Idempotent(t *testing.T) {
	conn, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, conn))
	require.NoError(t, Migrate(ctx, conn))

	var n int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans`).Scan(&n))
	assert.Zero(t, n)
}

func TestDuplicateAndForeignKeyDetection(t *testing.T) {
	conn, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, conn))

	now := time.Now().UTC()
	_, err = conn.ExecContext(ctx, `INSERT INTO authors (author_id, first_name, last_name, created_at) VALUES (?, ?, ?, ?)`, "A1", "Ursula", "Le Guin", now)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, `INSERT INTO authors (author_id, first_name, last_name, created_at) VALUES (?, ?, ?, ?)`, "A1", "x", "y", now)
	assert.True(t, IsDuplicateKey(err))

	_, err = conn.ExecContext(ctx, `INSERT INTO books (book_id, isbn, title, author_id, total_copies, available_copies, created_at, updated_at) VALUES (?, ?, ?, ?, 1, 1, ?, ?)`,
		"B1", "9780306406157", "t", "missing", now, now)
	assert.True(t, IsForeignKey(err))

	assert.True(t, IsDuplicateKey(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsDuplicateKey(errors.New("boom")))
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	conn, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, conn))

	boom := errors.New("boom")
	err = RunInTx(ctx, conn, nil, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO authors (author_id, first_name, last_name, created_at) VALUES (?, ?, ?, ?)`, "A1", "a", "b", time.Now()); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM authors`).Scan(&n))
	assert.Zero(t, n)
}

func TestRunInTx_RollsBackOnPanic(t *testing.T) {
	conn, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, conn))

	assert.Panics(t, func() {
		_ = RunInTx(ctx, conn, nil, func(ctx context.Context, tx DBTX) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO authors (author_id, first_name, last_name, created_at) VALUES (?, ?, ?, ?)`, "A1", "a", "b", time.Now())
			panic("boom")
		})
	})

	var n int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM authors`).Scan(&n))
	assert.Zero(t, n)
}

func TestReadRetrier(t *testing.T) {
	ctx := context.Background()
	r := ReadRetrier{MaxAttempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	err := r.Do(ctx, func(context.Context) error {
		calls++
		if calls < 3 {
			return driver.ErrBadConn
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	permanent := errors.New("syntax error")
	err = r.Do(ctx, func(context.Context) error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls, "non-transient errors fail fast")

	calls = 0
	err = r.Do(ctx, func(context.Context) error {
		calls++
		return driver.ErrBadConn
	})
	assert.ErrorIs(t, err, driver.ErrBadConn)
	assert.Equal(t, 3, calls)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil))

	err := Wrap(context.DeadlineExceeded)
	assert.Equal(t, http.StatusServiceUnavailable, apierr.HTTPStatus(err))

	conflict := apierr.Conflict("dup")
	assert.Same(t, conflict, Wrap(conflict))

	plain := errors.New("boom")
	assert.Equal(t, plain, Wrap(plain))
}
