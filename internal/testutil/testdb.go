// Package testutil はテスト用の一時 SQLite DB とシードを提供する。
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"library-backend/internal/platform/db"
)

var Epoch = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

// OpenDB は t.TempDir() に SQLite を作り、スキーマを流す。
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))
	return conn
}

func SeedAuthor(t testing.TB, conn *sql.DB, id string) {
	t.Helper()
	_, err := conn.Exec(`INSERT INTO authors (author_id, first_name, last_name, created_at) VALUES (?, ?, ?, ?)`,
		id, "Ursula", "Le Guin", Epoch)
	require.NoError(t, err)
}

// SeedBook は貸出ゼロの本を作る（available = total）。
func SeedBook(t testing.TB, conn *sql.DB, id, authorID, isbn string, total int) {
	t.Helper()
	_, err := conn.Exec(`
	INSERT INTO books (book_id, isbn, title, author_id, total_copies, available_copies, version, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		id, isbn, "A Wizard of Earthsea", authorID, total, total, Epoch, Epoch)
	require.NoError(t, err)
}

func SeedMember(t testing.TB, conn *sql.DB, id string, active bool) {
	t.Helper()
	_, err := conn.Exec(`
	INSERT INTO members (member_id, first_name, last_name, email, membership_number, is_active, joined_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, "Ged", "Sparrowhawk", id+"@example.com", "M-"+id, active, Epoch)
	require.NoError(t, err)
}

// BookCopies は (total, available) を直接読む。
func BookCopies(t testing.TB, conn *sql.DB, id string) (int, int) {
	t.Helper()
	var total, available int
	require.NoError(t, conn.QueryRow(`SELECT total_copies, available_copies FROM books WHERE book_id = ?`, id).Scan(&total, &available))
	return total, available
}

func CountOpenLoans(t testing.TB, conn *sql.DB, bookID string) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM loans WHERE book_id = ? AND returned_at IS NULL`, bookID).Scan(&n))
	return n
}
