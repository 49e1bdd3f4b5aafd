package lending

import (
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"library-backend/internal/catalog"
	"library-backend/internal/members"
	"library-backend/internal/platform/ident"
	"library-backend/internal/testutil"
)

type fixture struct {
	svc   *Service
	conn  *sql.DB
	clock *ident.FixedClock
}

// newFixture は A1 の本 B1（total 冊）と会員 M1（有効）/ M2（無効）を用意する。
func newFixture(t *testing.T, total int, opts Options) fixture {
	t.Helper()
	conn := testutil.OpenDB(t)
	testutil.SeedAuthor(t, conn, "A1")
	testutil.SeedBook(t, conn, "B1", "A1", "9780306406157", total)
	testutil.SeedMember(t, conn, "M1", true)
	testutil.SeedMember(t, conn, "M2", false)

	fees := PerDayFee{Rate: decimal.RequireFromString("0.50")}
	svc := NewService(conn, catalog.NewStore(conn), members.NewStore(conn), fees, opts)
	clock := &ident.FixedClock{T: testutil.Epoch}
	svc.clock = clock
	return fixture{svc: svc, conn: conn, clock: clock}
}

// assertInvariant は 0 <= available <= total かつ available == total - 貸出中件数 を確認する。
func assertInvariant(t *testing.T, conn *sql.DB, bookID string) {
	t.Helper()
	total, available := testutil.BookCopies(t, conn, bookID)
	open := testutil.CountOpenLoans(t, conn, bookID)
	assert.GreaterOrEqual(t, available, 0)
	assert.LessOrEqual(t, available, total)
	assert.Equal(t, total-open, available, "available must equal total minus open loans")
}

func bookVersion(t *testing.T, conn *sql.DB, bookID string) int64 {
	t.Helper()
	var v int64
	if err := conn.QueryRow(`SELECT version FROM books WHERE book_id = ?`, bookID).Scan(&v); err != nil {
		t.Fatal(err)
	}
	return v
}
