package lending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"library-backend/internal/platform/db"
	"library-backend/internal/platform/paging"
)

// Ledger は loans テーブルへのアクセス。行は追記と返却/延長の更新のみで、削除はしない。
type Ledger struct{ db *sql.DB }

func NewLedger(conn *sql.DB) *Ledger { return &Ledger{db: conn} }

const loanColumns = `loan_id, book_id, member_id, loaned_at, due_at, returned_at, late_fee, renew_count`

func scanLoan(row interface{ Scan(...any) error }) (*Loan, error) {
	var l Loan
	if err := row.Scan(&l.LoanID, &l.BookID, &l.MemberID, &l.LoanedAt, &l.DueAt,
		&l.ReturnedAt, &l.LateFee, &l.RenewCount); err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLoan は存在しなければ nil, nil を返す。
func (l *Ledger) GetLoan(ctx context.Context, id string) (*Loan, error) {
	return getLoanTx(ctx, l.db, id)
}

func (l *Ledger) CountOpenLoans(ctx context.Context, bookID string) (int, error) {
	return countOpenLoansTx(ctx, l.db, bookID)
}

func (l *Ledger) ListOpenLoans(ctx context.Context, bookID string) ([]Loan, error) {
	q := `SELECT ` + loanColumns + ` FROM loans WHERE book_id = ? AND returned_at IS NULL ORDER BY loaned_at, loan_id`
	return queryLoans(ctx, l.db, q, bookID)
}

// ListOverdue は now 時点で期限を過ぎている貸出中ローンを期限の古い順に返す。
func (l *Ledger) ListOverdue(ctx context.Context, now time.Time) ([]Loan, error) {
	q := `SELECT ` + loanColumns + ` FROM loans WHERE returned_at IS NULL AND due_at < ? ORDER BY due_at, loan_id`
	return queryLoans(ctx, l.db, q, now)
}

func (l *Ledger) List(ctx context.Context, f Filter, now time.Time, p paging.Page) ([]Loan, int64, error) {
	where, args := f.where("", now)
	q := fmt.Sprintf(`SELECT %s FROM loans%s ORDER BY loaned_at %s, loan_id %s LIMIT ? OFFSET ?`,
		loanColumns, where, p.Order, p.Order)
	out, err := queryLoans(ctx, l.db, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ExportRow は CSV 出力用に書名と会員名を付けたローン。
type ExportRow struct {
	Loan
	Title      string
	MemberName string
}

// Export は filter に合う全ローンを loaned_at 昇順で fn に渡す。
func (l *Ledger) Export(ctx context.Context, f Filter, now time.Time, fn func(*ExportRow) error) error {
	const pageSize = 500
	where, args := f.where("l.", now)
	q := `
	SELECT l.loan_id, l.book_id, l.member_id, l.loaned_at, l.due_at, l.returned_at, l.late_fee, l.renew_count,
	       b.title, m.last_name, m.first_name
	FROM loans l
	JOIN books b ON b.book_id = l.book_id
	JOIN members m ON m.member_id = l.member_id` + where + `
	ORDER BY l.loaned_at, l.loan_id
	LIMIT ? OFFSET ?`

	for offset := 0; ; offset += pageSize {
		n, err := l.exportPage(ctx, q, append(args, pageSize, offset), fn)
		if err != nil {
			return err
		}
		if n < pageSize {
			return nil
		}
	}
}

func (l *Ledger) exportPage(ctx context.Context, q string, args []any, fn func(*ExportRow) error) (int, error) {
	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var (
			r           ExportRow
			last, first string
		)
		if err := rows.Scan(&r.LoanID, &r.BookID, &r.MemberID, &r.LoanedAt, &r.DueAt,
			&r.ReturnedAt, &r.LateFee, &r.RenewCount, &r.Title, &last, &first); err != nil {
			return n, err
		}
		r.MemberName = last + " " + first
		if err := fn(&r); err != nil {
			return n, err
		}
		n++
	}
	return n, rows.Err()
}

func (f Filter) where(prefix string, now time.Time) (string, []any) {
	var (
		wheres []string
		args   []any
	)
	if f.BookID != nil && *f.BookID != "" {
		wheres = append(wheres, prefix+"book_id = ?")
		args = append(args, *f.BookID)
	}
	if f.MemberID != nil && *f.MemberID != "" {
		wheres = append(wheres, prefix+"member_id = ?")
		args = append(args, *f.MemberID)
	}
	if f.Open != nil {
		if *f.Open {
			wheres = append(wheres, prefix+"returned_at IS NULL")
		} else {
			wheres = append(wheres, prefix+"returned_at IS NOT NULL")
		}
	}
	if f.Overdue {
		wheres = append(wheres, prefix+"returned_at IS NULL AND "+prefix+"due_at < ?")
		args = append(args, now)
	}
	if len(wheres) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wheres, " AND "), args
}

// ===== Tx 内で使う関数群 =====

func getLoanTx(ctx context.Context, q db.DBTX, id string) (*Loan, error) {
	l, err := scanLoan(q.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loans WHERE loan_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return l, err
}

// insertLoanTx は会員が有効な場合だけ台帳に追記する（0 行なら無効化済み）。
// 会員行を読む INSERT ... SELECT なので、同時に走る無効化とはロックで直列化される。
func insertLoanTx(ctx context.Context, q db.DBTX, l *Loan) (int64, error) {
	const stmt = `
	INSERT INTO loans (loan_id, book_id, member_id, loaned_at, due_at, returned_at, late_fee, renew_count)
	SELECT ?, ?, m.member_id, ?, ?, NULL, NULL, 0
	FROM members m
	WHERE m.member_id = ? AND m.is_active = TRUE`
	res, err := q.ExecContext(ctx, stmt, l.LoanID, l.BookID, l.LoanedAt, l.DueAt, l.MemberID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// markReturnedTx は貸出中のときだけ返却済みにする（既に返却済みなら 0 行）。
func markReturnedTx(ctx context.Context, q db.DBTX, id string, at time.Time, fee decimal.NullDecimal) (int64, error) {
	const stmt = `
	UPDATE loans
	SET returned_at = ?, late_fee = ?
	WHERE loan_id = ? AND returned_at IS NULL`
	res, err := q.ExecContext(ctx, stmt, at, fee, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// extendDueTx は読み取り時点から変わっていない貸出中ローンだけ延長する。
func extendDueTx(ctx context.Context, q db.DBTX, l *Loan, newDue time.Time) (int64, error) {
	const stmt = `
	UPDATE loans
	SET due_at = ?, renew_count = renew_count + 1
	WHERE loan_id = ? AND returned_at IS NULL AND renew_count = ?`
	res, err := q.ExecContext(ctx, stmt, newDue, l.LoanID, l.RenewCount)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func countOpenLoansTx(ctx context.Context, q db.DBTX, bookID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans WHERE book_id = ? AND returned_at IS NULL`, bookID).Scan(&n)
	return n, err
}

func queryLoans(ctx context.Context, q db.DBTX, query string, args ...any) ([]Loan, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}
