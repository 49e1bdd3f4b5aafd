package lending

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"library-backend/internal/platform/apierr"
	"library-backend/internal/platform/db"
)

const defaultAdjustAttempts = 5

// Engine は books.available_copies を書き換える唯一の場所。
// 1冊単位の排他は UPDATE の条件（CAS）と version 列で取る。
type Engine struct {
	db             *sql.DB
	adjustAttempts int
}

func NewEngine(conn *sql.DB) *Engine {
	return &Engine{db: conn, adjustAttempts: defaultAdjustAttempts}
}

// ReserveCopy は在庫を1つ確保する。貸出トランザクションの外から単独で呼ぶ用途向け。
func (e *Engine) ReserveCopy(ctx context.Context, bookID string) error {
	return db.RunInTx(ctx, e.db, nil, func(ctx context.Context, tx db.DBTX) error {
		return e.reserve(ctx, tx, bookID)
	})
}

// ReleaseCopy は在庫を1つ戻す。
func (e *Engine) ReleaseCopy(ctx context.Context, bookID string) error {
	return db.RunInTx(ctx, e.db, nil, func(ctx context.Context, tx db.DBTX) error {
		return e.release(ctx, tx, bookID)
	})
}

func (e *Engine) reserve(ctx context.Context, q db.DBTX, bookID string) error {
	const stmt = `
	UPDATE books
	SET available_copies = available_copies - 1, version = version + 1
	WHERE book_id = ? AND available_copies > 0`
	res, err := q.ExecContext(ctx, stmt, bookID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return checkBounds(ctx, q, bookID)
	}

	// 0 行: 本が無いのか在庫切れなのかを切り分ける
	if _, _, err := readCopies(ctx, q, bookID); err != nil {
		return err
	}
	return ErrNoCopyAvailable
}

func (e *Engine) release(ctx context.Context, q db.DBTX, bookID string) error {
	const stmt = `
	UPDATE books
	SET available_copies = available_copies + 1, version = version + 1
	WHERE book_id = ? AND available_copies < total_copies`
	res, err := q.ExecContext(ctx, stmt, bookID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return checkBounds(ctx, q, bookID)
	}

	total, available, err := readCopies(ctx, q, bookID)
	if err != nil {
		return err
	}
	// 丸めずに止める
	log.Printf("[ERROR] over-release on book %s: available=%d total=%d", bookID, available, total)
	return ErrOverRelease
}

// AdjustTotalCopies は総冊数を変更し、available = newTotal - 貸出中件数 で再計算する。
// version が読み取り後に変わっていたら読み直して再試行する。
func (e *Engine) AdjustTotalCopies(ctx context.Context, bookID string, newTotal int, now time.Time) (*Availability, error) {
	if newTotal < 0 {
		return nil, apierr.Invalid("total_copies must be >= 0")
	}

	for attempt := 1; attempt <= e.adjustAttempts; attempt++ {
		var (
			out      *Availability
			conflict bool
		)
		err := db.RunInTx(ctx, e.db, nil, func(ctx context.Context, tx db.DBTX) error {
			var version int64
			err := tx.QueryRowContext(ctx, `SELECT version FROM books WHERE book_id = ?`, bookID).Scan(&version)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrBookNotFound
			}
			if err != nil {
				return err
			}
			open, err := countOpenLoansTx(ctx, tx, bookID)
			if err != nil {
				return err
			}
			if newTotal < open {
				return ErrBelowOpenLoanCount
			}

			const stmt = `
			UPDATE books
			SET total_copies = ?, available_copies = ?, version = version + 1, updated_at = ?
			WHERE book_id = ? AND version = ?`
			res, err := tx.ExecContext(ctx, stmt, newTotal, newTotal-open, now, bookID, version)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				conflict = true
				return nil
			}
			out = &Availability{
				BookID:          bookID,
				TotalCopies:     newTotal,
				AvailableCopies: newTotal - open,
				OpenLoans:       open,
				Consistent:      true,
			}
			return checkBounds(ctx, tx, bookID)
		})
		if err != nil {
			return nil, err
		}
		if !conflict {
			log.Printf("[INFO] book %s total copies -> %d (open loans %d)", bookID, out.TotalCopies, out.OpenLoans)
			return out, nil
		}
		log.Printf("[WARN] version conflict adjusting book %s (attempt %d)", bookID, attempt)
	}
	return nil, apierr.Conflict("book was modified concurrently, try again")
}

// CheckBook は 0 <= available <= total と available == total - 貸出中件数 を検証する。
func (e *Engine) CheckBook(ctx context.Context, bookID string) (*Availability, error) {
	var out *Availability
	err := db.RunInTx(ctx, e.db, nil, func(ctx context.Context, tx db.DBTX) error {
		total, available, err := readCopies(ctx, tx, bookID)
		if err != nil {
			return err
		}
		open, err := countOpenLoansTx(ctx, tx, bookID)
		if err != nil {
			return err
		}
		out = &Availability{
			BookID:          bookID,
			TotalCopies:     total,
			AvailableCopies: available,
			OpenLoans:       open,
			Consistent:      available >= 0 && available <= total && available == total-open,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !out.Consistent {
		log.Printf("[ERROR] availability mismatch on book %s: total=%d available=%d open_loans=%d",
			bookID, out.TotalCopies, out.AvailableCopies, out.OpenLoans)
		return out, ErrInvariantBreach
	}
	return out, nil
}

func readCopies(ctx context.Context, q db.DBTX, bookID string) (total, available int, err error) {
	err = q.QueryRowContext(ctx, `SELECT total_copies, available_copies FROM books WHERE book_id = ?`, bookID).
		Scan(&total, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, ErrBookNotFound
	}
	return total, available, err
}

// checkBounds は更新直後の行が 0 <= available <= total を満たすか確認する。
func checkBounds(ctx context.Context, q db.DBTX, bookID string) error {
	total, available, err := readCopies(ctx, q, bookID)
	if err != nil {
		return err
	}
	if available < 0 || available > total {
		log.Printf("[ERROR] book %s out of bounds after update: available=%d total=%d", bookID, available, total)
		return ErrInvariantBreach
	}
	return nil
}
