package lending

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"library-backend/internal/catalog"
	"library-backend/internal/members"
	"library-backend/internal/platform/apierr"
	"library-backend/internal/platform/config"
	"library-backend/internal/platform/db"
	"library-backend/internal/platform/ident"
	"library-backend/internal/platform/paging"
)

// BookFinder / MemberFinder は見つからなければ nil, nil を返す。
type BookFinder interface {
	GetBook(ctx context.Context, id string) (*catalog.Book, error)
}

type MemberFinder interface {
	GetMember(ctx context.Context, id string) (*members.Member, error)
}

type Options struct {
	DefaultLoanPeriod time.Duration
	MaxRenewals       int // 0 なら無制限
	StoreTimeout      time.Duration
	ReadRetries       int
}

func OptionsFrom(cfg config.LendingConfig) Options {
	return Options{
		DefaultLoanPeriod: cfg.DefaultLoanPeriod(),
		MaxRenewals:       cfg.MaxRenewals,
		StoreTimeout:      cfg.StoreTimeout(),
		ReadRetries:       cfg.ReadRetries,
	}
}

type Service struct {
	db      *sql.DB
	books   BookFinder
	members MemberFinder
	engine  *Engine
	ledger  *Ledger
	fees    FeePolicy
	clock   ident.Clock
	id      ident.IDGen
	reads   db.ReadRetrier
	opts    Options
}

func NewService(conn *sql.DB, books BookFinder, mf MemberFinder, fees FeePolicy, opts Options) *Service {
	if opts.DefaultLoanPeriod <= 0 {
		opts.DefaultLoanPeriod = 14 * 24 * time.Hour
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	return &Service{
		db:      conn,
		books:   books,
		members: mf,
		engine:  NewEngine(conn),
		ledger:  NewLedger(conn),
		fees:    fees,
		clock:   ident.RealClock{},
		id:      ident.ULIDGen{},
		reads:   db.NewReadRetrier(opts.ReadRetries),
		opts:    opts,
	}
}

func (s *Service) Ledger() *Ledger { return s.ledger }

func (s *Service) Now() time.Time { return s.clock.Now() }

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opts.StoreTimeout)
}

// IssueLoan は在庫確保と台帳追記を1トランザクションで行う。
// dueAt が nil なら既定の貸出期間。
func (s *Service) IssueLoan(ctx context.Context, bookID, memberID string, dueAt *time.Time) (*Loan, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.clock.Now()
	due := now.Add(s.opts.DefaultLoanPeriod)
	if dueAt != nil {
		due = dueAt.UTC().Truncate(time.Second)
	}
	if !due.After(now) {
		return nil, ErrInvalidDueDate
	}

	// 事前チェックは冪等な読み取りなので再試行してよい
	var book *catalog.Book
	err := s.reads.Do(ctx, func(ctx context.Context) error {
		var err error
		book, err = s.books.GetBook(ctx, bookID)
		return err
	})
	if err != nil {
		return nil, db.Wrap(err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	var m *members.Member
	err = s.reads.Do(ctx, func(ctx context.Context) error {
		var err error
		m, err = s.members.GetMember(ctx, memberID)
		return err
	})
	if err != nil {
		return nil, db.Wrap(err)
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	if !m.IsActive {
		return nil, ErrMemberInactive
	}

	loan := &Loan{
		LoanID:   s.id.NewULID(now),
		BookID:   bookID,
		MemberID: memberID,
		LoanedAt: now,
		DueAt:    due,
	}
	// 書き込みは再試行しない（二重貸出になりうる）。台帳追記に失敗したら確保ごとロールバック
	err = db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		if err := s.engine.reserve(ctx, tx, bookID); err != nil {
			return err
		}
		n, err := insertLoanTx(ctx, tx, loan)
		if err != nil {
			return err
		}
		if n == 0 {
			// 事前チェック後に無効化された
			return ErrMemberInactive
		}
		return nil
	})
	if err != nil {
		return nil, db.Wrap(err)
	}
	log.Printf("[INFO] loan issued: %s book=%s member=%s due=%s", loan.LoanID, bookID, memberID, due.Format(time.RFC3339))
	return loan, nil
}

// ReturnLoan は返却記録と在庫戻しを1トランザクションで行う。
// 在庫戻しが OverRelease になったら返却記録も取り消し、整合性エラーとして返す。
func (s *Service) ReturnLoan(ctx context.Context, loanID string, returnedAt *time.Time) (*Loan, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.clock.Now()
	at := now
	if returnedAt != nil {
		at = returnedAt.UTC().Truncate(time.Second)
		if at.After(now) {
			return nil, apierr.Invalid("returned_at must not be in the future")
		}
	}

	var loan *Loan
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		l, err := getLoanTx(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if l == nil {
			return ErrLoanNotFound
		}
		if !l.IsOpen() {
			return ErrAlreadyReturned
		}
		if at.Before(l.LoanedAt) {
			return apierr.Invalid("returned_at must not be before loaned_at")
		}

		var fee decimal.NullDecimal
		if days := daysLate(l.DueAt, at); days > 0 {
			fee = decimal.NullDecimal{Decimal: s.fees.LateFee(days), Valid: true}
		}
		n, err := markReturnedTx(ctx, tx, loanID, at, fee)
		if err != nil {
			return err
		}
		if n == 0 {
			// 並行して返却された
			return ErrAlreadyReturned
		}
		if err := s.engine.release(ctx, tx, l.BookID); err != nil {
			return err
		}

		l.ReturnedAt = sql.NullTime{Time: at, Valid: true}
		l.LateFee = fee
		loan = l
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOverRelease) || errors.Is(err, ErrInvariantBreach) {
			log.Printf("[ERROR] return of loan %s rolled back: %v", loanID, err)
		}
		return nil, db.Wrap(err)
	}
	if loan.LateFee.Valid {
		log.Printf("[INFO] loan returned late: %s fee=%s", loanID, loan.LateFee.Decimal.StringFixed(2))
	} else {
		log.Printf("[INFO] loan returned: %s", loanID)
	}
	return loan, nil
}

// RenewLoan は期限だけを延ばす。在庫には触らない。
func (s *Service) RenewLoan(ctx context.Context, loanID string, newDue time.Time) (*Loan, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	newDue = newDue.UTC().Truncate(time.Second)

	var loan *Loan
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		l, err := getLoanTx(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if l == nil {
			return ErrLoanNotFound
		}
		if !l.IsOpen() {
			return ErrAlreadyReturned
		}
		if !newDue.After(l.DueAt) {
			return ErrInvalidDueDate
		}
		if s.opts.MaxRenewals > 0 && l.RenewCount >= s.opts.MaxRenewals {
			return ErrRenewalLimit
		}
		n, err := extendDueTx(ctx, tx, l, newDue)
		if err != nil {
			return err
		}
		if n == 0 {
			return apierr.Conflict("loan was modified concurrently, try again")
		}
		l.DueAt = newDue
		l.RenewCount++
		loan = l
		return nil
	})
	if err != nil {
		return nil, db.Wrap(err)
	}
	log.Printf("[INFO] loan renewed: %s due=%s (renewals %d)", loanID, newDue.Format(time.RFC3339), loan.RenewCount)
	return loan, nil
}

func (s *Service) GetLoan(ctx context.Context, loanID string) (*Loan, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var l *Loan
	err := s.reads.Do(ctx, func(ctx context.Context) error {
		var err error
		l, err = s.ledger.GetLoan(ctx, loanID)
		return err
	})
	if err != nil {
		return nil, db.Wrap(err)
	}
	if l == nil {
		return nil, ErrLoanNotFound
	}
	return l, nil
}

func (s *Service) ListLoans(ctx context.Context, f Filter, p paging.Page) (paging.Result[LoanResponse], error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.clock.Now()
	rows, total, err := s.ledger.List(ctx, f, now, p)
	if err != nil {
		return paging.Result[LoanResponse]{}, db.Wrap(err)
	}
	items := make([]LoanResponse, 0, len(rows))
	for _, l := range rows {
		items = append(items, l.ToDTO(now))
	}
	return paging.NewResult(items, total, p), nil
}

// ListOpenLoans は本の貸出中ローン。本が無ければ BookNotFound。
func (s *Service) ListOpenLoans(ctx context.Context, bookID string) ([]Loan, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		return nil, db.Wrap(err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	out, err := s.ledger.ListOpenLoans(ctx, bookID)
	return out, db.Wrap(err)
}

func (s *Service) ListOverdue(ctx context.Context) ([]Loan, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out, err := s.ledger.ListOverdue(ctx, s.clock.Now())
	return out, db.Wrap(err)
}

func (s *Service) AdjustTotalCopies(ctx context.Context, bookID string, newTotal int) (*Availability, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	a, err := s.engine.AdjustTotalCopies(ctx, bookID, newTotal, s.clock.Now())
	return a, db.Wrap(err)
}

func (s *Service) CheckBook(ctx context.Context, bookID string) (*Availability, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	a, err := s.engine.CheckBook(ctx, bookID)
	return a, db.Wrap(err)
}
