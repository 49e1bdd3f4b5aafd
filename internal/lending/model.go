package lending

import (
	"database/sql"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Loan は loans テーブルの1行。ReturnedAt が NULL の間は貸出中。
// 行は削除しない（履歴台帳）。
type Loan struct {
	LoanID     string
	BookID     string
	MemberID   string
	LoanedAt   time.Time
	DueAt      time.Time
	ReturnedAt sql.NullTime
	LateFee    decimal.NullDecimal
	RenewCount int
}

func (l *Loan) IsOpen() bool { return !l.ReturnedAt.Valid }

func (l *Loan) IsOverdue(now time.Time) bool {
	return l.IsOpen() && now.After(l.DueAt)
}

// DaysOverdue は貸出中のローンについて期限超過日数（切り上げ）を返す。
func (l *Loan) DaysOverdue(now time.Time) int {
	if !l.IsOpen() {
		return 0
	}
	return daysLate(l.DueAt, now)
}

// 1秒でも過ぎれば1日
func daysLate(due, at time.Time) int {
	if !at.After(due) {
		return 0
	}
	return int(math.Ceil(at.Sub(due).Hours() / 24))
}

type Filter struct {
	BookID   *string
	MemberID *string
	Open     *bool
	Overdue  bool // true なら貸出中かつ期限切れのみ
}

// Availability は CheckBook の結果
type Availability struct {
	BookID          string `json:"book_id"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
	OpenLoans       int    `json:"open_loans"`
	Consistent      bool   `json:"consistent"`
}
