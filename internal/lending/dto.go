package lending

import (
	"strings"
	"time"

	"library-backend/internal/platform/apierr"
)

type IssueLoanRequest struct {
	BookID   string `json:"book_id" binding:"required"`
	MemberID string `json:"member_id" binding:"required"`
	DueAt    string `json:"due_at,omitempty"` // RFC3339 or YYYY-MM-DD。省略時は既定の貸出期間
}

type ReturnLoanRequest struct {
	ReturnedAt string `json:"returned_at,omitempty"` // 省略時は現在時刻
}

type RenewLoanRequest struct {
	DueAt string `json:"due_at" binding:"required"`
}

type AdjustCopiesRequest struct {
	TotalCopies *int `json:"total_copies" binding:"required"`
}

type LoanResponse struct {
	LoanID      string     `json:"loan_id"`
	BookID      string     `json:"book_id"`
	MemberID    string     `json:"member_id"`
	LoanedAt    time.Time  `json:"loaned_at"`
	DueAt       time.Time  `json:"due_at"`
	ReturnedAt  *time.Time `json:"returned_at,omitempty"`
	LateFee     *string    `json:"late_fee,omitempty"`
	RenewCount  int        `json:"renew_count"`
	IsOverdue   bool       `json:"is_overdue"`
	DaysOverdue int        `json:"days_overdue"`
}

func (l Loan) ToDTO(now time.Time) LoanResponse {
	r := LoanResponse{
		LoanID:      l.LoanID,
		BookID:      l.BookID,
		MemberID:    l.MemberID,
		LoanedAt:    l.LoanedAt,
		DueAt:       l.DueAt,
		RenewCount:  l.RenewCount,
		IsOverdue:   l.IsOverdue(now),
		DaysOverdue: l.DaysOverdue(now),
	}
	if l.ReturnedAt.Valid {
		t := l.ReturnedAt.Time
		r.ReturnedAt = &t
	}
	if l.LateFee.Valid {
		s := l.LateFee.Decimal.StringFixed(2)
		r.LateFee = &s
	}
	return r
}

// parseTime は RFC3339 と YYYY-MM-DD を受け付ける。日付だけならその日の終わり(UTC)。
func parseTime(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Truncate(time.Second), nil
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d.Add(24*time.Hour - time.Second), nil
	}
	return time.Time{}, apierr.Invalid("invalid " + field + " format, expected RFC3339 or YYYY-MM-DD")
}

// parseReturnedAt: 日付だけの返却日は min(その日の終わり, now)。当日の日付を未来扱いしない。
func parseReturnedAt(s string, now time.Time) (time.Time, error) {
	t, err := parseTime("returned_at", s)
	if err != nil {
		return t, err
	}
	if _, derr := time.Parse("2006-01-02", strings.TrimSpace(s)); derr == nil && t.After(now) {
		return now, nil
	}
	return t, nil
}
