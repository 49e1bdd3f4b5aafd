package lending

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"library-backend/internal/platform/apierr"
	"library-backend/internal/platform/db"
)

const (
	EncodingUTF8 = "utf8"
	EncodingSJIS = "sjis" // Excel 向け（CP932 相当）
)

var csvHeader = []string{
	"loan_id", "book_id", "title", "member_id", "member_name", "loaned_at", "due_at",
	"returned_at", "late_fee", "renew_count", "days_overdue",
}

// ExportCSV は filter に合うローンを CSV で w に書き出す。
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, f Filter, encoding string) error {
	switch encoding {
	case "", EncodingUTF8:
	case EncodingSJIS:
		tw := transform.NewWriter(w, japanese.ShiftJIS.NewEncoder())
		defer tw.Close()
		w = tw
	default:
		return apierr.Invalid("encoding must be utf8 or sjis")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.clock.Now()
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	err := s.ledger.Export(ctx, f, now, func(r *ExportRow) error {
		return cw.Write(exportRecord(r, now))
	})
	if err != nil {
		return db.Wrap(err)
	}
	cw.Flush()
	return cw.Error()
}

func exportRecord(l *ExportRow, now time.Time) []string {
	returned, fee := "", ""
	if l.ReturnedAt.Valid {
		returned = l.ReturnedAt.Time.Format(time.RFC3339)
	}
	if l.LateFee.Valid {
		fee = l.LateFee.Decimal.StringFixed(2)
	}
	return []string{
		l.LoanID,
		l.BookID,
		l.Title,
		l.MemberID,
		l.MemberName,
		l.LoanedAt.Format(time.RFC3339),
		l.DueAt.Format(time.RFC3339),
		returned,
		fee,
		strconv.Itoa(l.RenewCount),
		strconv.Itoa(l.DaysOverdue(now)),
	}
}
