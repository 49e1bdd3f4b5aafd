package lending

import (
	"context"
	"fmt"
	"strings"
	"time"

	"library-backend/internal/platform/apierr"
	"library-backend/internal/platform/db"
)

const (
	StatsByBook   = "book"
	StatsByMember = "member"

	defaultStatsLimit = 10
	maxStatsLimit     = 100
	dateLayout        = "2006-01-02"
)

type StatsRequest struct {
	By    string // book | member
	From  string // YYYY-MM-DD
	To    string // YYYY-MM-DD（この日を含む）
	Limit int
}

type StatsRow struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Stats は期間内に貸し出した回数の多い順に本（または利用者）を返す。
func (l *Ledger) Stats(ctx context.Context, by string, from, to time.Time, limit int) ([]StatsRow, error) {
	var q string
	switch by {
	case StatsByBook:
		q = `
		SELECT b.book_id, b.title, COUNT(*) AS cnt
		FROM loans l JOIN books b ON b.book_id = l.book_id
		WHERE l.loaned_at >= ? AND l.loaned_at < ?
		GROUP BY b.book_id, b.title
		ORDER BY cnt DESC, b.book_id ASC
		LIMIT ?`
	case StatsByMember:
		q = `
		SELECT m.member_id, m.last_name, m.first_name, COUNT(*) AS cnt
		FROM loans l JOIN members m ON m.member_id = l.member_id
		WHERE l.loaned_at >= ? AND l.loaned_at < ?
		GROUP BY m.member_id, m.last_name, m.first_name
		ORDER BY cnt DESC, m.member_id ASC
		LIMIT ?`
	default:
		return nil, fmt.Errorf("unknown stats key %q", by)
	}

	rows, err := l.db.QueryContext(ctx, q, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatsRow
	for rows.Next() {
		var r StatsRow
		if by == StatsByMember {
			var last, first string
			if err := rows.Scan(&r.ID, &last, &first, &r.Count); err != nil {
				return nil, err
			}
			r.Label = last + " " + first
		} else if err := rows.Scan(&r.ID, &r.Label, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats: GET /loans/stats
func (s *Service) Stats(ctx context.Context, req StatsRequest) ([]StatsRow, error) {
	by := strings.ToLower(strings.TrimSpace(req.By))
	if by == "" {
		by = StatsByBook
	}
	if by != StatsByBook && by != StatsByMember {
		return nil, apierr.Invalid("by must be book or member")
	}
	from, err := parseDay(req.From)
	if err != nil {
		return nil, apierr.Invalid("from must be YYYY-MM-DD")
	}
	to, err := parseDay(req.To)
	if err != nil {
		return nil, apierr.Invalid("to must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, apierr.Invalid("to must be >= from")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultStatsLimit
	}
	if limit > maxStatsLimit {
		limit = maxStatsLimit
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	out, err := s.ledger.Stats(ctx, by, from, to.AddDate(0, 0, 1), limit)
	if err != nil {
		return nil, db.Wrap(err)
	}
	if out == nil {
		out = []StatsRow{}
	}
	return out, nil
}

func parseDay(v string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(v), time.UTC)
}
