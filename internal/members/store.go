package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"library-backend/internal/platform/paging"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const memberColumns = `member_id, first_name, last_name, email, phone, membership_number, is_active, joined_at`

func scanMember(row interface{ Scan(...any) error }) (*Member, error) {
	var m Member
	if err := row.Scan(&m.MemberID, &m.FirstName, &m.LastName, &m.Email, &m.Phone,
		&m.MembershipNumber, &m.IsActive, &m.JoinedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) Create(ctx context.Context, m *Member) error {
	const q = `
	INSERT INTO members (member_id, first_name, last_name, email, phone, membership_number, is_active, joined_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, m.MemberID, m.FirstName, m.LastName, m.Email, m.Phone,
		m.MembershipNumber, m.IsActive, m.JoinedAt)
	return err
}

// GetMember は存在しなければ nil, nil を返す。lending の MemberFinder でもある。
func (s *Store) GetMember(ctx context.Context, id string) (*Member, error) {
	q := `SELECT ` + memberColumns + ` FROM members WHERE member_id = ?`
	m, err := scanMember(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (s *Store) List(ctx context.Context, f Filter, p paging.Page) ([]Member, int64, error) {
	var (
		wheres []string
		args   []any
	)
	if f.Name != nil && *f.Name != "" {
		like := "%" + *f.Name + "%"
		wheres = append(wheres, "(first_name LIKE ? OR last_name LIKE ?)")
		args = append(args, like, like)
	}
	if f.Email != nil && *f.Email != "" {
		wheres = append(wheres, "email = ?")
		args = append(args, *f.Email)
	}
	if f.Active != nil {
		wheres = append(wheres, "is_active = ?")
		args = append(args, *f.Active)
	}
	where := ""
	if len(wheres) > 0 {
		where = " WHERE " + strings.Join(wheres, " AND ")
	}

	q := fmt.Sprintf(`SELECT %s FROM members%s ORDER BY joined_at %s, member_id %s LIMIT ? OFFSET ?`,
		memberColumns, where, p.Order, p.Order)
	rows, err := s.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) UpdateContact(ctx context.Context, m *Member) (int64, error) {
	const q = `
	UPDATE members
	SET first_name = ?, last_name = ?, email = ?, phone = ?
	WHERE member_id = ?`
	res, err := s.db.ExecContext(ctx, q, m.FirstName, m.LastName, m.Email, m.Phone, m.MemberID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Deactivate は force=false のとき未返却の貸出がある会員を無効化しない（0 行）。
func (s *Store) Deactivate(ctx context.Context, id string, force bool) (int64, error) {
	q := `UPDATE members SET is_active = ? WHERE member_id = ?`
	args := []any{false, id}
	if !force {
		q += ` AND NOT EXISTS (SELECT 1 FROM loans WHERE loans.member_id = ? AND loans.returned_at IS NULL)`
		args = append(args, id)
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Reactivate(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE members SET is_active = ? WHERE member_id = ?`, true, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) CountOpenLoans(ctx context.Context, id string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans WHERE member_id = ? AND returned_at IS NULL`, id).Scan(&n)
	return n, err
}
