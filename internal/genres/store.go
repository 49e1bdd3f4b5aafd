package genres

import (
	"context"
	"database/sql"
	"errors"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// GET /genres?all=1
func (s *Store) List(ctx context.Context, includeDisabled bool) ([]Genre, error) {
	q := `SELECT genre_code, genre_name, is_disabled FROM genres`
	if !includeDisabled {
		q += ` WHERE is_disabled = FALSE`
	}
	q += ` ORDER BY genre_code`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]Genre, 0, 16)
	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.Code, &g.Name, &g.IsDisabled); err != nil {
			return nil, err
		}
		res = append(res, g)
	}
	return res, rows.Err()
}

// Get は存在しなければ nil, nil を返す。
func (s *Store) Get(ctx context.Context, code string) (*Genre, error) {
	const q = `SELECT genre_code, genre_name, is_disabled FROM genres WHERE genre_code = ?`
	var g Genre
	err := s.db.QueryRowContext(ctx, q, code).Scan(&g.Code, &g.Name, &g.IsDisabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) Create(ctx context.Context, g *Genre) error {
	const q = `INSERT INTO genres (genre_code, genre_name, is_disabled) VALUES (?, ?, FALSE)`
	_, err := s.db.ExecContext(ctx, q, g.Code, g.Name)
	return err
}

// Update は値が変わらなくても成功扱いにする（MySQL は変更なしだと 0 行を返す）。
func (s *Store) Update(ctx context.Context, g *Genre) error {
	const q = `UPDATE genres SET genre_name = ?, is_disabled = ? WHERE genre_code = ?`
	_, err := s.db.ExecContext(ctx, q, g.Name, g.IsDisabled, g.Code)
	return err
}

// SetDisabled: DELETE は is_disabled=TRUE にするだけ
func (s *Store) SetDisabled(ctx context.Context, code string, disabled bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE genres SET is_disabled = ? WHERE genre_code = ?`, disabled, code)
	return err
}

// Usable は catalog が本に分類を付けるときに使う。無効化済みは使えない。
func (s *Store) Usable(ctx context.Context, code string) (bool, error) {
	g, err := s.Get(ctx, code)
	if err != nil || g == nil {
		return false, err
	}
	return !g.IsDisabled, nil
}
