package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Account struct {
	ID           string
	PasswordHash string
	Role         string
	IsDisabled   bool
	CreatedAt    time.Time
}

type AccountStore interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, a *Account) error
	Delete(ctx context.Context, id string) (int64, error)
	UpdateID(ctx context.Context, oldID, newID string) (int64, error)
	SetDisabled(ctx context.Context, id string, disabled bool) (int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// GetByID は存在しなければ nil, nil を返す。
func (s *Store) GetByID(ctx context.Context, id string) (*Account, error) {
	const q = `
	SELECT id, password_hash, role, is_disabled, created_at
	FROM accounts
	WHERE id = ?
	LIMIT 1`
	var a Account
	err := s.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.PasswordHash, &a.Role, &a.IsDisabled, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) Create(ctx context.Context, a *Account) error {
	const q = `
	INSERT INTO accounts (id, password_hash, role, is_disabled, created_at)
	VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, a.ID, a.PasswordHash, a.Role, a.IsDisabled, a.CreatedAt)
	return err
}

func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateID は PK の付け替え。衝突は一意制約で検出する。
func (s *Store) UpdateID(ctx context.Context, oldID, newID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET id = ? WHERE id = ?`, newID, oldID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) SetDisabled(ctx context.Context, id string, disabled bool) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET is_disabled = ? WHERE id = ?`, disabled, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
