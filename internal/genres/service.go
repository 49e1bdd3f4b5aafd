package genres

import (
	"context"
	"database/sql"
	"strings"

	"library-backend/internal/platform/apierr"
	"library-backend/internal/platform/db"
)

var ErrGenreNotFound = apierr.NotFound("genre not found")

type Service struct{ store *Store }

func NewService(conn *sql.DB) *Service { return &Service{store: NewStore(conn)} }

func (s *Service) Store() *Store { return s.store }

func parseBoolish(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	return v == "1" || v == "true" || v == "yes" || v == "all"
}

// normalizeCode は大文字にそろえる（"913" や "LIT" のような短いコード）。
func normalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", apierr.Invalid("code is required")
	}
	if len(code) > 16 {
		return "", apierr.Invalid("code must be at most 16 characters")
	}
	return code, nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apierr.Invalid("name is required")
	}
	return name, nil
}

func (s *Service) List(ctx context.Context, all string) ([]Genre, error) {
	res, err := s.store.List(ctx, parseBoolish(all))
	if err != nil {
		return nil, db.Wrap(err)
	}
	return res, nil
}

func (s *Service) Get(ctx context.Context, code string) (*Genre, error) {
	c, err := normalizeCode(code)
	if err != nil {
		return nil, err
	}
	g, err := s.store.Get(ctx, c)
	if err != nil {
		return nil, db.Wrap(err)
	}
	if g == nil {
		return nil, ErrGenreNotFound
	}
	return g, nil
}

func (s *Service) Create(ctx context.Context, in CreateGenreRequest) (*Genre, error) {
	c, err := normalizeCode(in.Code)
	if err != nil {
		return nil, err
	}
	n, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	g := &Genre{Code: c, Name: n}
	if err := s.store.Create(ctx, g); err != nil {
		if db.IsDuplicateKey(err) {
			return nil, apierr.Conflict("genre code already exists")
		}
		return nil, db.Wrap(err)
	}
	return g, nil
}

func (s *Service) Update(ctx context.Context, code string, in UpdateGenreRequest) (*Genre, error) {
	g, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if g.Name, err = normalizeName(in.Name); err != nil {
		return nil, err
	}
	g.IsDisabled = in.IsDisabled
	if err := s.store.Update(ctx, g); err != nil {
		return nil, db.Wrap(err)
	}
	return g, nil
}

// Delete は論理削除。付与済みの本はそのまま残る。
func (s *Service) Delete(ctx context.Context, code string) error {
	g, err := s.Get(ctx, code)
	if err != nil {
		return err
	}
	if err := s.store.SetDisabled(ctx, g.Code, true); err != nil {
		return db.Wrap(err)
	}
	return nil
}
