package members

import (
	"context"
	"database/sql"
	"log"
	"net/mail"
	"strings"

	"library-backend/internal/platform/apierr"
	"library-backend/internal/platform/db"
	"library-backend/internal/platform/ident"
	"library-backend/internal/platform/paging"
)

var (
	ErrMemberNotFound     = apierr.New(apierr.CodeMemberNotFound, "member not found")
	ErrMemberHasOpenLoans = apierr.New(apierr.CodeMemberHasOpenLoans, "member has open loans")
)

type Service struct {
	store *Store
	clock ident.Clock
	id    ident.IDGen
}

func NewService(conn *sql.DB) *Service {
	return &Service{
		store: NewStore(conn),
		clock: ident.RealClock{},
		id:    ident.ULIDGen{},
	}
}

// Store は lending が MemberFinder として使う。
func (s *Service) Store() *Store { return s.store }

func (s *Service) Create(ctx context.Context, in CreateMemberRequest) (MemberResponse, error) {
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return MemberResponse{}, apierr.Invalid("first_name and last_name are required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return MemberResponse{}, err
	}

	now := s.clock.Now()
	id := s.id.NewULID(now)
	m := &Member{
		MemberID:  id,
		FirstName: first,
		LastName:  last,
		Email:     email,
		Phone:     toNullString(in.Phone),
		IsActive:  true,
		JoinedAt:  now,
	}
	if in.MembershipNumber != nil && strings.TrimSpace(*in.MembershipNumber) != "" {
		m.MembershipNumber = strings.TrimSpace(*in.MembershipNumber)
	} else {
		// ULID の乱数部だけで十分ユニーク
		m.MembershipNumber = "M" + id[10:]
	}

	if err := s.store.Create(ctx, m); err != nil {
		if db.IsDuplicateKey(err) {
			return MemberResponse{}, apierr.Conflict("email or membership_number already exists")
		}
		return MemberResponse{}, db.Wrap(err)
	}
	log.Printf("[INFO] member created: %s (%s)", m.MemberID, m.MembershipNumber)
	return m.ToDTO(), nil
}

func (s *Service) Get(ctx context.Context, id string) (MemberResponse, error) {
	m, err := s.store.GetMember(ctx, id)
	if err != nil {
		return MemberResponse{}, db.Wrap(err)
	}
	if m == nil {
		return MemberResponse{}, ErrMemberNotFound
	}
	return m.ToDTO(), nil
}

func (s *Service) List(ctx context.Context, f Filter, p paging.Page) (paging.Result[MemberResponse], error) {
	rows, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return paging.Result[MemberResponse]{}, db.Wrap(err)
	}
	items := make([]MemberResponse, 0, len(rows))
	for _, m := range rows {
		items = append(items, m.ToDTO())
	}
	return paging.NewResult(items, total, p), nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateMemberRequest) (MemberResponse, error) {
	m, err := s.store.GetMember(ctx, id)
	if err != nil {
		return MemberResponse{}, db.Wrap(err)
	}
	if m == nil {
		return MemberResponse{}, ErrMemberNotFound
	}
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return MemberResponse{}, apierr.Invalid("first_name must not be empty")
		}
		m.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		if strings.TrimSpace(*in.LastName) == "" {
			return MemberResponse{}, apierr.Invalid("last_name must not be empty")
		}
		m.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return MemberResponse{}, err
		}
		m.Email = email
	}
	if in.Phone != nil {
		m.Phone = toNullString(in.Phone)
	}

	// MySQL は値が変わらないと 0 行を返すので件数は見ない
	if _, err := s.store.UpdateContact(ctx, m); err != nil {
		if db.IsDuplicateKey(err) {
			return MemberResponse{}, apierr.Conflict("email already exists")
		}
		return MemberResponse{}, db.Wrap(err)
	}
	return m.ToDTO(), nil
}

// Deactivate は未返却の貸出がある会員を force なしでは無効化しない。
// force で無効化しても貸出はそのまま（返却は受け付ける）。
func (s *Service) Deactivate(ctx context.Context, id string, force bool) (MemberResponse, error) {
	n, err := s.store.Deactivate(ctx, id, force)
	if err != nil {
		return MemberResponse{}, db.Wrap(err)
	}
	m, err := s.store.GetMember(ctx, id)
	if err != nil {
		return MemberResponse{}, db.Wrap(err)
	}
	if m == nil {
		return MemberResponse{}, ErrMemberNotFound
	}
	if n == 0 && m.IsActive {
		return MemberResponse{}, ErrMemberHasOpenLoans
	}
	if force {
		open, err := s.store.CountOpenLoans(ctx, id)
		if err == nil && open > 0 {
			log.Printf("[WARN] member %s deactivated with %d open loans", id, open)
		}
	}
	return m.ToDTO(), nil
}

func (s *Service) Reactivate(ctx context.Context, id string) (MemberResponse, error) {
	if _, err := s.store.Reactivate(ctx, id); err != nil {
		return MemberResponse{}, db.Wrap(err)
	}
	return s.Get(ctx, id)
}

func normalizeEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", apierr.Invalid("invalid email")
	}
	return strings.ToLower(s), nil
}

func toNullString(s *string) (ns sql.NullString) {
	if s != nil && strings.TrimSpace(*s) != "" {
		ns.Valid, ns.String = true, strings.TrimSpace(*s)
	}
	return
}
