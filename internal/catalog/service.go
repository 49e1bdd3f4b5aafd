package catalog

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"library-backend/internal/platform/apierr"
	"library-backend/internal/platform/db"
	"library-backend/internal/platform/ident"
	"library-backend/internal/platform/paging"
)

var (
	ErrBookNotFound   = apierr.New(apierr.CodeBookNotFound, "book not found")
	ErrAuthorNotFound = apierr.New(apierr.CodeAuthorNotFound, "author not found")
)

// GenreChecker は分類コードが付与可能か（存在し、無効化されていないか）を返す。
type GenreChecker interface {
	Usable(ctx context.Context, code string) (bool, error)
}

type Service struct {
	store  *Store
	genres GenreChecker
	clock  ident.Clock
	id     ident.IDGen
}

func NewService(conn *sql.DB, gc GenreChecker) *Service {
	return &Service{
		store:  NewStore(conn),
		genres: gc,
		clock:  ident.RealClock{},
		id:     ident.ULIDGen{},
	}
}

// Store は lending が BookFinder として使う。
func (s *Service) Store() *Store { return s.store }

// ===== authors =====

func (s *Service) CreateAuthor(ctx context.Context, in CreateAuthorRequest) (AuthorResponse, error) {
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return AuthorResponse{}, apierr.Invalid("first_name and last_name are required")
	}
	now := s.clock.Now()
	a := &Author{
		AuthorID:    s.id.NewULID(now),
		FirstName:   first,
		LastName:    last,
		Biography:   toNullString(in.Biography),
		Nationality: toNullString(in.Nationality),
		CreatedAt:   now,
	}
	if err := s.store.CreateAuthor(ctx, a); err != nil {
		return AuthorResponse{}, db.Wrap(err)
	}
	return a.toDTO(), nil
}

func (s *Service) GetAuthor(ctx context.Context, id string) (AuthorResponse, error) {
	a, err := s.store.GetAuthor(ctx, id)
	if err != nil {
		return AuthorResponse{}, db.Wrap(err)
	}
	if a == nil {
		return AuthorResponse{}, ErrAuthorNotFound
	}
	return a.toDTO(), nil
}

func (s *Service) ListAuthors(ctx context.Context, f AuthorFilter, p paging.Page) (paging.Result[AuthorResponse], error) {
	rows, total, err := s.store.ListAuthors(ctx, f, p)
	if err != nil {
		return paging.Result[AuthorResponse]{}, db.Wrap(err)
	}
	items := make([]AuthorResponse, 0, len(rows))
	for _, a := range rows {
		items = append(items, a.toDTO())
	}
	return paging.NewResult(items, total, p), nil
}

func (s *Service) UpdateAuthor(ctx context.Context, id string, in UpdateAuthorRequest) (AuthorResponse, error) {
	a, err := s.store.GetAuthor(ctx, id)
	if err != nil {
		return AuthorResponse{}, db.Wrap(err)
	}
	if a == nil {
		return AuthorResponse{}, ErrAuthorNotFound
	}
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return AuthorResponse{}, apierr.Invalid("first_name must not be empty")
		}
		a.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		if strings.TrimSpace(*in.LastName) == "" {
			return AuthorResponse{}, apierr.Invalid("last_name must not be empty")
		}
		a.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Biography != nil {
		a.Biography = toNullString(in.Biography)
	}
	if in.Nationality != nil {
		a.Nationality = toNullString(in.Nationality)
	}
	if _, err := s.store.UpdateAuthor(ctx, a); err != nil {
		return AuthorResponse{}, db.Wrap(err)
	}
	return a.toDTO(), nil
}

// DeleteAuthor は本から参照されている著者を消さない。
func (s *Service) DeleteAuthor(ctx context.Context, id string) error {
	n, err := s.store.DeleteAuthor(ctx, id)
	if err != nil {
		return db.Wrap(err)
	}
	if n == 1 {
		return nil
	}
	ok, err := s.store.ExistsAuthor(ctx, id)
	if err != nil {
		return db.Wrap(err)
	}
	if !ok {
		return ErrAuthorNotFound
	}
	return apierr.Conflict("author is referenced by books")
}

// ===== books =====

func (s *Service) CreateBook(ctx context.Context, in CreateBookRequest) (BookResponse, error) {
	isbn, err := NormalizeISBN(in.ISBN)
	if err != nil {
		return BookResponse{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return BookResponse{}, apierr.Invalid("title is required")
	}
	if in.TotalCopies < 0 {
		return BookResponse{}, apierr.Invalid("total_copies must be >= 0")
	}
	ok, err := s.store.ExistsAuthor(ctx, in.AuthorID)
	if err != nil {
		return BookResponse{}, db.Wrap(err)
	}
	if !ok {
		return BookResponse{}, ErrAuthorNotFound
	}

	genre, err := s.resolveGenre(ctx, in.GenreCode)
	if err != nil {
		return BookResponse{}, err
	}

	now := s.clock.Now()
	b := &Book{
		BookID:      s.id.NewULID(now),
		ISBN:        isbn,
		Title:       title,
		AuthorID:    in.AuthorID,
		GenreCode:   genre,
		TotalCopies: in.TotalCopies,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateBook(ctx, b); err != nil {
		if db.IsDuplicateKey(err) {
			return BookResponse{}, apierr.Conflict("isbn already exists")
		}
		if db.IsForeignKey(err) {
			return BookResponse{}, ErrAuthorNotFound
		}
		return BookResponse{}, db.Wrap(err)
	}
	log.Printf("[INFO] book created: %s isbn=%s copies=%d", b.BookID, b.ISBN, b.TotalCopies)
	return b.ToDTO(), nil
}

func (s *Service) GetBook(ctx context.Context, id string) (BookResponse, error) {
	b, err := s.store.GetBook(ctx, id)
	if err != nil {
		return BookResponse{}, db.Wrap(err)
	}
	if b == nil {
		return BookResponse{}, ErrBookNotFound
	}
	return b.ToDTO(), nil
}

func (s *Service) ListBooks(ctx context.Context, f BookFilter, p paging.Page) (paging.Result[BookResponse], error) {
	if f.Genre != nil {
		g := strings.ToUpper(strings.TrimSpace(*f.Genre))
		f.Genre = &g
	}
	if f.ISBN != nil && *f.ISBN != "" {
		isbn, err := NormalizeISBN(*f.ISBN)
		if err != nil {
			return paging.Result[BookResponse]{}, err
		}
		f.ISBN = &isbn
	}
	rows, total, err := s.store.ListBooks(ctx, f, p)
	if err != nil {
		return paging.Result[BookResponse]{}, db.Wrap(err)
	}
	items := make([]BookResponse, 0, len(rows))
	for _, b := range rows {
		items = append(items, b.ToDTO())
	}
	return paging.NewResult(items, total, p), nil
}

func (s *Service) UpdateBook(ctx context.Context, id string, in UpdateBookRequest) (BookResponse, error) {
	b, err := s.store.GetBook(ctx, id)
	if err != nil {
		return BookResponse{}, db.Wrap(err)
	}
	if b == nil {
		return BookResponse{}, ErrBookNotFound
	}
	if in.ISBN != nil {
		isbn, err := NormalizeISBN(*in.ISBN)
		if err != nil {
			return BookResponse{}, err
		}
		b.ISBN = isbn
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return BookResponse{}, apierr.Invalid("title must not be empty")
		}
		b.Title = strings.TrimSpace(*in.Title)
	}
	if in.AuthorID != nil && *in.AuthorID != b.AuthorID {
		ok, err := s.store.ExistsAuthor(ctx, *in.AuthorID)
		if err != nil {
			return BookResponse{}, db.Wrap(err)
		}
		if !ok {
			return BookResponse{}, ErrAuthorNotFound
		}
		b.AuthorID = *in.AuthorID
	}
	if in.GenreCode != nil {
		if b.GenreCode, err = s.resolveGenre(ctx, in.GenreCode); err != nil {
			return BookResponse{}, err
		}
	}
	b.UpdatedAt = s.clock.Now()

	n, err := s.store.UpdateBookMeta(ctx, b)
	if err != nil {
		if db.IsDuplicateKey(err) {
			return BookResponse{}, apierr.Conflict("isbn already exists")
		}
		return BookResponse{}, db.Wrap(err)
	}
	if n == 0 {
		return BookResponse{}, ErrBookNotFound
	}
	// 冊数は別経路で変わりうるので取り直す
	return s.GetBook(ctx, id)
}

// DeleteBook は貸出履歴（台帳）が残っている本を消さない。
func (s *Service) DeleteBook(ctx context.Context, id string) error {
	n, err := s.store.DeleteBook(ctx, id)
	if err != nil {
		return db.Wrap(err)
	}
	if n == 1 {
		log.Printf("[INFO] book deleted: %s", id)
		return nil
	}
	b, err := s.store.GetBook(ctx, id)
	if err != nil {
		return db.Wrap(err)
	}
	if b == nil {
		return ErrBookNotFound
	}
	return apierr.Conflict("book has loan history")
}

// helpers

// resolveGenre: nil / 空文字は分類なし。
func (s *Service) resolveGenre(ctx context.Context, code *string) (sql.NullString, error) {
	ns := toNullString(code)
	if !ns.Valid {
		return ns, nil
	}
	ns.String = strings.ToUpper(ns.String)
	ok, err := s.genres.Usable(ctx, ns.String)
	if err != nil {
		return ns, db.Wrap(err)
	}
	if !ok {
		return ns, apierr.Invalid("unknown or disabled genre: " + ns.String)
	}
	return ns, nil
}

func toNullString(s *string) (ns sql.NullString) {
	if s != nil && strings.TrimSpace(*s) != "" {
		ns.Valid, ns.String = true, strings.TrimSpace(*s)
	}
	return
}

func nullToPtr(ns sql.NullString) *string {
	if ns.Valid {
		v := ns.String
		return &v
	}
	return nil
}
