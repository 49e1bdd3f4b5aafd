package catalog

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

// ===== authors =====

const authorColumns = `author_id, first_name, last_name, biography, nationality, created_at`

func scanAuthor(row interface{ Scan(...any) error }) (*Author, error) {
	var a Author
	if err := row.Scan(&a.AuthorID, &a.FirstName, &a.LastName, &a.Biography, &a.Nationality, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) CreateAuthor(ctx context.Context, a *Author) error {
	const q = `
	INSERT INTO authors (author_id, first_name, last_name, biography, nationality, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, a.AuthorID, a.FirstName, a.LastName, a.Biography, a.Nationality, a.CreatedAt)
	return err
}

// GetAuthor は存在しなければ nil, nil を返す。
func (s *Store) GetAuthor(ctx context.Context, id string) (*Author, error) {
	q := `SELECT ` + authorColumns + ` FROM authors WHERE author_id = ?`
	a, err := scanAuthor(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (s *Store) ExistsAuthor(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM authors WHERE author_id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) ListAuthors(ctx context.Context, f AuthorFilter, p paging.Page) ([]Author, int64, error) {
	var (
		wheres []string
		args   []any
	)
	if f.Name != nil && *f.Name != "" {
		wheres = append(wheres, "(first_name LIKE ? OR last_name LIKE ?)")
		like := "%" + *f.Name + "%"
		args = append(args, like, like)
	}
	where := ""
	if len(wheres) > 0 {
		where = " WHERE " + strings.Join(wheres, " AND ")
	}

	q := fmt.Sprintf(`SELECT %s FROM authors%s ORDER BY created_at %s, author_id %s LIMIT ? OFFSET ?`,
		authorColumns, where, p.Order, p.Order)
	rows, err := s.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM authors`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *Store) UpdateAuthor(ctx context.Context, a *Author) (int64, error) {
	const q = `
	UPDATE authors
	SET first_name = ?, last_name = ?, biography = ?, nationality = ?
	WHERE author_id = ?`
	res, err := s.db.ExecContext(ctx, q, a.FirstName, a.LastName, a.Biography, a.Nationality, a.AuthorID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteAuthor は本から参照されていない場合だけ消す（参照中なら 0 行）。
func (s *Store) DeleteAuthor(ctx context.Context, id string) (int64, error) {
	const q = `
	DELETE FROM authors
	WHERE author_id = ?
	AND NOT EXISTS (SELECT 1 FROM books WHERE books.author_id = ?)`
	res, err := s.db.ExecContext(ctx, q, id, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) CountBooksByAuthor(ctx context.Context, id string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE author_id = ?`, id).Scan(&n)
	return n, err
}

// ===== books =====

const bookColumns = `book_id, isbn, title, author_id, genre_code, total_copies, available_copies, version, created_at, updated_at`

func scanBook(row interface{ Scan(...any) error }) (*Book, error) {
	var b Book
	if err := row.Scan(&b.BookID, &b.ISBN, &b.Title, &b.AuthorID, &b.GenreCode, &b.TotalCopies, &b.AvailableCopies,
		&b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBook は新規登録のみ。貸出が無いので available = total で入れる。
func (s *Store) CreateBook(ctx context.Context, b *Book) error {
	const q = `
	INSERT INTO books
	(book_id, isbn, title, author_id, genre_code, total_copies, available_copies, version, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, b.BookID, b.ISBN, b.Title, b.AuthorID, b.GenreCode, b.TotalCopies, b.TotalCopies, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return err
	}
	b.AvailableCopies = b.TotalCopies
	return nil
}

// GetBook は存在しなければ nil, nil を返す。
func (s *Store) GetBook(ctx context.Context, id string) (*Book, error) {
	q := `SELECT ` + bookColumns + ` FROM books WHERE book_id = ?`
	b, err := scanBook(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (s *Store) ListBooks(ctx context.Context, f BookFilter, p paging.Page) ([]Book, int64, error) {
	var (
		wheres []string
		args   []any
	)
	if f.Title != nil && *f.Title != "" {
		wheres = append(wheres, "title LIKE ?")
		args = append(args, "%"+*f.Title+"%")
	}
	if f.AuthorID != nil && *f.AuthorID != "" {
		wheres = append(wheres, "author_id = ?")
		args = append(args, *f.AuthorID)
	}
	if f.ISBN != nil && *f.ISBN != "" {
		wheres = append(wheres, "isbn = ?")
		args = append(args, *f.ISBN)
	}
	if f.Genre != nil && *f.Genre != "" {
		wheres = append(wheres, "genre_code = ?")
		args = append(args, *f.Genre)
	}
	where := ""
	if len(wheres) > 0 {
		where = " WHERE " + strings.Join(wheres, " AND ")
	}

	q := fmt.Sprintf(`SELECT %s FROM books%s ORDER BY created_at %s, book_id %s LIMIT ? OFFSET ?`,
		bookColumns, where, p.Order, p.Order)
	rows, err := s.db.QueryContext(ctx, q, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateBookMeta は書誌情報だけを更新する。冊数には触らない。
func (s *Store) UpdateBookMeta(ctx context.Context, b *Book) (int64, error) {
	const q = `
	UPDATE books
	SET isbn = ?, title = ?, author_id = ?, genre_code = ?, updated_at = ?
	WHERE book_id = ?`
	res, err := s.db.ExecContext(ctx, q, b.ISBN, b.Title, b.AuthorID, b.GenreCode, b.UpdatedAt, b.BookID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteBook は貸出履歴が1件も無い場合だけ消す。
func (s *Store) DeleteBook(ctx context.Context, id string) (int64, error) {
	const q = `
	DELETE FROM books
	WHERE book_id = ?
	AND NOT EXISTS (SELECT 1 FROM loans WHERE loans.book_id = ?)`
	res, err := s.db.ExecContext(ctx, q, id, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
