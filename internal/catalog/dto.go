package catalog

import "time"

// ===== Requests =====

type CreateAuthorRequest struct {
	FirstName   string  `json:"first_name" binding:"required"`
	LastName    string  `json:"last_name" binding:"required"`
	Biography   *string `json:"biography,omitempty"`
	Nationality *string `json:"nationality,omitempty"`
}

type UpdateAuthorRequest struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Biography   *string `json:"biography,omitempty"`
	Nationality *string `json:"nationality,omitempty"`
}

type CreateBookRequest struct {
	ISBN        string  `json:"isbn" binding:"required"`
	Title       string  `json:"title" binding:"required"`
	AuthorID    string  `json:"author_id" binding:"required"`
	GenreCode   *string `json:"genre_code,omitempty"`
	TotalCopies int     `json:"total_copies"`
}

// 冊数は PUT /books/:book_id/copies でしか変更できない
type UpdateBookRequest struct {
	ISBN     *string `json:"isbn,omitempty"`
	Title    *string `json:"title,omitempty"`
	AuthorID *string `json:"author_id,omitempty"`
	// 空文字で分類を外す
	GenreCode *string `json:"genre_code,omitempty"`
}

// ===== Responses =====

type AuthorResponse struct {
	AuthorID    string    `json:"author_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Biography   *string   `json:"biography,omitempty"`
	Nationality *string   `json:"nationality,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type BookResponse struct {
	BookID          string    `json:"book_id"`
	ISBN            string    `json:"isbn"`
	Title           string    `json:"title"`
	AuthorID        string    `json:"author_id"`
	GenreCode       *string   `json:"genre_code,omitempty"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (a Author) toDTO() AuthorResponse {
	return AuthorResponse{
		AuthorID:    a.AuthorID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Biography:   nullToPtr(a.Biography),
		Nationality: nullToPtr(a.Nationality),
		CreatedAt:   a.CreatedAt,
	}
}

func (b Book) ToDTO() BookResponse {
	return BookResponse{
		BookID:          b.BookID,
		ISBN:            b.ISBN,
		Title:           b.Title,
		AuthorID:        b.AuthorID,
		GenreCode:       nullToPtr(b.GenreCode),
		TotalCopies:     b.TotalCopies,
		AvailableCopies: b.AvailableCopies,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}
