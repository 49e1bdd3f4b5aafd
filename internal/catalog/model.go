package catalog

import (
	"database/sql"
	"time"
)

// Author は authors テーブルの1行
type Author struct {
	AuthorID    string
	FirstName   string
	LastName    string
	Biography   sql.NullString
	Nationality sql.NullString
	CreatedAt   time.Time
}

// Book は books テーブルの1行。
// AvailableCopies は lending の在庫エンジン以外から書き換えないこと。
type Book struct {
	BookID          string
	ISBN            string
	Title           string
	AuthorID        string
	GenreCode       sql.NullString
	TotalCopies     int
	AvailableCopies int
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type AuthorFilter struct {
	Name *string // first_name / last_name 部分一致
}

type BookFilter struct {
	Title    *string
	AuthorID *string
	ISBN     *string
	Genre    *string
}
