package db

import (
	"context"
	"database/sql"
	"fmt"
)

// MySQL / SQLite の両方でそのまま流せる DDL だけを使う。
// ID はすべて ULID 文字列なので AUTO_INCREMENT は使わない。
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            VARCHAR(64)  NOT NULL PRIMARY KEY,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(32)  NOT NULL,
		is_disabled   BOOLEAN      NOT NULL DEFAULT FALSE,
		created_at    DATETIME     NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS authors (
		author_id   VARCHAR(26)  NOT NULL PRIMARY KEY,
		first_name  VARCHAR(100) NOT NULL,
		last_name   VARCHAR(100) NOT NULL,
		biography   TEXT,
		nationality VARCHAR(100),
		created_at  DATETIME     NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS genres (
		genre_code  VARCHAR(16)  NOT NULL PRIMARY KEY,
		genre_name  VARCHAR(100) NOT NULL,
		is_disabled BOOLEAN      NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS books (
		book_id          VARCHAR(26)  NOT NULL PRIMARY KEY,
		isbn             VARCHAR(13)  NOT NULL UNIQUE,
		title            VARCHAR(255) NOT NULL,
		author_id        VARCHAR(26)  NOT NULL,
		genre_code       VARCHAR(16),
		total_copies     INT          NOT NULL,
		available_copies INT          NOT NULL,
		version          BIGINT       NOT NULL DEFAULT 0,
		created_at       DATETIME     NOT NULL,
		updated_at       DATETIME     NOT NULL,
		CHECK (available_copies >= 0 AND available_copies <= total_copies),
		FOREIGN KEY (author_id) REFERENCES authors (author_id),
		FOREIGN KEY (genre_code) REFERENCES genres (genre_code)
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		member_id         VARCHAR(26)  NOT NULL PRIMARY KEY,
		first_name        VARCHAR(100) NOT NULL,
		last_name         VARCHAR(100) NOT NULL,
		email             VARCHAR(255) NOT NULL UNIQUE,
		phone             VARCHAR(32),
		membership_number VARCHAR(32)  NOT NULL UNIQUE,
		is_active         BOOLEAN      NOT NULL DEFAULT TRUE,
		joined_at         DATETIME     NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS loans (
		loan_id     VARCHAR(26)   NOT NULL PRIMARY KEY,
		book_id     VARCHAR(26)   NOT NULL,
		member_id   VARCHAR(26)   NOT NULL,
		loaned_at   DATETIME      NOT NULL,
		due_at      DATETIME      NOT NULL,
		returned_at DATETIME,
		late_fee    DECIMAL(10,2),
		renew_count INT           NOT NULL DEFAULT 0,
		FOREIGN KEY (book_id) REFERENCES books (book_id),
		FOREIGN KEY (member_id) REFERENCES members (member_id)
	)`,
}

// Migrate はテーブルが無ければ作成する。
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
