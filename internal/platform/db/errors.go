package db

import (
	"context"
	"database/sql/driver"
	"errors"

	mysql "github.com/go-sql-driver/mysql"
	sqlite3 "github.com/mattn/go-sqlite3"

	"library-backend/internal/platform/apierr"
)

func IsDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// 1451: 親行が参照されている / 1452: 参照先が存在しない
func IsForeignKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1451 || me.Number == 1452
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

// IsUnavailable はタイムアウト・接続断など、ストアに届かなかった系のエラーか判定する。
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// Wrap はストア到達不能系を STORE_UNAVAILABLE に変換する。APIError はそのまま返す。
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var api *apierr.APIError
	if errors.As(err, &api) {
		return err
	}
	if IsUnavailable(err) {
		return apierr.Unavailable("store unavailable")
	}
	return err
}
