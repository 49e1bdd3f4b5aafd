package members

import (
	"database/sql"
	"time"
)

// Member は members テーブルの1行
type Member struct {
	MemberID         string
	FirstName        string
	LastName         string
	Email            string
	Phone            sql.NullString
	MembershipNumber string
	IsActive         bool
	JoinedAt         time.Time
}

type Filter struct {
	Name   *string // first_name / last_name 部分一致
	Email  *string
	Active *bool
}
