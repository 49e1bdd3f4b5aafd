package ident

import (
	"crypto/rand"
	"time"

	ulid "github.com/oklog/ulid/v2"
)

type Clock interface{ Now() time.Time }

type RealClock struct{}

// DATETIME 列は秒精度なので秒で切り捨てておく
func (RealClock) Now() time.Time { return time.Now().UTC().Truncate(time.Second) }

type IDGen interface{ NewULID(t time.Time) string }

type ULIDGen struct{}

func (ULIDGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// FixedClock はテスト用。
type FixedClock struct{ T time.Time }

func (c *FixedClock) Now() time.Time { return c.T }

func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
