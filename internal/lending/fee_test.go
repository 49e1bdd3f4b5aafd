package lending

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/platform/config"
	"library-backend/internal/testutil"
)

func TestPerDayFee(t *testing.T) {
	p := PerDayFee{Rate: decimal.RequireFromString("0.50"), Cap: decimal.RequireFromString("2.00")}

	tests := []struct {
		days int
		want string
	}{
		{-1, "0.00"},
		{0, "0.00"},
		{1, "0.50"},
		{3, "1.50"},
		{4, "2.00"},
		{30, "2.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.LateFee(tt.days).StringFixed(2), "days=%d", tt.days)
	}

	uncapped := PerDayFee{Rate: decimal.RequireFromString("0.25")}
	assert.Equal(t, "25.00", uncapped.LateFee(100).StringFixed(2))
}

func TestNewPerDayFee(t *testing.T) {
	p, err := NewPerDayFee(config.LendingConfig{FeePerDay: "1.10", MaxLateFee: "0"})
	require.NoError(t, err)
	assert.Equal(t, "3.30", p.LateFee(3).StringFixed(2))

	_, err = NewPerDayFee(config.LendingConfig{FeePerDay: "abc", MaxLateFee: "0"})
	assert.Error(t, err)
	_, err = NewPerDayFee(config.LendingConfig{FeePerDay: "-1", MaxLateFee: "0"})
	assert.Error(t, err)
}

func TestFeePolicyFunc(t *testing.T) {
	flat := FeePolicyFunc(func(int) decimal.Decimal { return decimal.NewFromInt(5) })
	assert.True(t, flat.LateFee(1).Equal(decimal.NewFromInt(5)))
}

func TestDaysOverdue(t *testing.T) {
	due := testutil.Epoch
	l := &Loan{DueAt: due}

	assert.Equal(t, 0, l.DaysOverdue(due))
	assert.False(t, l.IsOverdue(due))
	assert.Equal(t, 1, l.DaysOverdue(due.Add(time.Second)))
	assert.Equal(t, 1, l.DaysOverdue(due.Add(24*time.Hour)))
	assert.Equal(t, 2, l.DaysOverdue(due.Add(24*time.Hour+time.Second)))
	assert.True(t, l.IsOverdue(due.Add(time.Second)))

	l.ReturnedAt.Valid = true
	assert.Equal(t, 0, l.DaysOverdue(due.Add(72*time.Hour)), "returned loans are never overdue")
}
