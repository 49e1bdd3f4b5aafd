package lending

import (
	"fmt"

	"github.com/shopspring/decimal"

	"library-backend/internal/platform/config"
)

// FeePolicy は延滞日数から延滞料を計算する。差し替え可能。
type FeePolicy interface {
	LateFee(daysOverdue int) decimal.Decimal
}

// PerDayFee は 1日あたり Rate、Cap が正なら上限 Cap。
type PerDayFee struct {
	Rate decimal.Decimal
	Cap  decimal.Decimal
}

func (p PerDayFee) LateFee(daysOverdue int) decimal.Decimal {
	if daysOverdue <= 0 {
		return decimal.Zero
	}
	fee := p.Rate.Mul(decimal.NewFromInt(int64(daysOverdue)))
	if p.Cap.IsPositive() && fee.GreaterThan(p.Cap) {
		fee = p.Cap
	}
	return fee.Round(2)
}

// FeePolicyFunc は関数を FeePolicy として使うためのアダプタ。
type FeePolicyFunc func(daysOverdue int) decimal.Decimal

func (f FeePolicyFunc) LateFee(daysOverdue int) decimal.Decimal { return f(daysOverdue) }

func NewPerDayFee(cfg config.LendingConfig) (PerDayFee, error) {
	rate, err := decimal.NewFromString(cfg.FeePerDay)
	if err != nil {
		return PerDayFee{}, fmt.Errorf("lending.fee_per_day: %w", err)
	}
	if rate.IsNegative() {
		return PerDayFee{}, fmt.Errorf("lending.fee_per_day must be >= 0")
	}
	limit, err := decimal.NewFromString(cfg.MaxLateFee)
	if err != nil {
		return PerDayFee{}, fmt.Errorf("lending.max_late_fee: %w", err)
	}
	return PerDayFee{Rate: rate, Cap: limit}, nil
}
