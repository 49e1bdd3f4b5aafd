package lending

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/platform/apierr"
	"library-backend/internal/testutil"
)

func TestStats(t *testing.T) {
	f := newFixture(t, 3, Options{})
	ctx := context.Background()
	testutil.SeedBook(t, f.conn, "B2", "A1", "0306406152", 1)

	// 2025-04-01: B1 x2, 2025-04-03: B2 x1, 2025-05-01: B1 x1（範囲外）
	l1, err := f.svc.IssueLoan(ctx, "B1", "M1", at(7*day))
	require.NoError(t, err)
	_, err = f.svc.IssueLoan(ctx, "B1", "M1", at(7*day))
	require.NoError(t, err)
	f.clock.Advance(2 * day)
	_, err = f.svc.IssueLoan(ctx, "B2", "M1", at(9*day))
	require.NoError(t, err)
	_, err = f.svc.ReturnLoan(ctx, l1.LoanID, nil)
	require.NoError(t, err)
	f.clock.Advance(28 * day)
	_, err = f.svc.IssueLoan(ctx, "B1", "M1", at(40*day))
	require.NoError(t, err)

	rows, err := f.svc.Stats(ctx, StatsRequest{From: "2025-04-01", To: "2025-04-30"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, StatsRow{ID: "B1", Label: "A Wizard of Earthsea", Count: 2}, rows[0])
	assert.Equal(t, "B2", rows[1].ID)

	rows, err = f.svc.Stats(ctx, StatsRequest{By: "member", From: "2025-04-01", To: "2025-05-01", Limit: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, StatsRow{ID: "M1", Label: "Sparrowhawk Ged", Count: 4}, rows[0])

	rows, err = f.svc.Stats(ctx, StatsRequest{From: "2024-01-01", To: "2024-01-31"})
	require.NoError(t, err)
	assert.Empty(t, rows)

	for _, req := range []StatsRequest{
		{By: "author", From: "2025-04-01", To: "2025-04-30"},
		{From: "2025/04/01", To: "2025-04-30"},
		{From: "2025-04-30", To: "2025-04-01"},
	} {
		_, err := f.svc.Stats(ctx, req)
		assert.Equal(t, apierr.CodeInvalidArgument, apierr.CodeOf(err), "%+v", req)
	}
}
