package amortization

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-fin/meridian/internal/shared"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateEvenSplit(t *testing.T) {
	entries, err := Generate(decimal.RequireFromString("6000.00"),
		date(2024, time.January, 1), date(2024, time.June, 30), date(2023, time.December, 15))
	require.NoError(t, err)
	require.Len(t, entries, 6)

	sum := decimal.Zero
	for i, e := range entries {
		require.True(t, e.Amount.Equal(decimal.RequireFromString("1000.00")), "period %d", i)
		require.Equal(t, StatusPending, e.PaymentStatus)
		sum = sum.Add(e.Amount)
	}
	require.True(t, sum.Equal(decimal.RequireFromString("6000.00")))
	require.Equal(t, "2024-01", entries[0].AmortizationPeriod.String())
	require.Equal(t, "2024-06", entries[5].AmortizationPeriod.String())
}

func TestGenerateRemainderInLastPeriod(t *testing.T) {
	entries, err := Generate(decimal.RequireFromString("8000.00"),
		date(2024, time.March, 1), date(2024, time.August, 15), date(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, entries, 6)

	for _, e := range entries[:5] {
		require.True(t, e.Amount.Equal(decimal.RequireFromString("1333.33")))
	}
	require.True(t, entries[5].Amount.Equal(decimal.RequireFromString("1333.35")))

	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	require.True(t, sum.Equal(decimal.RequireFromString("8000.00")))
}

func TestGenerateSingleMonth(t *testing.T) {
	entries, err := Generate(decimal.RequireFromString("500.00"),
		date(2024, time.May, 10), date(2024, time.May, 20), date(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Amount.Equal(decimal.RequireFromString("500.00")))
}

func TestGenerateInvalidRange(t *testing.T) {
	_, err := Generate(decimal.RequireFromString("1000.00"),
		date(2024, time.June, 1), date(2024, time.January, 1), date(2024, time.January, 1))
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestGenerateInvalidAmount(t *testing.T) {
	_, err := Generate(decimal.Zero,
		date(2024, time.January, 1), date(2024, time.June, 30), date(2024, time.January, 1))
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Generate(decimal.RequireFromString("-10.00"),
		date(2024, time.January, 1), date(2024, time.June, 30), date(2024, time.January, 1))
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestGenerateAccountingPeriodConcentration(t *testing.T) {
	// Reference month inside the contract range: every period at or before
	// the reference books into the reference month.
	entries, err := Generate(decimal.RequireFromString("6000.00"),
		date(2024, time.January, 1), date(2024, time.June, 30), date(2024, time.March, 10))
	require.NoError(t, err)
	require.Len(t, entries, 6)

	ref := shared.NewPeriod(2024, time.March)
	for _, e := range entries[:3] {
		require.Equal(t, ref, e.AccountingPeriod, "period %s", e.AmortizationPeriod)
	}
	for _, e := range entries[3:] {
		require.Equal(t, e.AmortizationPeriod, e.AccountingPeriod)
	}
}

func TestGenerateReferenceOutsideRange(t *testing.T) {
	// Reference before the contract starts: accounting periods track the
	// amortization periods one-to-one.
	entries, err := Generate(decimal.RequireFromString("3000.00"),
		date(2024, time.April, 1), date(2024, time.June, 30), date(2024, time.January, 5))
	require.NoError(t, err)
	for _, e := range entries {
		require.Equal(t, e.AmortizationPeriod, e.AccountingPeriod)
	}
}

func TestGenerateSumAlwaysMatchesTotal(t *testing.T) {
	totals := []string{"100.00", "999.99", "1234.56", "10000.01", "7.03"}
	for _, raw := range totals {
		total := decimal.RequireFromString(raw)
		entries, err := Generate(total,
			date(2024, time.January, 1), date(2024, time.July, 31), date(2023, time.June, 1))
		require.NoError(t, err, raw)

		sum := decimal.Zero
		for _, e := range entries {
			require.GreaterOrEqual(t, e.Amount.Exponent(), int32(-2), raw)
			sum = sum.Add(e.Amount)
		}
		require.True(t, sum.Equal(total), "total %s, got %s", raw, sum)
	}
}
