package amortization

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-fin/meridian/internal/shared"
)

// Generate computes the straight-line amortization schedule for a contract.
// One entry is emitted per calendar month touched by [start, end] inclusively,
// regardless of day-of-month. Each period carries total/monthCount rounded to
// two decimals except the last, which absorbs the rounding remainder so the
// schedule sums exactly to total.
//
// The accounting period normally equals the amortization period. When the
// reference date falls inside the contract range, periods up to and including
// the reference month are concentrated into the reference month (catch-up
// booking for schedules generated mid-contract).
func Generate(total decimal.Decimal, start, end, reference time.Time) ([]Entry, error) {
	if total.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	startPeriod := shared.PeriodOf(start)
	endPeriod := shared.PeriodOf(end)
	months := shared.MonthsBetween(startPeriod, endPeriod)
	if months <= 0 {
		return nil, ErrInvalidRange
	}

	perPeriod := total.DivRound(decimal.NewFromInt(int64(months)), 2)
	lastPeriod := total.Sub(perPeriod.Mul(decimal.NewFromInt(int64(months - 1))))

	refPeriod := shared.PeriodOf(reference)
	concentrate := !refPeriod.Before(startPeriod) && !refPeriod.After(endPeriod)

	entries := make([]Entry, 0, months)
	period := startPeriod
	for i := 0; i < months; i++ {
		amount := perPeriod
		if i == months-1 {
			amount = lastPeriod
		}
		accounting := period
		if concentrate && !period.After(refPeriod) {
			accounting = refPeriod
		}
		entries = append(entries, Entry{
			AmortizationPeriod: period,
			AccountingPeriod:   accounting,
			Amount:             amount,
			PaidAmount:         decimal.Zero,
			PeriodDate:         period.FirstDay(),
			PaymentStatus:      StatusPending,
		})
		period = period.Next()
	}
	return entries, nil
}
