package payments

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-fin/meridian/internal/amortization"
	"github.com/meridian-fin/meridian/internal/journals"
	"github.com/meridian-fin/meridian/internal/shared"
)

// ComposeJournal builds the double-entry journal for one payment against the
// selected schedule entries. It is pure: nothing is persisted and the inputs
// are not mutated.
//
// Selected entries are split by accounting period against the payment month.
// The cash account is credited with the full payment. Current-or-past
// periods settle their accrued payables with a debit each; a payment that
// touches only such periods books its over- or undershoot against the
// expense account, never the prepaid account. When the payment crosses into
// future periods, the amount left after the past portion funds the prepaid
// asset: one prepaid debit per future period in period order, partial on the
// last funded one.
//
// The later monthly transfer of those prepaid amounts into payables
// (预付转应付) is a projection, composed by the journal preview, not part of
// the payment batch.
//
// When the selection covers the contract's final period, the residual
// variance becomes the closing adjustment: memo "over small", booked at that
// period's month end, so the contract's books tie out exactly to its total.
func ComposeJournal(contractID int64, selected []amortization.Entry, amount decimal.Decimal, paymentDate time.Time, finalPeriod shared.Period) ([]journals.Entry, error) {
	amount = amount.Round(2)

	line := func(bookingDate time.Time, account string, debit, credit decimal.Decimal, memo string) journals.Entry {
		return journals.Entry{
			ContractID:  contractID,
			BookingDate: bookingDate,
			Account:     account,
			Debit:       debit,
			Credit:      credit,
			Memo:        memo,
			EntryType:   journals.EntryTypePayment,
		}
	}

	// No accrued periods selected: the payment is expensed directly.
	if len(selected) == 0 {
		lines := []journals.Entry{
			line(paymentDate, journals.AccountExpense, amount, decimal.Zero, "direct payment expense"),
			line(paymentDate, journals.AccountCash, decimal.Zero, amount, "payment"),
		}
		return finish(lines)
	}

	entries := make([]amortization.Entry, len(selected))
	copy(entries, selected)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AmortizationPeriod.Before(entries[j].AmortizationPeriod)
	})

	paymentPeriod := shared.PeriodOf(paymentDate)
	var past, future []amortization.Entry
	for _, e := range entries {
		if e.AccountingPeriod.After(paymentPeriod) {
			future = append(future, e)
		} else {
			past = append(past, e)
		}
	}

	pastDue := decimal.Zero
	for _, e := range past {
		pastDue = pastDue.Add(e.Remaining().Round(2))
	}

	includesFinal := false
	if !finalPeriod.IsZero() {
		for _, e := range entries {
			if e.AmortizationPeriod == finalPeriod {
				includesFinal = true
				break
			}
		}
	}
	adjustment := func(diff decimal.Decimal) journals.Entry {
		memo, booking := "overpayment adjustment", paymentDate
		if diff.IsNegative() {
			memo = "underpayment adjustment"
		}
		if includesFinal {
			memo, booking = "over small", finalPeriod.LastDay()
		}
		if diff.IsPositive() {
			return line(booking, journals.AccountExpense, diff, decimal.Zero, memo)
		}
		return line(booking, journals.AccountExpense, decimal.Zero, diff.Abs(), memo)
	}

	var lines []journals.Entry

	// Accrued payables settle first, one debit per past period. A payment
	// made after a period's booking day books on the payment date instead.
	for _, e := range past {
		booking := e.AccountingPeriod.BookingDate()
		if paymentDate.After(booking) {
			booking = paymentDate
		}
		lines = append(lines, line(booking, journals.AccountPayable, e.Remaining().Round(2), decimal.Zero,
			"payable period:"+e.AmortizationPeriod.String()))
	}

	pool := amount.Sub(pastDue)
	switch {
	case len(future) == 0:
		if !pool.IsZero() {
			lines = append(lines, adjustment(pool))
		}
	case pool.IsNegative():
		// Cross-period selection but the payment does not even cover the
		// past portion: nothing funds the prepaid account.
		lines = append(lines, adjustment(pool))
	default:
		// The future portion funds the prepaid asset period by period.
		// Future lines never book later than the payment date.
		for _, e := range future {
			if !pool.IsPositive() {
				break
			}
			booking := e.AccountingPeriod.BookingDate()
			if paymentDate.Before(booking) {
				booking = paymentDate
			}
			due := e.Remaining().Round(2)
			funded := decimal.Min(pool, due)
			memo := "prepayment period:" + e.AmortizationPeriod.String()
			if funded.LessThan(due) {
				memo = "prepayment (partial) period:" + e.AmortizationPeriod.String()
			}
			lines = append(lines, line(booking, journals.AccountPrepaid, funded, decimal.Zero, memo))
			pool = pool.Sub(funded)
		}
		if pool.IsPositive() {
			// Paid beyond everything due. The closing variance goes to
			// expense when the final period is in the batch, otherwise it
			// stays parked on the prepaid account.
			if includesFinal {
				lines = append(lines, adjustment(pool))
			} else {
				last := future[len(future)-1]
				lines = append(lines, line(paymentDate, journals.AccountPrepaid, pool, decimal.Zero,
					"excess prepayment period:"+last.AmortizationPeriod.String()))
			}
		}
	}

	// Cash leaves the account once, for the full payment, generated last.
	lines = append(lines, line(paymentDate, journals.AccountCash, decimal.Zero, amount, "payment"))

	return finish(lines)
}

func finish(lines []journals.Entry) ([]journals.Entry, error) {
	if err := journals.CheckBalanced(lines); err != nil {
		debit, credit := journals.Totals(lines)
		return nil, fmt.Errorf("payments: compose journal (dr %s, cr %s): %w", debit, credit, err)
	}
	return journals.Arrange(lines), nil
}

// AllocationResult pairs one schedule entry, updated with the applied
// payment, with the portion applied to it.
type AllocationResult struct {
	Entry   amortization.Entry
	Applied decimal.Decimal
}

// Allocate distributes a payment across the selected entries in period
// order. Each entry accumulates into its paid amount until the payment is
// exhausted; the last touched entry may stay partially paid. Entries whose
// cumulative paid amount reaches their due amount flip to COMPLETED.
func Allocate(selected []amortization.Entry, amount decimal.Decimal, paymentDate time.Time) []AllocationResult {
	entries := make([]amortization.Entry, len(selected))
	copy(entries, selected)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AmortizationPeriod.Before(entries[j].AmortizationPeriod)
	})

	remaining := amount.Round(2)
	var out []AllocationResult
	for _, e := range entries {
		if !remaining.IsPositive() {
			break
		}
		due := e.Remaining().Round(2)
		if !due.IsPositive() {
			continue
		}
		applied := decimal.Min(remaining, due)

		e.PaidAmount = e.PaidAmount.Add(applied)
		d := paymentDate
		e.PaymentDate = &d
		if e.PaidAmount.GreaterThanOrEqual(e.Amount) {
			e.PaymentStatus = amortization.StatusCompleted
		}
		remaining = remaining.Sub(applied)
		out = append(out, AllocationResult{Entry: e, Applied: applied})
	}
	return out
}
