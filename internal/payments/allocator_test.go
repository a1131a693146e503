package payments

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-fin/meridian/internal/amortization"
	"github.com/meridian-fin/meridian/internal/journals"
	"github.com/meridian-fin/meridian/internal/shared"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func entry(id int64, year int, month time.Month, amount string) amortization.Entry {
	p := shared.NewPeriod(year, month)
	return amortization.Entry{
		ID:                 id,
		ContractID:         1,
		AmortizationPeriod: p,
		AccountingPeriod:   p,
		Amount:             money(amount),
		PaidAmount:         decimal.Zero,
		PeriodDate:         p.FirstDay(),
		PaymentStatus:      amortization.StatusPending,
	}
}

func requireBalanced(t *testing.T, lines []journals.Entry) {
	t.Helper()
	require.NoError(t, journals.CheckBalanced(lines))
}

func totalFor(lines []journals.Entry, account string) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		if l.Account == account {
			debit = debit.Add(l.Debit)
			credit = credit.Add(l.Credit)
		}
	}
	return debit, credit
}

func TestComposeSinglePeriodExactPayment(t *testing.T) {
	lines, err := ComposeJournal(1,
		[]amortization.Entry{entry(11, 2024, time.January, "1000.00")},
		money("1000.00"), date(2024, time.January, 31), shared.NewPeriod(2024, time.June))
	require.NoError(t, err)
	require.Len(t, lines, 2)
	requireBalanced(t, lines)

	require.Equal(t, journals.AccountPayable, lines[0].Account)
	require.True(t, lines[0].Debit.Equal(money("1000.00")))
	require.Equal(t, journals.AccountCash, lines[1].Account)
	require.True(t, lines[1].Credit.Equal(money("1000.00")))
	require.Equal(t, 1, lines[0].EntryOrder)
	require.Equal(t, 2, lines[1].EntryOrder)
}

func TestComposeCurrentOnlyOverpayment(t *testing.T) {
	lines, err := ComposeJournal(1,
		[]amortization.Entry{
			entry(11, 2024, time.January, "1000.00"),
			entry(12, 2024, time.February, "1000.00"),
		},
		money("2001.00"), date(2024, time.February, 15), shared.NewPeriod(2024, time.June))
	require.NoError(t, err)
	requireBalanced(t, lines)

	prepaidDr, prepaidCr := totalFor(lines, journals.AccountPrepaid)
	require.True(t, prepaidDr.IsZero(), "no prepaid on current-only overpayment")
	require.True(t, prepaidCr.IsZero())

	expenseDr, _ := totalFor(lines, journals.AccountExpense)
	require.True(t, expenseDr.Equal(money("1.00")))

	_, cashCr := totalFor(lines, journals.AccountCash)
	require.True(t, cashCr.Equal(money("2001.00")))
}

func TestComposeCurrentOnlyUnderpayment(t *testing.T) {
	lines, err := ComposeJournal(1,
		[]amortization.Entry{entry(11, 2024, time.January, "1000.00")},
		money("800.00"), date(2024, time.January, 31), shared.NewPeriod(2024, time.June))
	require.NoError(t, err)
	requireBalanced(t, lines)

	_, expenseCr := totalFor(lines, journals.AccountExpense)
	require.True(t, expenseCr.Equal(money("200.00")), "shortfall credited against expense")
	payableDr, _ := totalFor(lines, journals.AccountPayable)
	require.True(t, payableDr.Equal(money("1000.00")))
}

func TestComposeCrossPeriodFundsPrepaid(t *testing.T) {
	entries := []amortization.Entry{
		entry(11, 2024, time.January, "1000.00"),
		entry(12, 2024, time.February, "1000.00"),
		entry(13, 2024, time.March, "1000.00"),
		entry(14, 2024, time.April, "1000.00"),
		entry(15, 2024, time.May, "1000.00"),
		entry(16, 2024, time.June, "1000.00"),
	}
	lines, err := ComposeJournal(1, entries, money("6000.00"),
		date(2024, time.February, 15), shared.NewPeriod(2024, time.June))
	require.NoError(t, err)
	requireBalanced(t, lines)

	debit, credit := journals.Totals(lines)
	require.True(t, debit.Equal(money("6000.00")))
	require.True(t, credit.Equal(money("6000.00")))

	payableDr, _ := totalFor(lines, journals.AccountPayable)
	require.True(t, payableDr.Equal(money("2000.00")), "past periods settle payables")

	prepaidDr, prepaidCr := totalFor(lines, journals.AccountPrepaid)
	require.True(t, prepaidDr.Equal(money("4000.00")), "future portion funds the prepaid asset")
	require.True(t, prepaidCr.IsZero())

	_, cashCr := totalFor(lines, journals.AccountCash)
	require.True(t, cashCr.Equal(money("6000.00")))

	for i, l := range lines {
		require.Equal(t, i+1, l.EntryOrder)
	}
}

func TestComposeCrossPeriodPartialFunding(t *testing.T) {
	entries := []amortization.Entry{
		entry(11, 2024, time.February, "1000.00"),
		entry(12, 2024, time.March, "1000.00"),
		entry(13, 2024, time.April, "1000.00"),
	}
	lines, err := ComposeJournal(1, entries, money("2500.00"),
		date(2024, time.February, 20), shared.NewPeriod(2024, time.December))
	require.NoError(t, err)
	requireBalanced(t, lines)

	prepaidDr, _ := totalFor(lines, journals.AccountPrepaid)
	require.True(t, prepaidDr.Equal(money("1500.00")))

	var partial bool
	for _, l := range lines {
		if l.Memo == "prepayment (partial) period:2024-04" {
			partial = true
			require.True(t, l.Debit.Equal(money("500.00")))
		}
	}
	require.True(t, partial, "last funded period carries the partial memo")
}

func TestComposeCrossPeriodExcessParksOnPrepaid(t *testing.T) {
	entries := []amortization.Entry{
		entry(11, 2024, time.April, "1000.00"),
	}
	paymentDate := date(2024, time.February, 15)
	lines, err := ComposeJournal(1, entries, money("2500.00"),
		paymentDate, shared.NewPeriod(2024, time.June))
	require.NoError(t, err)
	requireBalanced(t, lines)

	prepaidDr, prepaidCr := totalFor(lines, journals.AccountPrepaid)
	require.True(t, prepaidDr.Equal(money("2500.00")))
	require.True(t, prepaidCr.IsZero())

	var excess bool
	for _, l := range lines {
		if l.Memo == "excess prepayment period:2024-04" {
			excess = true
			require.True(t, l.Debit.Equal(money("1500.00")))
			require.True(t, l.BookingDate.Equal(paymentDate))
		}
	}
	require.True(t, excess, "surplus beyond every due stays parked on the prepaid account")

	_, cashCr := totalFor(lines, journals.AccountCash)
	require.True(t, cashCr.Equal(money("2500.00")))

	for i, l := range lines {
		require.Equal(t, i+1, l.EntryOrder)
	}
}

func TestComposeCrossPeriodUnderfundedPast(t *testing.T) {
	entries := []amortization.Entry{
		entry(11, 2024, time.January, "1000.00"),
		entry(12, 2024, time.March, "1000.00"),
	}
	lines, err := ComposeJournal(1, entries, money("700.00"),
		date(2024, time.January, 31), shared.NewPeriod(2024, time.December))
	require.NoError(t, err)
	requireBalanced(t, lines)

	prepaidDr, _ := totalFor(lines, journals.AccountPrepaid)
	require.True(t, prepaidDr.IsZero(), "nothing left to fund the prepaid account")
	_, expenseCr := totalFor(lines, journals.AccountExpense)
	require.True(t, expenseCr.Equal(money("300.00")))
}

func TestComposeFinalPeriodVariance(t *testing.T) {
	final := shared.NewPeriod(2024, time.June)
	e := entry(16, 2024, time.June, "1333.35")
	lines, err := ComposeJournal(1, []amortization.Entry{e},
		money("1335.00"), date(2024, time.July, 5), final)
	require.NoError(t, err)
	requireBalanced(t, lines)

	var variance *journals.Entry
	for i := range lines {
		if lines[i].Memo == "over small" {
			variance = &lines[i]
		}
	}
	require.NotNil(t, variance, "closing variance entry present")
	require.Equal(t, journals.AccountExpense, variance.Account)
	require.True(t, variance.Debit.Equal(money("1.65")))
	require.Equal(t, date(2024, time.June, 30), variance.BookingDate)
}

func TestComposeEmptySelectionExpensesDirectly(t *testing.T) {
	lines, err := ComposeJournal(1, nil, money("250.00"), date(2024, time.March, 5), shared.Period{})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	requireBalanced(t, lines)
	require.Equal(t, journals.AccountExpense, lines[0].Account)
	require.Equal(t, journals.AccountCash, lines[1].Account)
}

func TestComposeBookingDates(t *testing.T) {
	// Payment after the period's booking day books on the payment date;
	// future periods never book later than the payment date.
	entries := []amortization.Entry{
		entry(11, 2024, time.January, "1000.00"),
		entry(12, 2024, time.March, "1000.00"),
	}
	paymentDate := date(2024, time.January, 30)
	lines, err := ComposeJournal(1, entries, money("2000.00"), paymentDate, shared.NewPeriod(2024, time.December))
	require.NoError(t, err)

	for _, l := range lines {
		switch l.Memo {
		case "payable period:2024-01":
			require.Equal(t, paymentDate, l.BookingDate, "past the 27th, booked on payment date")
		case "prepayment period:2024-03":
			require.Equal(t, paymentDate, l.BookingDate)
		}
	}
}

func TestComposeBalancedAcrossAmounts(t *testing.T) {
	entries := []amortization.Entry{
		entry(11, 2024, time.January, "1333.33"),
		entry(12, 2024, time.February, "1333.33"),
		entry(13, 2024, time.April, "1333.35"),
	}
	for _, raw := range []string{"0.01", "1333.33", "2666.66", "4000.01", "9999.99"} {
		lines, err := ComposeJournal(1, entries, money(raw),
			date(2024, time.February, 10), shared.NewPeriod(2024, time.April))
		require.NoError(t, err, raw)
		requireBalanced(t, lines)
		_, cashCr := totalFor(lines, journals.AccountCash)
		require.True(t, cashCr.Equal(money(raw)), raw)
	}
}

func TestAllocateSequential(t *testing.T) {
	entries := []amortization.Entry{
		entry(12, 2024, time.February, "1000.00"),
		entry(11, 2024, time.January, "1000.00"),
		entry(13, 2024, time.March, "1000.00"),
	}
	paymentDate := date(2024, time.March, 1)
	results := Allocate(entries, money("2500.00"), paymentDate)
	require.Len(t, results, 3)

	require.Equal(t, int64(11), results[0].Entry.ID, "allocation runs in period order")
	require.True(t, results[0].Applied.Equal(money("1000.00")))
	require.Equal(t, amortization.StatusCompleted, results[0].Entry.PaymentStatus)

	require.True(t, results[1].Applied.Equal(money("1000.00")))
	require.Equal(t, amortization.StatusCompleted, results[1].Entry.PaymentStatus)

	require.True(t, results[2].Applied.Equal(money("500.00")))
	require.Equal(t, amortization.StatusPending, results[2].Entry.PaymentStatus, "partial entry stays pending")
	require.True(t, results[2].Entry.PaidAmount.Equal(money("500.00")))
	require.NotNil(t, results[2].Entry.PaymentDate)
}

func TestAllocateAccumulates(t *testing.T) {
	e := entry(11, 2024, time.January, "1000.00")
	e.PaidAmount = money("400.00")

	results := Allocate([]amortization.Entry{e}, money("600.00"), date(2024, time.February, 1))
	require.Len(t, results, 1)
	require.True(t, results[0].Applied.Equal(money("600.00")))
	require.True(t, results[0].Entry.PaidAmount.Equal(money("1000.00")))
	require.Equal(t, amortization.StatusCompleted, results[0].Entry.PaymentStatus)
}

func TestAllocateSkipsSettled(t *testing.T) {
	settled := entry(11, 2024, time.January, "1000.00")
	settled.PaidAmount = money("1000.00")
	settled.PaymentStatus = amortization.StatusCompleted
	open := entry(12, 2024, time.February, "1000.00")

	results := Allocate([]amortization.Entry{settled, open}, money("1000.00"), date(2024, time.February, 1))
	require.Len(t, results, 1)
	require.Equal(t, int64(12), results[0].Entry.ID)
	require.True(t, results[0].Applied.Equal(money("1000.00")))
}
