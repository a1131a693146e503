package journals

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-fin/meridian/internal/amortization"
	"github.com/meridian-fin/meridian/internal/shared"
)

type fakeEntryReader struct {
	entries []amortization.Entry
}

func (f *fakeEntryReader) ListByContract(context.Context, int64) ([]amortization.Entry, error) {
	return f.entries, nil
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func scheduleEntry(id int64, year int, month time.Month, amount string) amortization.Entry {
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

func newPreviewService(entries []amortization.Entry, preview PaymentPreviewFunc) *Service {
	return NewService(&fakeEntryReader{entries: entries}, nil, preview,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPreviewAccrualLines(t *testing.T) {
	entries := []amortization.Entry{
		scheduleEntry(1, 2024, time.January, "1000.00"),
		scheduleEntry(2, 2024, time.February, "1000.00"),
	}
	svc := newPreviewService(entries, nil)

	lines, err := svc.Preview(context.Background(), PreviewRequest{ContractID: 1})
	require.NoError(t, err)
	require.Len(t, lines, 4, "one expense/payable pair per period")
	require.NoError(t, CheckBalanced(lines))

	require.Equal(t, AccountExpense, lines[0].Account)
	require.Equal(t, AccountPayable, lines[1].Account)
	require.Equal(t, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), lines[0].BookingDate,
		"accrual books at the accounting month end")
	require.Equal(t, EntryTypeAmortization, lines[0].EntryType)
	for i, l := range lines {
		require.Equal(t, i+1, l.EntryOrder)
	}
}

func TestPreviewProjectsPrepaidTransfer(t *testing.T) {
	future := scheduleEntry(3, 2024, time.April, "1000.00")
	future.PaidAmount = money("1000.00")
	paid := time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC)
	future.PaymentDate = &paid
	future.PaymentStatus = amortization.StatusCompleted

	svc := newPreviewService([]amortization.Entry{future}, nil)
	lines, err := svc.Preview(context.Background(), PreviewRequest{ContractID: 1})
	require.NoError(t, err)
	require.NoError(t, CheckBalanced(lines))

	var transferDebit, transferCredit *Entry
	for i := range lines {
		if lines[i].Memo == "prepaid transfer period:2024-04" {
			if lines[i].Debit.IsPositive() {
				transferDebit = &lines[i]
			} else {
				transferCredit = &lines[i]
			}
		}
	}
	require.NotNil(t, transferDebit)
	require.NotNil(t, transferCredit)
	require.Equal(t, AccountPayable, transferDebit.Account)
	require.Equal(t, AccountPrepaid, transferCredit.Account)
	require.Equal(t, time.Date(2024, time.April, 27, 0, 0, 0, 0, time.UTC), transferDebit.BookingDate)
}

func TestPreviewSkipsTransferForOnTimePayment(t *testing.T) {
	e := scheduleEntry(1, 2024, time.January, "1000.00")
	e.PaidAmount = money("1000.00")
	paid := time.Date(2024, time.January, 28, 0, 0, 0, 0, time.UTC)
	e.PaymentDate = &paid
	e.PaymentStatus = amortization.StatusCompleted

	svc := newPreviewService([]amortization.Entry{e}, nil)
	lines, err := svc.Preview(context.Background(), PreviewRequest{ContractID: 1})
	require.NoError(t, err)
	for _, l := range lines {
		require.NotContains(t, l.Memo, "prepaid transfer")
	}
}

func TestPreviewIncludesSimulatedPayment(t *testing.T) {
	entries := []amortization.Entry{scheduleEntry(1, 2024, time.January, "1000.00")}
	amount := money("1000.00")

	called := false
	preview := func(_ context.Context, contractID int64, ids []int64, amt decimal.Decimal, _ time.Time) ([]Entry, error) {
		called = true
		require.Equal(t, int64(1), contractID)
		require.Equal(t, []int64{1}, ids)
		require.True(t, amt.Equal(amount))
		return []Entry{
			{ContractID: 1, Account: AccountPayable, Debit: amount, Credit: decimal.Zero, EntryType: EntryTypePayment},
			{ContractID: 1, Account: AccountCash, Debit: decimal.Zero, Credit: amount, EntryType: EntryTypePayment},
		}, nil
	}

	svc := newPreviewService(entries, preview)
	lines, err := svc.Preview(context.Background(), PreviewRequest{
		ContractID:      1,
		PaymentAmount:   &amount,
		SelectedEntries: []int64{1},
		PaymentDate:     "2024-01-31",
	})
	require.NoError(t, err)
	require.True(t, called)
	require.Len(t, lines, 4)
	require.NoError(t, CheckBalanced(lines))
}

func TestArrangeOrdersByBookingMonth(t *testing.T) {
	lines := []Entry{
		{Account: AccountCash, BookingDate: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), Debit: decimal.Zero, Credit: money("10.00")},
		{Account: AccountPayable, BookingDate: time.Date(2024, time.January, 27, 0, 0, 0, 0, time.UTC), Debit: money("10.00"), Credit: decimal.Zero},
	}
	arranged := Arrange(lines)
	require.Equal(t, AccountPayable, arranged[0].Account)
	require.Equal(t, 1, arranged[0].EntryOrder)
	require.Equal(t, 2, arranged[1].EntryOrder)
}

func TestArrangeKeepsGenerationOrderWithinMonth(t *testing.T) {
	day := time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC)
	lines := []Entry{
		{Account: AccountExpense, BookingDate: day, Debit: money("10.00"), Credit: decimal.Zero},
		{Account: AccountPayable, BookingDate: day, Debit: decimal.Zero, Credit: money("10.00")},
		{Account: AccountCash, BookingDate: day.AddDate(0, 0, 10), Debit: decimal.Zero, Credit: decimal.Zero},
	}
	arranged := Arrange(lines)
	require.Equal(t, []string{AccountExpense, AccountPayable, AccountCash},
		[]string{arranged[0].Account, arranged[1].Account, arranged[2].Account})
	for i, e := range arranged {
		require.Equal(t, i+1, e.EntryOrder)
	}
}

func TestCheckBalanced(t *testing.T) {
	balanced := []Entry{
		{Debit: money("10.00"), Credit: decimal.Zero},
		{Debit: decimal.Zero, Credit: money("10.00")},
	}
	require.NoError(t, CheckBalanced(balanced))

	unbalanced := []Entry{
		{Debit: money("10.00"), Credit: decimal.Zero},
		{Debit: decimal.Zero, Credit: money("9.99")},
	}
	require.ErrorIs(t, CheckBalanced(unbalanced), ErrUnbalanced)
}
