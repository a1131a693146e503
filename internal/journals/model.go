package journals

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Ledger account names. The chart of accounts is fixed: amortized expense,
// accrued payable, prepaid asset and demand-deposit cash.
const (
	AccountExpense = "费用"
	AccountPayable = "应付"
	AccountPrepaid = "预付"
	AccountCash    = "活期存款"
)

// EntryType distinguishes accrual lines from payment lines.
type EntryType string

const (
	EntryTypeAmortization EntryType = "AMORTIZATION"
	EntryTypePayment      EntryType = "PAYMENT"
)

// ErrUnbalanced indicates debit and credit totals differ within one batch.
// It signals a composer bug, never user input.
var ErrUnbalanced = errors.New("journals: debit and credit totals differ")

// Entry is one debit or credit line. Entries belonging to a payment record
// are append-only: the repository exposes no update or delete for them.
type Entry struct {
	ID          int64           `json:"id,omitempty"`
	ContractID  int64           `json:"contractId"`
	PaymentID   *int64          `json:"paymentId,omitempty"`
	BookingDate time.Time       `json:"bookingDate"`
	Account     string          `json:"account"`
	Debit       decimal.Decimal `json:"dr"`
	Credit      decimal.Decimal `json:"cr"`
	Memo        string          `json:"memo"`
	EntryType   EntryType       `json:"entryType"`
	EntryOrder  int             `json:"entryOrder"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Totals sums debit and credit amounts over entries.
func Totals(entries []Entry) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, e := range entries {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	return debit.Round(2), credit.Round(2)
}

// CheckBalanced verifies the batch-level double-entry invariant.
func CheckBalanced(entries []Entry) error {
	debit, credit := Totals(entries)
	if !debit.Equal(credit) {
		return ErrUnbalanced
	}
	return nil
}

// Arrange sorts a freshly composed batch by booking month and stamps
// EntryOrder 1..n. The stable sort keeps the generation order within one
// month: settlement pairs first, prepaid lines next, the cash line last.
func Arrange(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := out[i].BookingDate, out[j].BookingDate
		return bi.Year()*12+int(bi.Month()) < bj.Year()*12+int(bj.Month())
	})
	for i := range out {
		out[i].EntryOrder = i + 1
	}
	return out
}
