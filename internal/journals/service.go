package journals

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-fin/meridian/internal/amortization"
	"github.com/meridian-fin/meridian/internal/shared"
)

type entryReader interface {
	ListByContract(ctx context.Context, contractID int64) ([]amortization.Entry, error)
}

// PaymentPreviewFunc composes the journal a payment would write without
// persisting it. Provided by the payments service; kept as a function type
// so this package stays free of a dependency on it.
type PaymentPreviewFunc func(ctx context.Context, contractID int64, entryIDs []int64, amount decimal.Decimal, paymentDate time.Time) ([]Entry, error)

// Service composes journal previews: the accrual lines the schedule implies,
// the monthly transfer of prepaid balances, and optionally the lines a
// simulated payment would add. Previews are never persisted; stored lines
// exist only under payment records.
type Service struct {
	entries        entryReader
	repo           Repository
	paymentPreview PaymentPreviewFunc
	logger         *slog.Logger
}

// NewService wires the journal preview service.
func NewService(entries entryReader, repo Repository, paymentPreview PaymentPreviewFunc, logger *slog.Logger) *Service {
	return &Service{
		entries:        entries,
		repo:           repo,
		paymentPreview: paymentPreview,
		logger:         logger,
	}
}

// Preview renders the contract's projected journal. Accrual lines book one
// expense debit and payable credit per schedule entry at the end of its
// accounting month. Entries paid ahead of their period additionally project
// the monthly prepaid-to-payable transfer (预付转应付) at their booking day.
// When the request carries a payment simulation, its composed lines are
// appended.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) ([]Entry, error) {
	schedule, err := s.entries.ListByContract(ctx, req.ContractID)
	if err != nil {
		return nil, err
	}

	var lines []Entry
	for _, e := range schedule {
		amount := e.Amount.Round(2)
		bookingDate := e.AccountingPeriod.LastDay()
		period := e.AmortizationPeriod.String()
		lines = append(lines,
			Entry{
				ContractID:  req.ContractID,
				BookingDate: bookingDate,
				Account:     AccountExpense,
				Debit:       amount,
				Credit:      decimal.Zero,
				Memo:        "accrual period:" + period,
				EntryType:   EntryTypeAmortization,
			},
			Entry{
				ContractID:  req.ContractID,
				BookingDate: bookingDate,
				Account:     AccountPayable,
				Debit:       decimal.Zero,
				Credit:      amount,
				Memo:        "accrual period:" + period,
				EntryType:   EntryTypeAmortization,
			},
		)

		if prepaid := prepaidPortion(e); prepaid.IsPositive() {
			transferDate := e.AccountingPeriod.BookingDate()
			lines = append(lines,
				Entry{
					ContractID:  req.ContractID,
					BookingDate: transferDate,
					Account:     AccountPayable,
					Debit:       prepaid,
					Credit:      decimal.Zero,
					Memo:        "prepaid transfer period:" + period,
					EntryType:   EntryTypeAmortization,
				},
				Entry{
					ContractID:  req.ContractID,
					BookingDate: transferDate,
					Account:     AccountPrepaid,
					Debit:       decimal.Zero,
					Credit:      prepaid,
					Memo:        "prepaid transfer period:" + period,
					EntryType:   EntryTypeAmortization,
				},
			)
		}
	}

	if req.PaymentAmount != nil {
		paymentDate, err := req.paymentDate()
		if err != nil {
			return nil, err
		}
		paymentLines, err := s.paymentPreview(ctx, req.ContractID, req.SelectedEntries, *req.PaymentAmount, paymentDate)
		if err != nil {
			return nil, err
		}
		lines = append(lines, paymentLines...)
	}

	return Arrange(lines), nil
}

// ListByContract returns the persisted journal of a contract.
func (s *Service) ListByContract(ctx context.Context, contractID int64) ([]Entry, error) {
	return s.repo.ListByContract(ctx, contractID)
}

// prepaidPortion is the part of an entry's paid amount that arrived before
// its accounting period, i.e. through the prepaid account.
func prepaidPortion(e amortization.Entry) decimal.Decimal {
	if e.PaymentDate == nil || !e.PaidAmount.IsPositive() {
		return decimal.Zero
	}
	if shared.PeriodOf(*e.PaymentDate).Before(e.AccountingPeriod) {
		return e.PaidAmount.Round(2)
	}
	return decimal.Zero
}
