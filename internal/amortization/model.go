package amortization

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-fin/meridian/internal/shared"
)

// PaymentStatus enumerates the payment lifecycle of a schedule entry.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusCompleted PaymentStatus = "COMPLETED"
	StatusOverdue   PaymentStatus = "OVERDUE"
)

var (
	// ErrInvalidRange indicates the end date precedes the start date.
	ErrInvalidRange = errors.New("amortization: end date precedes start date")
	// ErrInvalidAmount indicates a non-positive total amount.
	ErrInvalidAmount = errors.New("amortization: total amount must be positive")
	// ErrEntryNotFound indicates a missing schedule entry.
	ErrEntryNotFound = errors.New("amortization: entry not found")
	// ErrEntrySettled indicates an attempt to modify a settled entry.
	ErrEntrySettled = errors.New("amortization: entry already settled")
)

// Entry is one monthly slice of a contract's amortization schedule.
// ID is zero until the entry has been persisted.
type Entry struct {
	ID                 int64
	ContractID         int64
	AmortizationPeriod shared.Period
	AccountingPeriod   shared.Period
	Amount             decimal.Decimal
	PaidAmount         decimal.Decimal
	PeriodDate         time.Time
	PaymentStatus      PaymentStatus
	PaymentDate        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CreatedBy          string
	UpdatedBy          string
}

// Remaining returns the still unpaid portion of the entry.
func (e Entry) Remaining() decimal.Decimal {
	return e.Amount.Sub(e.PaidAmount)
}

// Settled reports whether the entry has been paid. Overdue entries remain
// payable.
func (e Entry) Settled() bool {
	return e.PaymentStatus == StatusCompleted
}
