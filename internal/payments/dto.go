package payments

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-fin/meridian/internal/journals"
	"github.com/meridian-fin/meridian/internal/shared"
)

// ExecuteRequest is the payload for executing (or previewing) a payment.
// SelectedEntries lists amortization entry IDs; the whole batch fails when
// any of them is unknown or already settled.
type ExecuteRequest struct {
	ContractID      int64           `json:"contractId" validate:"required,gt=0"`
	PaymentAmount   decimal.Decimal `json:"paymentAmount" validate:"required"`
	SelectedEntries []int64         `json:"selectedPeriods" validate:"required,min=1,dive,gt=0"`
	PaymentDate     string          `json:"paymentDate" validate:"omitempty,datetime=2006-01-02"`
}

// Response is the JSON shape for one payment record with its journal.
type Response struct {
	PaymentID       int64            `json:"paymentId"`
	ContractID      int64            `json:"contractId"`
	PaymentAmount   decimal.Decimal  `json:"paymentAmount"`
	PaymentDate     time.Time        `json:"paymentDate"`
	SelectedPeriods []shared.Period  `json:"selectedPeriods"`
	Status          Status           `json:"status"`
	Operator        string           `json:"operator,omitempty"`
	JournalEntries  []journals.Entry `json:"journalEntries,omitempty"`
}

func toResponse(rec Record, lines []journals.Entry) Response {
	return Response{
		PaymentID:       rec.ID,
		ContractID:      rec.ContractID,
		PaymentAmount:   rec.Amount,
		PaymentDate:     rec.BookingDate,
		SelectedPeriods: rec.SelectedPeriods,
		Status:          rec.Status,
		Operator:        rec.Operator,
		JournalEntries:  lines,
	}
}
