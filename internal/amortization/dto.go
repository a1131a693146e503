package amortization

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-fin/meridian/internal/shared"
)

// OperateRequest is the payload for batch schedule edits. Entries with an ID
// update the stored row, entries without one are inserted, and stored rows
// whose ID is absent from the payload are deleted.
type OperateRequest struct {
	ContractID int64          `json:"contractId" validate:"required,gt=0"`
	Entries    []OperateEntry `json:"entries" validate:"dive"`
}

// OperateEntry is one edited schedule row.
type OperateEntry struct {
	ID                 int64           `json:"id"`
	AmortizationPeriod string          `json:"amortizationPeriod" validate:"required"`
	AccountingPeriod   string          `json:"accountingPeriod"`
	Amount             decimal.Decimal `json:"amount" validate:"required"`
}

func (in OperateEntry) toEntry(actor string) (Entry, error) {
	if !in.Amount.IsPositive() {
		return Entry{}, ErrInvalidAmount
	}
	period, err := shared.ParsePeriod(in.AmortizationPeriod)
	if err != nil {
		return Entry{}, fmt.Errorf("amortization period: %w", err)
	}
	accounting := period
	if in.AccountingPeriod != "" {
		if accounting, err = shared.ParsePeriod(in.AccountingPeriod); err != nil {
			return Entry{}, fmt.Errorf("accounting period: %w", err)
		}
	}
	return Entry{
		ID:                 in.ID,
		AmortizationPeriod: period,
		AccountingPeriod:   accounting,
		Amount:             in.Amount.Round(2),
		PeriodDate:         period.FirstDay(),
		PaymentStatus:      StatusPending,
		CreatedBy:          actor,
		UpdatedBy:          actor,
	}, nil
}

// EntryResponse is the JSON shape for one schedule row.
type EntryResponse struct {
	ID                 int64           `json:"id"`
	ContractID         int64           `json:"contractId"`
	AmortizationPeriod string          `json:"amortizationPeriod"`
	AccountingPeriod   string          `json:"accountingPeriod"`
	Amount             decimal.Decimal `json:"amount"`
	PaidAmount         decimal.Decimal `json:"paidAmount"`
	Remaining          decimal.Decimal `json:"remaining"`
	PaymentStatus      PaymentStatus   `json:"paymentStatus"`
	PaymentDate        *time.Time      `json:"paymentDate,omitempty"`
}

func toResponse(e Entry) EntryResponse {
	return EntryResponse{
		ID:                 e.ID,
		ContractID:         e.ContractID,
		AmortizationPeriod: e.AmortizationPeriod.String(),
		AccountingPeriod:   e.AccountingPeriod.String(),
		Amount:             e.Amount,
		PaidAmount:         e.PaidAmount,
		Remaining:          e.Remaining(),
		PaymentStatus:      e.PaymentStatus,
		PaymentDate:        e.PaymentDate,
	}
}

func toResponses(entries []Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toResponse(e))
	}
	return out
}
