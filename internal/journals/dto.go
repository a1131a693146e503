package journals

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PreviewRequest asks for a contract's projected journal, optionally with a
// simulated payment folded in.
type PreviewRequest struct {
	ContractID      int64            `json:"contractId" validate:"required,gt=0"`
	PaymentAmount   *decimal.Decimal `json:"paymentAmount"`
	SelectedEntries []int64          `json:"selectedPeriods"`
	PaymentDate     string           `json:"paymentDate" validate:"omitempty,datetime=2006-01-02"`
}

func (r PreviewRequest) paymentDate() (time.Time, error) {
	if r.PaymentDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", r.PaymentDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("journals: payment date: %w", err)
	}
	return t, nil
}
