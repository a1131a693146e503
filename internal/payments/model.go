package payments

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-fin/meridian/internal/shared"
)

// Status enumerates payment record states. Journal lines written under a
// record survive cancellation untouched.
type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

var (
	// ErrNotFound indicates a missing payment record.
	ErrNotFound = errors.New("payments: payment not found")
	// ErrInvalidAmount indicates a non-positive payment amount.
	ErrInvalidAmount = errors.New("payments: payment amount must be positive")
	// ErrNoSelection indicates an empty period selection.
	ErrNoSelection = errors.New("payments: no periods selected")
	// ErrAlreadySettled indicates a selected period that has already been
	// paid in full. The whole batch is rejected; no partial journal is
	// written.
	ErrAlreadySettled = errors.New("payments: selected period already settled")
	// ErrAlreadyCancelled indicates a second cancellation of the same record.
	ErrAlreadyCancelled = errors.New("payments: payment already cancelled")
	// ErrWrongContract indicates a selected entry belonging to another
	// contract.
	ErrWrongContract = errors.New("payments: entry does not belong to contract")
)

// Record is one executed payment. It is append-only together with its
// journal lines: cancellation flips the status and nothing else.
type Record struct {
	ID              int64
	ContractID      int64
	Amount          decimal.Decimal
	BookingDate     time.Time
	SelectedPeriods []shared.Period
	Status          Status
	Operator        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// joinPeriods renders the selection for storage as comma separated YYYY-MM.
func joinPeriods(periods []shared.Period) string {
	parts := make([]string, 0, len(periods))
	for _, p := range periods {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, ",")
}

// splitPeriods parses the stored comma separated selection.
func splitPeriods(s string) ([]shared.Period, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]shared.Period, 0, len(parts))
	for _, part := range parts {
		p, err := shared.ParsePeriod(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
