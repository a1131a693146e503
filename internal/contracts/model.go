package contracts

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates contract lifecycle values.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusArchived  Status = "ARCHIVED"
)

var (
	// ErrNotFound indicates a missing contract.
	ErrNotFound = errors.New("contracts: contract not found")
	// ErrInvalidDates indicates the end date precedes the start date.
	ErrInvalidDates = errors.New("contracts: end date precedes start date")
	// ErrInvalidAmount indicates a non-positive total amount.
	ErrInvalidAmount = errors.New("contracts: total amount must be positive")
	// ErrScheduleSettled indicates the contract cannot be reshaped because
	// part of its schedule has already been paid.
	ErrScheduleSettled = errors.New("contracts: schedule has settled entries")
	// ErrInvalidStatus indicates an unknown status value.
	ErrInvalidStatus = errors.New("contracts: invalid status")
)

// Contract is the root aggregate: it owns its amortization entries and is
// referenced by payment records. Once amortization entries exist the contract
// is only mutable through the explicit update operation, which re-validates
// the date range.
type Contract struct {
	ID               int64
	TotalAmount      decimal.Decimal
	StartDate        time.Time
	EndDate          time.Time
	VendorName       string
	TaxRate          decimal.Decimal
	AttachmentName   string
	FilePath         string
	OriginalFileName string
	Status           Status
	CustomFields     map[string]string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ValidDates reports whether the contract date range is usable for schedule
// generation.
func (c Contract) ValidDates() bool {
	return !c.StartDate.IsZero() && !c.EndDate.IsZero() && !c.EndDate.Before(c.StartDate)
}

// ParseStatus validates a status string from the API boundary.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusCompleted, StatusArchived:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}
