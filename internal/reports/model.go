package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dashboard is the landing-page summary: contract stock, the current
// month's amortization charge, and what is still owed overall.
type Dashboard struct {
	ActiveContracts   int             `json:"activeContracts"`
	TotalContracts    int             `json:"totalContracts"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	MonthAmortization decimal.Decimal `json:"monthAmortization"`
	RemainingPayable  decimal.Decimal `json:"remainingPayable"`
	OverdueEntries    int             `json:"overdueEntries"`
	GeneratedAt       time.Time       `json:"generatedAt"`
}

// VendorShare is one slice of the vendor distribution report.
type VendorShare struct {
	VendorName string          `json:"vendorName"`
	Total      decimal.Decimal `json:"total"`
	Percentage decimal.Decimal `json:"percentage"`
}

// ScheduleRow is one CSV export line: a schedule entry joined with its
// contract.
type ScheduleRow struct {
	ContractID         int64
	VendorName         string
	AmortizationPeriod string
	AccountingPeriod   string
	Amount             decimal.Decimal
	PaidAmount         decimal.Decimal
	PaymentStatus      string
}
