package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// ParseResult carries the fields extracted from an uploaded contract
// document. Zero-valued fields mean the parser could not determine them and
// the caller should treat the result as a draft to confirm.
type ParseResult struct {
	VendorName   string            `json:"vendorName"`
	TotalAmount  decimal.Decimal   `json:"totalAmount"`
	StartDate    string            `json:"startDate"`
	EndDate      string            `json:"endDate"`
	TaxRate      decimal.Decimal   `json:"taxRate"`
	CustomFields map[string]string `json:"customFields,omitempty"`
	Draft        bool              `json:"draft"`
}

// UpdateRequest is the payload for updating a contract's parsed fields.
type UpdateRequest struct {
	VendorName   string            `json:"vendorName" validate:"required,max=200"`
	TotalAmount  decimal.Decimal   `json:"totalAmount" validate:"required"`
	StartDate    string            `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate      string            `json:"endDate" validate:"required,datetime=2006-01-02"`
	TaxRate      decimal.Decimal   `json:"taxRate"`
	CustomFields map[string]string `json:"customFields"`
}

// StatusRequest is the payload for the status transition endpoint.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE COMPLETED ARCHIVED"`
}

// Response is the JSON shape for a single contract.
type Response struct {
	ID               int64             `json:"id"`
	VendorName       string            `json:"vendorName"`
	TotalAmount      decimal.Decimal   `json:"totalAmount"`
	StartDate        string            `json:"startDate"`
	EndDate          string            `json:"endDate"`
	TaxRate          decimal.Decimal   `json:"taxRate"`
	AttachmentName   string            `json:"attachmentName,omitempty"`
	OriginalFileName string            `json:"originalFileName,omitempty"`
	Status           Status            `json:"status"`
	CustomFields     map[string]string `json:"customFields,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

const dateLayout = "2006-01-02"

func toResponse(c Contract) Response {
	return Response{
		ID:               c.ID,
		VendorName:       c.VendorName,
		TotalAmount:      c.TotalAmount,
		StartDate:        c.StartDate.Format(dateLayout),
		EndDate:          c.EndDate.Format(dateLayout),
		TaxRate:          c.TaxRate,
		AttachmentName:   c.AttachmentName,
		OriginalFileName: c.OriginalFileName,
		Status:           c.Status,
		CustomFields:     c.CustomFields,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func toResponses(cs []Contract) []Response {
	out := make([]Response, 0, len(cs))
	for _, c := range cs {
		out = append(out, toResponse(c))
	}
	return out
}
