package sales

import (
	"time"
)

// ============================================================================
// QUOTATION
// ============================================================================

type QuotationStatus string

const (
	QuotationStatusOpen    QuotationStatus = "open"
	QuotationStatusHold    QuotationStatus = "hold"
	QuotationStatusRunning QuotationStatus = "running"
	QuotationStatusClosed  QuotationStatus = "closed"
)

// Valid reports whether the status is one of the known values.
func (s QuotationStatus) Valid() bool {
	switch s {
	case QuotationStatusOpen, QuotationStatusHold, QuotationStatusRunning, QuotationStatusClosed:
		return true
	}
	return false
}

// canTransition applies the manual status-change rule: movement is allowed
// only between open and hold. Once a quotation is running or closed its
// status belongs to the fulfillment workflow and manual changes are rejected.
func canTransition(from, to QuotationStatus) bool {
	if from == to {
		return true
	}
	manual := func(s QuotationStatus) bool {
		return s == QuotationStatusOpen || s == QuotationStatusHold
	}
	return manual(from) && manual(to)
}

// BillingAddress holds the free-text billing fields. State doubles as the tax
// jurisdiction and is the only field the engine interprets.
type BillingAddress struct {
	Line1   string `json:"line1" db:"bill_line1"`
	Line2   string `json:"line2" db:"bill_line2"`
	City    string `json:"city" db:"bill_city"`
	Pincode string `json:"pincode" db:"bill_pincode"`
	State   string `json:"state" db:"bill_state"`
}

type Quotation struct {
	ID              int64           `json:"id" db:"id"`
	ReferenceNumber string          `json:"reference_number" db:"reference_number"`
	OwnerID         int64           `json:"owner_id" db:"owner_id"`
	ClientID        int64           `json:"client_id" db:"client_id"`
	IssueDate       time.Time       `json:"issue_date" db:"issue_date"`
	ValidityDate    time.Time       `json:"validity_date" db:"validity_date"`
	Status          QuotationStatus `json:"status" db:"status"`
	Billing         BillingAddress  `json:"billing"`
	TotalQuantity   float64         `json:"total_quantity" db:"total_quantity"`
	TotalAmount     float64         `json:"total_amount" db:"total_amount"`
	TaxAmount       float64         `json:"tax_amount" db:"tax_amount"`
	GrandTotal      float64         `json:"grand_total" db:"grand_total"`
	Terms           *string         `json:"terms,omitempty" db:"terms"`
	DispatchThrough *string         `json:"dispatch_through,omitempty" db:"dispatch_through"`
	Destination     *string         `json:"destination,omitempty" db:"destination"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	Goods           []GoodsLine     `json:"goods,omitempty" db:"-"`
}

// GoodsLine is one priced entry within a quotation. Amount is always
// recomputed server side from quantity and price.
type GoodsLine struct {
	ID          int64   `json:"id" db:"id"`
	QuotationID int64   `json:"quotation_id" db:"quotation_id"`
	ItemID      *int64  `json:"item_id,omitempty" db:"item_id"`
	Description string  `json:"description" db:"description"`
	Quantity    float64 `json:"quantity" db:"quantity"`
	Unit        string  `json:"unit" db:"unit"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`
	TaxRate     float64 `json:"tax_rate" db:"tax_rate"`
	Amount      float64 `json:"amount" db:"amount"`
	LineOrder   int     `json:"line_order" db:"line_order"`
}

// QuotationWithClient joins resolved client identity for listings.
type QuotationWithClient struct {
	Quotation
	ClientCompany string  `json:"client_company" db:"client_company"`
	ClientEmail   *string `json:"client_email,omitempty" db:"client_email"`
}

// ============================================================================
// CLIENT
// ============================================================================

type Client struct {
	ID          int64     `json:"id" db:"id"`
	OwnerID     int64     `json:"owner_id" db:"owner_id"`
	Email       string    `json:"email" db:"email"`
	TaxID       string    `json:"tax_id" db:"tax_id"`
	CompanyName string    `json:"company_name" db:"company_name"`
	ContactName string    `json:"contact_name" db:"contact_name"`
	Phone       string    `json:"phone" db:"phone"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ============================================================================
// REQUESTS
// ============================================================================

// ClientInput either references an existing client by id or carries a full
// client payload for lookup-or-create.
type ClientInput struct {
	ClientID    *int64 `json:"client_id,omitempty"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	TaxID       string `json:"tax_id,omitempty" validate:"omitempty,max=30"`
	CompanyName string `json:"company_name,omitempty" validate:"omitempty,max=200"`
	ContactName string `json:"contact_name,omitempty" validate:"omitempty,max=200"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

type GoodsLineInput struct {
	ItemID      *int64  `json:"item_id,omitempty"`
	Description string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	Unit        string  `json:"unit,omitempty" validate:"omitempty,max=20"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	TaxRate     float64 `json:"tax_rate" validate:"gte=0,lte=100"`
}

// UpsertQuotationRequest carries the full mutable state of a quotation.
// Submitted totals are ignored; the engine recomputes them.
type UpsertQuotationRequest struct {
	ReferenceNumber string           `json:"reference_number" validate:"required,max=50"`
	Client          ClientInput      `json:"client"`
	IssueDate       time.Time        `json:"issue_date" validate:"required"`
	ValidityDate    time.Time        `json:"validity_date" validate:"required"`
	Status          QuotationStatus  `json:"status,omitempty"`
	Billing         BillingAddress   `json:"billing"`
	Goods           []GoodsLineInput `json:"goods" validate:"required,min=1,dive"`
	Terms           *string          `json:"terms,omitempty"`
	DispatchThrough *string          `json:"dispatch_through,omitempty"`
	Destination     *string          `json:"destination,omitempty"`
}

type ListQuotationsRequest struct {
	OwnerID  int64
	AllOwner bool // elevated callers list across owners
	Status   *QuotationStatus
	Search   *string
	Limit    int `validate:"gte=0,lte=1000"`
	Offset   int `validate:"gte=0"`
}

type ListTicketsRequest struct {
	OwnerID  int64
	AllOwner bool
	Status   *TicketStatus
	Limit    int `validate:"gte=0,lte=1000"`
	Offset   int `validate:"gte=0"`
}
