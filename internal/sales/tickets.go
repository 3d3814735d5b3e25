package sales

import "time"

// ============================================================================
// TICKET (fulfillment record)
// ============================================================================

type TicketStatus string

const (
	TicketStatusPreparing  TicketStatus = "preparing"
	TicketStatusDispatched TicketStatus = "dispatched"
	TicketStatusInvoiced   TicketStatus = "invoiced"
	TicketStatusDelivered  TicketStatus = "delivered"
	TicketStatusHold       TicketStatus = "hold"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether the status is one of the known values.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPreparing, TicketStatusDispatched, TicketStatusInvoiced,
		TicketStatusDelivered, TicketStatusHold, TicketStatusClosed:
		return true
	}
	return false
}

// Finalized reports whether the ticket has progressed past the window in
// which quotation edits may overwrite its denormalized fields. Finalized
// tickets also keep their status when the source quotation is deleted.
func (s TicketStatus) Finalized() bool {
	switch s {
	case TicketStatusInvoiced, TicketStatusDelivered, TicketStatusClosed:
		return true
	}
	return false
}

// tombstonePrefix marks the link key of tickets whose source quotation was
// deleted, so lookups never resolve to a removed record.
const tombstonePrefix = "DELETED-"

// Ticket is a fulfillment record derived from a quotation. It is linked by
// the denormalized QuotationRef, not a foreign key, and owns its own status
// progression; only ClientID is a direct relational pointer.
type Ticket struct {
	ID            int64        `json:"id" db:"id"`
	QuotationRef  string       `json:"quotation_ref" db:"quotation_ref"`
	OwnerID       int64        `json:"owner_id" db:"owner_id"`
	ClientID      int64        `json:"client_id" db:"client_id"`
	ClientCompany string       `json:"client_company" db:"client_company"`
	ClientContact string       `json:"client_contact" db:"client_contact"`
	MirrorBilling bool         `json:"mirror_billing" db:"mirror_billing"`
	ShipLine1     string       `json:"ship_line1" db:"ship_line1"`
	ShipLine2     string       `json:"ship_line2" db:"ship_line2"`
	ShipCity      string       `json:"ship_city" db:"ship_city"`
	ShipPincode   string       `json:"ship_pincode" db:"ship_pincode"`
	ShipState     string       `json:"ship_state" db:"ship_state"`
	Goods         []GoodsLine  `json:"goods,omitempty" db:"goods"`
	TotalQuantity float64      `json:"total_quantity" db:"total_quantity"`
	TotalAmount   float64      `json:"total_amount" db:"total_amount"`
	TaxAmount     float64      `json:"tax_amount" db:"tax_amount"`
	GrandTotal    float64      `json:"grand_total" db:"grand_total"`
	Terms         *string      `json:"terms,omitempty" db:"terms"`
	Status        TicketStatus `json:"status" db:"status"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

// TicketStatusHistory records one status change on a ticket.
type TicketStatusHistory struct {
	ID        int64        `json:"id" db:"id"`
	TicketID  int64        `json:"ticket_id" db:"ticket_id"`
	Status    TicketStatus `json:"status" db:"status"`
	Note      string       `json:"note" db:"note"`
	ChangedBy int64        `json:"changed_by" db:"changed_by"`
	ChangedAt time.Time    `json:"changed_at" db:"changed_at"`
}
