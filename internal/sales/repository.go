package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saral-erp/saral-erp/internal/backup"
	"github.com/saral-erp/saral-erp/internal/platform/db"
	"github.com/saral-erp/saral-erp/internal/shared"
)

// Repository provides persistence for the quotation engine. WithTx yields a
// transaction-bound Repository; every multi-step mutation in the service runs
// through it so that no partial state is ever observable.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	// Quotation operations
	GetQuotation(ctx context.Context, id int64) (*Quotation, error)
	GetQuotationByReference(ctx context.Context, ownerID int64, ref string) (*Quotation, error)
	QuotationIDByReference(ctx context.Context, ownerID int64, ref string) (int64, error)
	ListQuotations(ctx context.Context, req ListQuotationsRequest) ([]QuotationWithClient, int, error)
	CreateQuotation(ctx context.Context, q Quotation) (int64, error)
	UpdateQuotation(ctx context.Context, q Quotation) error
	DeleteQuotation(ctx context.Context, id int64) error
	InsertGoodsLine(ctx context.Context, line GoodsLine) (int64, error)
	DeleteGoodsLines(ctx context.Context, quotationID int64) error
	NextSequence(ctx context.Context, ownerID int64, purpose string) (int64, error)

	// Client operations
	GetClient(ctx context.Context, id int64) (*Client, error)
	GetClientByEmail(ctx context.Context, ownerID int64, email string) (*Client, error)
	GetClientByTaxID(ctx context.Context, ownerID int64, taxID string) (*Client, error)
	CreateClient(ctx context.Context, c Client) (int64, error)
	UpdateClient(ctx context.Context, id int64, updates map[string]any) error
	AddClientQuotationRef(ctx context.Context, clientID, quotationID int64) error
	RemoveClientQuotationRef(ctx context.Context, clientID, quotationID int64) error

	// Ticket operations
	GetTicket(ctx context.Context, id int64) (*Ticket, error)
	ListTickets(ctx context.Context, req ListTicketsRequest) ([]Ticket, int, error)
	ListTicketsByQuotationRef(ctx context.Context, ref string) ([]Ticket, error)
	UpdateTicketSyncFields(ctx context.Context, t Ticket) error
	UpdateTicketTotals(ctx context.Context, ticketID int64, totalQuantity, totalAmount, taxAmount, grandTotal float64) error
	SetTicketQuotationRef(ctx context.Context, ticketID int64, ref string) error
	SetTicketStatus(ctx context.Context, ticketID int64, status TicketStatus) error
	InsertTicketStatusHistory(ctx context.Context, h TicketStatusHistory) error
	ListTicketStatusHistory(ctx context.Context, ticketID int64) ([]TicketStatusHistory, error)

	// Backup
	WriteBackup(ctx context.Context, rec backup.Record) error
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	tx   pgx.Tx // nil outside a transaction
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		repoTx := &repository{db: tx, tx: tx, pool: r.pool}
		return fn(ctx, repoTx)
	})
	if err != nil {
		switch {
		case db.IsUniqueViolation(err):
			return fmt.Errorf("%w: %v", shared.ErrConflict, err)
		case db.IsRetryable(err):
			return fmt.Errorf("%w: %v", shared.ErrTransient, err)
		}
	}
	return err
}

// ============================================================================
// QUOTATION OPERATIONS
// ============================================================================

const quotationColumns = `id, reference_number, owner_id, client_id, issue_date, validity_date,
       status, bill_line1, bill_line2, bill_city, bill_pincode, bill_state,
       total_quantity, total_amount, tax_amount, grand_total,
       terms, dispatch_through, destination, created_at, updated_at`

func (r *repository) scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	err := row.Scan(
		&q.ID, &q.ReferenceNumber, &q.OwnerID, &q.ClientID, &q.IssueDate, &q.ValidityDate,
		&q.Status, &q.Billing.Line1, &q.Billing.Line2, &q.Billing.City, &q.Billing.Pincode, &q.Billing.State,
		&q.TotalQuantity, &q.TotalAmount, &q.TaxAmount, &q.GrandTotal,
		&q.Terms, &q.DispatchThrough, &q.Destination, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *repository) loadGoods(ctx context.Context, quotationID int64) ([]GoodsLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, quotation_id, item_id, description, quantity, unit, unit_price, tax_rate, amount, line_order
		FROM goods_lines
		WHERE quotation_id = $1
		ORDER BY line_order, id
	`, quotationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []GoodsLine
	for rows.Next() {
		var l GoodsLine
		if err := rows.Scan(&l.ID, &l.QuotationID, &l.ItemID, &l.Description, &l.Quantity,
			&l.Unit, &l.UnitPrice, &l.TaxRate, &l.Amount, &l.LineOrder); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) GetQuotation(ctx context.Context, id int64) (*Quotation, error) {
	q, err := r.scanQuotation(r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM quotations WHERE id = $1", quotationColumns), id))
	if err != nil {
		return nil, err
	}
	q.Goods, err = r.loadGoods(ctx, id)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repository) GetQuotationByReference(ctx context.Context, ownerID int64, ref string) (*Quotation, error) {
	q, err := r.scanQuotation(r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM quotations WHERE owner_id = $1 AND reference_number = $2", quotationColumns),
		ownerID, ref))
	if err != nil {
		return nil, err
	}
	q.Goods, err = r.loadGoods(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repository) QuotationIDByReference(ctx context.Context, ownerID int64, ref string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		"SELECT id FROM quotations WHERE owner_id = $1 AND reference_number = $2", ownerID, ref).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) ListQuotations(ctx context.Context, req ListQuotationsRequest) ([]QuotationWithClient, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if !req.AllOwner {
		conditions = append(conditions, fmt.Sprintf("q.owner_id = $%d", argPos))
		args = append(args, req.OwnerID)
		argPos++
	}

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("q.status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}

	if req.Search != nil && *req.Search != "" {
		searchPattern := "%" + *req.Search + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(q.reference_number ILIKE $%d OR c.company_name ILIKE $%d OR c.contact_name ILIKE $%d OR c.email ILIKE $%d)",
			argPos, argPos, argPos, argPos))
		args = append(args, searchPattern)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			whereClause += " AND " + conditions[i]
		}
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM quotations q JOIN clients c ON q.client_id = c.id %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT q.id, q.reference_number, q.owner_id, q.client_id, q.issue_date, q.validity_date,
		       q.status, q.bill_line1, q.bill_line2, q.bill_city, q.bill_pincode, q.bill_state,
		       q.total_quantity, q.total_amount, q.tax_amount, q.grand_total,
		       q.terms, q.dispatch_through, q.destination, q.created_at, q.updated_at,
		       c.company_name AS client_company,
		       c.email AS client_email
		FROM quotations q
		JOIN clients c ON q.client_id = c.id
		%s
		ORDER BY q.issue_date DESC, q.id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)

	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quotations []QuotationWithClient
	for rows.Next() {
		var q QuotationWithClient
		err := rows.Scan(
			&q.ID, &q.ReferenceNumber, &q.OwnerID, &q.ClientID, &q.IssueDate, &q.ValidityDate,
			&q.Status, &q.Billing.Line1, &q.Billing.Line2, &q.Billing.City, &q.Billing.Pincode, &q.Billing.State,
			&q.TotalQuantity, &q.TotalAmount, &q.TaxAmount, &q.GrandTotal,
			&q.Terms, &q.DispatchThrough, &q.Destination, &q.CreatedAt, &q.UpdatedAt,
			&q.ClientCompany, &q.ClientEmail,
		)
		if err != nil {
			return nil, 0, err
		}
		quotations = append(quotations, q)
	}

	return quotations, total, rows.Err()
}

func (r *repository) CreateQuotation(ctx context.Context, q Quotation) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotations (reference_number, owner_id, client_id, issue_date, validity_date,
		        status, bill_line1, bill_line2, bill_city, bill_pincode, bill_state,
		        total_quantity, total_amount, tax_amount, grand_total,
		        terms, dispatch_through, destination)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`, q.ReferenceNumber, q.OwnerID, q.ClientID, q.IssueDate, q.ValidityDate,
		q.Status, q.Billing.Line1, q.Billing.Line2, q.Billing.City, q.Billing.Pincode, q.Billing.State,
		q.TotalQuantity, q.TotalAmount, q.TaxAmount, q.GrandTotal,
		q.Terms, q.DispatchThrough, q.Destination).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateQuotation(ctx context.Context, q Quotation) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations SET
			reference_number = $2, client_id = $3, issue_date = $4, validity_date = $5,
			status = $6, bill_line1 = $7, bill_line2 = $8, bill_city = $9, bill_pincode = $10, bill_state = $11,
			total_quantity = $12, total_amount = $13, tax_amount = $14, grand_total = $15,
			terms = $16, dispatch_through = $17, destination = $18, updated_at = NOW()
		WHERE id = $1
	`, q.ID, q.ReferenceNumber, q.ClientID, q.IssueDate, q.ValidityDate,
		q.Status, q.Billing.Line1, q.Billing.Line2, q.Billing.City, q.Billing.Pincode, q.Billing.State,
		q.TotalQuantity, q.TotalAmount, q.TaxAmount, q.GrandTotal,
		q.Terms, q.DispatchThrough, q.Destination)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteQuotation(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM quotations WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) InsertGoodsLine(ctx context.Context, line GoodsLine) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO goods_lines (quotation_id, item_id, description, quantity, unit, unit_price, tax_rate, amount, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, line.QuotationID, line.ItemID, line.Description, line.Quantity, line.Unit,
		line.UnitPrice, line.TaxRate, line.Amount, line.LineOrder).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) DeleteGoodsLines(ctx context.Context, quotationID int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM goods_lines WHERE quotation_id = $1", quotationID)
	return err
}

func (r *repository) NextSequence(ctx context.Context, ownerID int64, purpose string) (int64, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (owner_id, purpose, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (owner_id, purpose)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, ownerID, purpose).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// ============================================================================
// CLIENT OPERATIONS
// ============================================================================

const clientColumns = `id, owner_id, email, tax_id, company_name, contact_name, phone, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.OwnerID, &c.Email, &c.TaxID, &c.CompanyName, &c.ContactName,
		&c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetClient(ctx context.Context, id int64) (*Client, error) {
	return scanClient(r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM clients WHERE id = $1", clientColumns), id))
}

func (r *repository) GetClientByEmail(ctx context.Context, ownerID int64, email string) (*Client, error) {
	return scanClient(r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM clients WHERE owner_id = $1 AND email = $2", clientColumns), ownerID, email))
}

func (r *repository) GetClientByTaxID(ctx context.Context, ownerID int64, taxID string) (*Client, error) {
	return scanClient(r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM clients WHERE owner_id = $1 AND tax_id = $2", clientColumns), ownerID, taxID))
}

func (r *repository) CreateClient(ctx context.Context, c Client) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO clients (owner_id, email, tax_id, company_name, contact_name, phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, c.OwnerID, c.Email, c.TaxID, c.CompanyName, c.ContactName, c.Phone).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateClient(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	query := "UPDATE clients SET updated_at = NOW()"
	var args []any
	argPos := 1

	for _, col := range []string{"email", "tax_id", "company_name", "contact_name", "phone"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AddClientQuotationRef maintains the client's back-reference set with an
// additive insert; concurrent quotations for the same client never clobber
// each other's entries.
func (r *repository) AddClientQuotationRef(ctx context.Context, clientID, quotationID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO client_quotations (client_id, quotation_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, clientID, quotationID)
	return err
}

func (r *repository) RemoveClientQuotationRef(ctx context.Context, clientID, quotationID int64) error {
	_, err := r.db.Exec(ctx,
		"DELETE FROM client_quotations WHERE client_id = $1 AND quotation_id = $2", clientID, quotationID)
	return err
}

// ============================================================================
// TICKET OPERATIONS
// ============================================================================

const ticketColumns = `id, quotation_ref, owner_id, client_id, client_company, client_contact,
       mirror_billing, ship_line1, ship_line2, ship_city, ship_pincode, ship_state,
       goods, total_quantity, total_amount, tax_amount, grand_total, terms, status, created_at, updated_at`

func scanTicket(row pgx.Row) (*Ticket, error) {
	var t Ticket
	err := row.Scan(&t.ID, &t.QuotationRef, &t.OwnerID, &t.ClientID, &t.ClientCompany, &t.ClientContact,
		&t.MirrorBilling, &t.ShipLine1, &t.ShipLine2, &t.ShipCity, &t.ShipPincode, &t.ShipState,
		&t.Goods, &t.TotalQuantity, &t.TotalAmount, &t.TaxAmount, &t.GrandTotal, &t.Terms,
		&t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) GetTicket(ctx context.Context, id int64) (*Ticket, error) {
	return scanTicket(r.db.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM tickets WHERE id = $1", ticketColumns), id))
}

func (r *repository) ListTickets(ctx context.Context, req ListTicketsRequest) ([]Ticket, int, error) {
	var conditions []string
	var args []any
	argPos := 1

	if !req.AllOwner {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argPos))
		args = append(args, req.OwnerID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			whereClause += " AND " + conditions[i]
		}
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tickets %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM tickets %s ORDER BY id DESC LIMIT $%d OFFSET $%d",
		ticketColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		var t Ticket
		err := rows.Scan(&t.ID, &t.QuotationRef, &t.OwnerID, &t.ClientID, &t.ClientCompany, &t.ClientContact,
			&t.MirrorBilling, &t.ShipLine1, &t.ShipLine2, &t.ShipCity, &t.ShipPincode, &t.ShipState,
			&t.Goods, &t.TotalQuantity, &t.TotalAmount, &t.TaxAmount, &t.GrandTotal, &t.Terms,
			&t.Status, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, t)
	}
	return tickets, total, rows.Err()
}

func (r *repository) ListTicketsByQuotationRef(ctx context.Context, ref string) ([]Ticket, error) {
	rows, err := r.db.Query(ctx,
		fmt.Sprintf("SELECT %s FROM tickets WHERE quotation_ref = $1 ORDER BY id", ticketColumns), ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		var t Ticket
		err := rows.Scan(&t.ID, &t.QuotationRef, &t.OwnerID, &t.ClientID, &t.ClientCompany, &t.ClientContact,
			&t.MirrorBilling, &t.ShipLine1, &t.ShipLine2, &t.ShipCity, &t.ShipPincode, &t.ShipState,
			&t.Goods, &t.TotalQuantity, &t.TotalAmount, &t.TaxAmount, &t.GrandTotal, &t.Terms,
			&t.Status, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (r *repository) UpdateTicketSyncFields(ctx context.Context, t Ticket) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE tickets SET
			client_id = $2, client_company = $3, client_contact = $4,
			ship_line1 = $5, ship_line2 = $6, ship_city = $7, ship_pincode = $8, ship_state = $9,
			goods = $10, total_quantity = $11, total_amount = $12, terms = $13, updated_at = NOW()
		WHERE id = $1
	`, t.ID, t.ClientID, t.ClientCompany, t.ClientContact,
		t.ShipLine1, t.ShipLine2, t.ShipCity, t.ShipPincode, t.ShipState,
		t.Goods, t.TotalQuantity, t.TotalAmount, t.Terms)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateTicketTotals(ctx context.Context, ticketID int64, totalQuantity, totalAmount, taxAmount, grandTotal float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE tickets SET
			total_quantity = $2, total_amount = $3, tax_amount = $4, grand_total = $5, updated_at = NOW()
		WHERE id = $1
	`, ticketID, totalQuantity, totalAmount, taxAmount, grandTotal)
	return err
}

func (r *repository) SetTicketQuotationRef(ctx context.Context, ticketID int64, ref string) error {
	_, err := r.db.Exec(ctx, "UPDATE tickets SET quotation_ref = $2, updated_at = NOW() WHERE id = $1", ticketID, ref)
	return err
}

func (r *repository) SetTicketStatus(ctx context.Context, ticketID int64, status TicketStatus) error {
	_, err := r.db.Exec(ctx, "UPDATE tickets SET status = $2, updated_at = NOW() WHERE id = $1", ticketID, status)
	return err
}

func (r *repository) InsertTicketStatusHistory(ctx context.Context, h TicketStatusHistory) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO ticket_status_history (ticket_id, status, note, changed_by)
		VALUES ($1, $2, $3, $4)
	`, h.TicketID, h.Status, h.Note, h.ChangedBy)
	return err
}

func (r *repository) ListTicketStatusHistory(ctx context.Context, ticketID int64) ([]TicketStatusHistory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, ticket_id, status, note, changed_by, changed_at
		FROM ticket_status_history
		WHERE ticket_id = $1
		ORDER BY changed_at, id
	`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []TicketStatusHistory
	for rows.Next() {
		var h TicketStatusHistory
		if err := rows.Scan(&h.ID, &h.TicketID, &h.Status, &h.Note, &h.ChangedBy, &h.ChangedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// ============================================================================
// BACKUP
// ============================================================================

func (r *repository) WriteBackup(ctx context.Context, rec backup.Record) error {
	if r.tx == nil {
		return fmt.Errorf("sales: backup write outside transaction")
	}
	_, err := backup.Write(ctx, r.tx, rec)
	return err
}
