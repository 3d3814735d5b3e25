package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saral-erp/saral-erp/internal/backup"
	"github.com/saral-erp/saral-erp/internal/shared"
)

// backupEntityQuotation tags quotation documents in the backup catalog.
const backupEntityQuotation = "quotation"

// ItemSnapshot is the subset of a catalog item copied into a goods line when
// the caller references an item without spelling out its details.
type ItemSnapshot struct {
	Description string
	Unit        string
	UnitPrice   float64
	TaxRate     float64
}

// ItemCatalog resolves item snapshots. A nil catalog disables item lookup.
type ItemCatalog interface {
	Snapshot(ctx context.Context, itemID int64) (*ItemSnapshot, error)
}

// Service implements the quotation lifecycle: tax recomputation, client
// resolution, reference allocation, the status rules, ticket synchronization
// and delete-with-backup. Every mutation runs in one repository transaction.
type Service struct {
	repo    Repository
	tax     *TaxCalculator
	catalog ItemCatalog
	logger  *slog.Logger
}

// NewService constructs the quotation service. catalog may be nil.
func NewService(repo Repository, tax *TaxCalculator, catalog ItemCatalog, logger *slog.Logger) *Service {
	return &Service{repo: repo, tax: tax, catalog: catalog, logger: logger}
}

// buildGoods fills in item snapshots and normalizes line text. Amounts and
// totals come later from the tax calculator.
func (s *Service) buildGoods(ctx context.Context, inputs []GoodsLineInput) ([]GoodsLine, error) {
	lines := make([]GoodsLine, 0, len(inputs))

	for i, in := range inputs {
		line := GoodsLine{
			ItemID:      in.ItemID,
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
			Unit:        strings.TrimSpace(in.Unit),
			UnitPrice:   in.UnitPrice,
			TaxRate:     in.TaxRate,
			LineOrder:   i,
		}

		if in.ItemID != nil && line.Description == "" {
			if s.catalog == nil {
				return nil, fmt.Errorf("%w: line %d references an item but no catalog is configured", shared.ErrInvalidInput, i+1)
			}
			snap, err := s.catalog.Snapshot(ctx, *in.ItemID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return nil, fmt.Errorf("%w: item %d not found", shared.ErrInvalidInput, *in.ItemID)
				}
				return nil, err
			}
			line.Description = snap.Description
			if line.Unit == "" {
				line.Unit = snap.Unit
			}
			if line.UnitPrice == 0 {
				line.UnitPrice = snap.UnitPrice
			}
		}

		if line.Description == "" {
			return nil, fmt.Errorf("%w: line %d has no description", shared.ErrInvalidInput, i+1)
		}

		lines = append(lines, line)
	}
	return lines, nil
}

// UpsertQuotation creates (id == 0) or updates a quotation. The whole
// operation, client resolution included, commits atomically.
func (s *Service) UpsertQuotation(ctx context.Context, auth shared.AuthContext, id int64, req UpsertQuotationRequest) (*Quotation, error) {
	ref := strings.TrimSpace(req.ReferenceNumber)
	if ref == "" {
		return nil, fmt.Errorf("%w: reference number is required", shared.ErrInvalidInput)
	}
	if len(req.Goods) == 0 {
		return nil, fmt.Errorf("%w: at least one goods line is required", shared.ErrInvalidInput)
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, req.Status)
	}

	lines, err := s.buildGoods(ctx, req.Goods)
	if err != nil {
		return nil, err
	}
	breakdown := s.computeBreakdown(lines, req.Billing.State)
	for i := range lines {
		lines[i].Amount = breakdown.Lines[i].Amount
	}

	var result *Quotation
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		client, err := resolveClient(ctx, tx, auth.UserID, req.Client)
		if err != nil {
			return err
		}

		q := Quotation{
			ID:              id,
			ReferenceNumber: ref,
			OwnerID:         auth.UserID,
			ClientID:        client.ID,
			IssueDate:       req.IssueDate,
			ValidityDate:    req.ValidityDate,
			Status:          req.Status,
			Billing:         req.Billing,
			TotalQuantity:   breakdown.TotalQuantity,
			TotalAmount:     breakdown.TotalAmount,
			TaxAmount:       breakdown.TaxAmount,
			GrandTotal:      breakdown.GrandTotal,
			Terms:           req.Terms,
			DispatchThrough: req.DispatchThrough,
			Destination:     req.Destination,
			Goods:           lines,
		}

		if id == 0 {
			stored, err := s.createQuotation(ctx, tx, q)
			if err != nil {
				return err
			}
			result = stored
			return nil
		}

		stored, err := s.updateQuotation(ctx, tx, auth, q)
		if err != nil {
			return err
		}
		result = stored
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quotation upserted",
		slog.Int64("id", result.ID),
		slog.String("reference", result.ReferenceNumber),
		slog.Int64("owner_id", result.OwnerID))
	return result, nil
}

func (s *Service) computeBreakdown(lines []GoodsLine, billingState string) TaxBreakdown {
	inputs := make([]TaxLineInput, len(lines))
	for i, l := range lines {
		inputs[i] = TaxLineInput{Quantity: l.Quantity, UnitPrice: l.UnitPrice, TaxRate: l.TaxRate}
	}
	return s.tax.Calculate(inputs, billingState)
}

func (s *Service) createQuotation(ctx context.Context, tx Repository, q Quotation) (*Quotation, error) {
	if _, err := tx.QuotationIDByReference(ctx, q.OwnerID, q.ReferenceNumber); err == nil {
		return nil, fmt.Errorf("%w: reference number %s already in use", shared.ErrConflict, q.ReferenceNumber)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if q.Status == "" {
		q.Status = QuotationStatusOpen
	}

	id, err := tx.CreateQuotation(ctx, q)
	if err != nil {
		return nil, err
	}
	q.ID = id

	for i := range q.Goods {
		q.Goods[i].QuotationID = id
		lineID, err := tx.InsertGoodsLine(ctx, q.Goods[i])
		if err != nil {
			return nil, err
		}
		q.Goods[i].ID = lineID
	}

	if err := tx.AddClientQuotationRef(ctx, q.ClientID, id); err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *Service) updateQuotation(ctx context.Context, tx Repository, auth shared.AuthContext, q Quotation) (*Quotation, error) {
	stored, err := tx.GetQuotation(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	if stored.OwnerID != auth.UserID && !auth.Elevated() {
		return nil, shared.ErrNotFound
	}
	q.OwnerID = stored.OwnerID

	// An omitted status preserves the stored one; an explicit status must
	// obey the open/hold rule.
	if q.Status == "" {
		q.Status = stored.Status
	} else if !canTransition(stored.Status, q.Status) {
		return nil, fmt.Errorf("%w: cannot change status from %s to %s", shared.ErrConflict, stored.Status, q.Status)
	}

	refChanged := q.ReferenceNumber != stored.ReferenceNumber
	if refChanged {
		if existingID, err := tx.QuotationIDByReference(ctx, q.OwnerID, q.ReferenceNumber); err == nil && existingID != q.ID {
			return nil, fmt.Errorf("%w: reference number %s already in use", shared.ErrConflict, q.ReferenceNumber)
		} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	if err := tx.UpdateQuotation(ctx, q); err != nil {
		return nil, err
	}

	if err := tx.DeleteGoodsLines(ctx, q.ID); err != nil {
		return nil, err
	}
	for i := range q.Goods {
		q.Goods[i].QuotationID = q.ID
		lineID, err := tx.InsertGoodsLine(ctx, q.Goods[i])
		if err != nil {
			return nil, err
		}
		q.Goods[i].ID = lineID
	}

	if q.ClientID != stored.ClientID {
		if err := tx.RemoveClientQuotationRef(ctx, stored.ClientID, q.ID); err != nil {
			return nil, err
		}
	}
	if err := tx.AddClientQuotationRef(ctx, q.ClientID, q.ID); err != nil {
		return nil, err
	}

	if err := s.syncTickets(ctx, tx, stored.ReferenceNumber, refChanged, q); err != nil {
		return nil, err
	}
	return &q, nil
}

// syncTickets pushes the edited quotation into its derived tickets. Tickets
// past the sync window keep their copied data but still follow a reference
// rename so the link stays resolvable.
func (s *Service) syncTickets(ctx context.Context, tx Repository, oldRef string, refChanged bool, q Quotation) error {
	tickets, err := tx.ListTicketsByQuotationRef(ctx, oldRef)
	if err != nil {
		return err
	}

	var client *Client
	for _, t := range tickets {
		if refChanged {
			if err := tx.SetTicketQuotationRef(ctx, t.ID, q.ReferenceNumber); err != nil {
				return err
			}
		}
		if t.Status.Finalized() {
			s.logger.Debug("ticket sync skipped",
				slog.Int64("ticket_id", t.ID),
				slog.String("status", string(t.Status)))
			continue
		}

		if client == nil {
			client, err = tx.GetClient(ctx, q.ClientID)
			if err != nil {
				return err
			}
		}

		t.ClientID = q.ClientID
		t.ClientCompany = client.CompanyName
		t.ClientContact = client.ContactName
		t.Goods = q.Goods
		t.TotalQuantity = q.TotalQuantity
		t.TotalAmount = q.TotalAmount
		t.Terms = q.Terms
		if t.MirrorBilling {
			t.ShipLine1 = q.Billing.Line1
			t.ShipLine2 = q.Billing.Line2
			t.ShipCity = q.Billing.City
			t.ShipPincode = q.Billing.Pincode
			t.ShipState = q.Billing.State
		}
		if err := tx.UpdateTicketSyncFields(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// GetQuotation loads one quotation, scoped to the caller unless elevated.
func (s *Service) GetQuotation(ctx context.Context, auth shared.AuthContext, id int64) (*Quotation, error) {
	q, err := s.repo.GetQuotation(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.OwnerID != auth.UserID && !auth.Elevated() {
		return nil, shared.ErrNotFound
	}
	return q, nil
}

// FindByReference loads the caller's quotation by its reference number.
func (s *Service) FindByReference(ctx context.Context, auth shared.AuthContext, ref string) (*Quotation, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: reference number is required", shared.ErrInvalidInput)
	}
	return s.repo.GetQuotationByReference(ctx, auth.UserID, ref)
}

// ListQuotations returns a page of quotations with resolved client identity.
func (s *Service) ListQuotations(ctx context.Context, auth shared.AuthContext, req ListQuotationsRequest) ([]QuotationWithClient, int, error) {
	req.OwnerID = auth.UserID
	if req.AllOwner && !auth.Elevated() {
		req.AllOwner = false
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, *req.Status)
	}
	return s.repo.ListQuotations(ctx, req)
}

// CheckReferenceAvailable reports whether the reference number is free for
// the caller. The answer is advisory; the upsert still enforces uniqueness.
func (s *Service) CheckReferenceAvailable(ctx context.Context, auth shared.AuthContext, ref string) (bool, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false, fmt.Errorf("%w: reference number is required", shared.ErrInvalidInput)
	}
	_, err := s.repo.QuotationIDByReference(ctx, auth.UserID, ref)
	if errors.Is(err, shared.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// AllocateReferenceNumber hands out the next quotation number for the caller.
// The underlying sequence never repeats, so numbers allocated in the same
// second stay distinct.
func (s *Service) AllocateReferenceNumber(ctx context.Context, auth shared.AuthContext) (string, error) {
	seq, err := s.repo.NextSequence(ctx, auth.UserID, purposeQuotation)
	if err != nil {
		return "", err
	}
	return formatReferenceNumber(time.Now(), seq), nil
}

// quotationBackupDoc is the serialized form stored in the backup catalog.
type quotationBackupDoc struct {
	Quotation Quotation `json:"quotation"`
}

// DeleteQuotation removes a quotation after writing a full backup in the same
// transaction, then walks the derived tickets: every link key is tombstoned
// and tickets still in progress are forced onto hold.
func (s *Service) DeleteQuotation(ctx context.Context, auth shared.AuthContext, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		q, err := tx.GetQuotation(ctx, id)
		if err != nil {
			return err
		}
		if q.OwnerID != auth.UserID && !auth.Elevated() {
			return shared.ErrNotFound
		}

		doc, err := json.Marshal(quotationBackupDoc{Quotation: *q})
		if err != nil {
			return fmt.Errorf("sales: marshal backup: %w", err)
		}
		if err := tx.WriteBackup(ctx, backup.Record{
			EntityType: backupEntityQuotation,
			EntityID:   q.ID,
			Document:   doc,
			DeletedBy:  auth.UserID,
		}); err != nil {
			return err
		}

		if err := tx.DeleteGoodsLines(ctx, q.ID); err != nil {
			return err
		}
		if err := tx.RemoveClientQuotationRef(ctx, q.ClientID, q.ID); err != nil {
			return err
		}
		if err := tx.DeleteQuotation(ctx, q.ID); err != nil {
			return err
		}

		tickets, err := tx.ListTicketsByQuotationRef(ctx, q.ReferenceNumber)
		if err != nil {
			return err
		}
		for _, t := range tickets {
			if err := tx.SetTicketQuotationRef(ctx, t.ID, tombstonePrefix+q.ReferenceNumber); err != nil {
				return err
			}
			if t.Status.Finalized() {
				continue
			}
			if err := tx.SetTicketStatus(ctx, t.ID, TicketStatusHold); err != nil {
				return err
			}
			if err := tx.InsertTicketStatusHistory(ctx, TicketStatusHistory{
				TicketID:  t.ID,
				Status:    TicketStatusHold,
				Note:      "source quotation deleted",
				ChangedBy: auth.UserID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("quotation deleted", slog.Int64("id", id), slog.Int64("deleted_by", auth.UserID))
	return nil
}

// RestoreQuotation rebuilds a quotation from its backup document. Tickets
// tombstoned by the delete are re-linked. Registered with the backup registry
// under the quotation entity type.
func (s *Service) RestoreQuotation(ctx context.Context, rec backup.Record) error {
	var doc quotationBackupDoc
	if err := json.Unmarshal(rec.Document, &doc); err != nil {
		return fmt.Errorf("sales: decode backup %s: %w", rec.ID, err)
	}
	q := doc.Quotation

	return s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if _, err := tx.QuotationIDByReference(ctx, q.OwnerID, q.ReferenceNumber); err == nil {
			return fmt.Errorf("%w: reference number %s already in use", shared.ErrConflict, q.ReferenceNumber)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		goods := q.Goods
		q.ID = 0
		id, err := tx.CreateQuotation(ctx, q)
		if err != nil {
			return err
		}
		for i := range goods {
			goods[i].ID = 0
			goods[i].QuotationID = id
			if _, err := tx.InsertGoodsLine(ctx, goods[i]); err != nil {
				return err
			}
		}
		if err := tx.AddClientQuotationRef(ctx, q.ClientID, id); err != nil {
			return err
		}

		tickets, err := tx.ListTicketsByQuotationRef(ctx, tombstonePrefix+q.ReferenceNumber)
		if err != nil {
			return err
		}
		for _, t := range tickets {
			if err := tx.SetTicketQuotationRef(ctx, t.ID, q.ReferenceNumber); err != nil {
				return err
			}
		}
		return nil
	})
}

// ============================================================================
// TICKETS
// ============================================================================

// GetTicket loads one ticket, scoped to the caller unless elevated.
func (s *Service) GetTicket(ctx context.Context, auth shared.AuthContext, id int64) (*Ticket, error) {
	t, err := s.repo.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != auth.UserID && !auth.Elevated() {
		return nil, shared.ErrNotFound
	}
	return t, nil
}

// ListTickets returns a page of the caller's tickets.
func (s *Service) ListTickets(ctx context.Context, auth shared.AuthContext, req ListTicketsRequest) ([]Ticket, int, error) {
	req.OwnerID = auth.UserID
	if req.AllOwner && !auth.Elevated() {
		req.AllOwner = false
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, *req.Status)
	}
	return s.repo.ListTickets(ctx, req)
}

// GetTicketHistory returns the status trail of a ticket, oldest first.
func (s *Service) GetTicketHistory(ctx context.Context, auth shared.AuthContext, id int64) ([]TicketStatusHistory, error) {
	if _, err := s.GetTicket(ctx, auth, id); err != nil {
		return nil, err
	}
	return s.repo.ListTicketStatusHistory(ctx, id)
}

// UpdateTicketStatus advances a ticket through its fulfillment workflow and
// records the change. The ticket's tax is recomputed from its own goods
// snapshot and shipping state, since the ticket owns its pricing once the
// quotation stops syncing.
func (s *Service) UpdateTicketStatus(ctx context.Context, auth shared.AuthContext, id int64, status TicketStatus, note string) (*Ticket, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, status)
	}

	var result *Ticket
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		t, err := tx.GetTicket(ctx, id)
		if err != nil {
			return err
		}
		if t.OwnerID != auth.UserID && !auth.Elevated() {
			return shared.ErrNotFound
		}
		if t.Status == TicketStatusClosed {
			return fmt.Errorf("%w: ticket is closed", shared.ErrInvalidInput)
		}
		if t.Status == status {
			result = t
			return nil
		}

		breakdown := s.computeBreakdown(t.Goods, t.ShipState)
		if err := tx.UpdateTicketTotals(ctx, t.ID,
			breakdown.TotalQuantity, breakdown.TotalAmount, breakdown.TaxAmount, breakdown.GrandTotal); err != nil {
			return err
		}
		if err := tx.SetTicketStatus(ctx, t.ID, status); err != nil {
			return err
		}
		if err := tx.InsertTicketStatusHistory(ctx, TicketStatusHistory{
			TicketID:  t.ID,
			Status:    status,
			Note:      note,
			ChangedBy: auth.UserID,
		}); err != nil {
			return err
		}

		t.Status = status
		t.TotalQuantity = breakdown.TotalQuantity
		t.TotalAmount = breakdown.TotalAmount
		t.TaxAmount = breakdown.TaxAmount
		t.GrandTotal = breakdown.GrandTotal
		result = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket status updated",
		slog.Int64("ticket_id", id),
		slog.String("status", string(status)),
		slog.Int64("changed_by", auth.UserID))
	return result, nil
}
