package sales

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/saral-erp/saral-erp/internal/platform/httpx"
	"github.com/saral-erp/saral-erp/internal/shared"
)

// Handler exposes the quotation and ticket API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers quotation and ticket routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/quotations", func(r chi.Router) {
		r.Get("/", h.listQuotations)
		r.Post("/", h.createQuotation)
		r.Post("/number", h.allocateNumber)
		r.Get("/number/{ref}/available", h.checkNumber)
		r.Get("/by-ref/{ref}", h.findByReference)
		r.Get("/{id}", h.getQuotation)
		r.Put("/{id}", h.updateQuotation)
		r.Delete("/{id}", h.deleteQuotation)
	})

	r.Route("/tickets", func(r chi.Router) {
		r.Get("/", h.listTickets)
		r.Get("/{id}", h.getTicket)
		r.Get("/{id}/history", h.getTicketHistory)
		r.Patch("/{id}/status", h.updateTicketStatus)
	})
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id", shared.ErrInvalidInput)
	}
	return id, nil
}

func (h *Handler) auth(w http.ResponseWriter, r *http.Request) (shared.AuthContext, bool) {
	auth, ok := shared.AuthFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing authentication")
		return shared.AuthContext{}, false
	}
	return auth, true
}

// ============================================================================
// QUOTATION HANDLERS
// ============================================================================

type quotationListResponse struct {
	Quotations []QuotationWithClient `json:"quotations"`
	Meta       shared.Pagination     `json:"meta"`
}

// pageMeta mirrors the clamping the service applies to list requests.
func pageMeta(limit, offset, total int) shared.Pagination {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return shared.NewPagination(offset/limit+1, limit, total)
}

// Money figures are stored unrounded; two-decimal rounding happens once, when
// the value leaves the API.
func roundQuotation(q Quotation) Quotation {
	q.TotalAmount = Round2(q.TotalAmount)
	q.TaxAmount = Round2(q.TaxAmount)
	q.GrandTotal = Round2(q.GrandTotal)
	goods := make([]GoodsLine, len(q.Goods))
	copy(goods, q.Goods)
	for i := range goods {
		goods[i].Amount = Round2(goods[i].Amount)
	}
	q.Goods = goods
	return q
}

func roundTicket(t Ticket) Ticket {
	t.TotalAmount = Round2(t.TotalAmount)
	t.TaxAmount = Round2(t.TaxAmount)
	t.GrandTotal = Round2(t.GrandTotal)
	goods := make([]GoodsLine, len(t.Goods))
	copy(goods, t.Goods)
	for i := range goods {
		goods[i].Amount = Round2(goods[i].Amount)
	}
	t.Goods = goods
	return t
}

func (h *Handler) listQuotations(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.auth(w, r)
	if !ok {
		return
	}

	req := ListQuotationsRequest{
		AllOwner: r.URL.Query().Get("all") == "true",
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := QuotationStatus(s)
		req.Status = &status
	}
	if s := r.URL.Query().Get("q"); s != "" {
		req.Search = &s
	}
	req.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	req.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if req.Offset < 0 {
		req.Offset = 0
	}

	quotations, total, err := h.service.ListQuotations(r.Context(), auth, req)
	if err != nil {
		h.logger.Error("list quotations failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	if quotations == nil {
		quotations = []QuotationWithClient{}
	}
	for i := range quotations {
		quotations[i].Quotation = roundQuotation(quotations[i].Quotation)
	}

	httpx.JSON(w, http.StatusOK, quotationListResponse{
		Quotations: quotations,
		Meta:       pageMeta(req.Limit, req.Offset, total),
	})
}

func (h *Handler) getQuotation(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.auth(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	q, err := h.service.GetQuotation(r.Context(), auth, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roundQuotation(*q))
}

func (h *Handler) findByReference(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.auth(w, r)
	if !ok {
		return
	}

	q, err := h.service.FindByReference(r.Context(), auth, chi.URLParam(r, "ref"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roundQuotation(*q))
}

func (h *Handler) createQuotation(w http.ResponseWriter, r *http.Request) {
	h.upsertQuotation(w, r, 0)
}

func (h *Handler) updateQuotation(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.upsertQuotation(w, r, id)
}

func (h *Handler) upsertQuotation(w http.ResponseWriter, r *http.Request, id int64) {
	auth, ok := h.auth(w, r)
	if !ok {
		return
	}

	var req UpsertQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	q, err := h.service.UpsertQuotation(r.Context(), auth, id, req)
	if err != nil {
		h.logger.Error("upsert quotation failed", "error", err, "reference", req.ReferenceNumber)
		httpx.RespondError(w, err)
		return
	}

	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, roundQuotation(*q))
}

func (h *Handler) deleteQuotation(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.auth(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	if err := h.service.DeleteQuotation(r.Context(), auth, id); err != nil {
		h.logger.Error("delete quotation failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) allocateNumber(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.auth(w, r)
	if !ok {
		return
	}

	ref, err := h.service.AllocateReferenceNumber(r.Context(), auth)
	if err != nil {
		h.logger.Error("allocate reference number failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"reference_number": ref})
}

func (h *Handler) checkNumber(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.auth(w, r)
	if !ok {
		return
	}

	available, err := h.service.CheckReferenceAvailable(r.Context(), auth, chi.URLParam(r, "ref"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"available": available})
}

// ============================================================================
// TICKET HANDLERS
// ============================================================================

type ticketListResponse struct {
	Tickets []Ticket          `json:"tickets"`
	Meta    shared.Pagination `json:"meta"`
}

func (h *Handler) listTickets(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.auth(w, r)
	if !ok {
		return
	}

	req := ListTicketsRequest{
		AllOwner: r.URL.Query().Get("all") == "true",
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := TicketStatus(s)
		req.Status = &status
	}
	req.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	req.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if req.Offset < 0 {
		req.Offset = 0
	}

	tickets, total, err := h.service.ListTickets(r.Context(), auth, req)
	if err != nil {
		h.logger.Error("list tickets failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	if tickets == nil {
		tickets = []Ticket{}
	}
	for i := range tickets {
		tickets[i] = roundTicket(tickets[i])
	}

	httpx.JSON(w, http.StatusOK, ticketListResponse{
		Tickets: tickets,
		Meta:    pageMeta(req.Limit, req.Offset, total),
	})
}

func (h *Handler) getTicket(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.auth(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	t, err := h.service.GetTicket(r.Context(), auth, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roundTicket(*t))
}

func (h *Handler) getTicketHistory(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.auth(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	history, err := h.service.GetTicketHistory(r.Context(), auth, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if history == nil {
		history = []TicketStatusHistory{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"history": history})
}

type updateTicketStatusRequest struct {
	Status TicketStatus `json:"status" validate:"required"`
	Note   string       `json:"note,omitempty" validate:"omitempty,max=500"`
}

func (h *Handler) updateTicketStatus(w http.ResponseWriter, r *http.Request) {
	auth, ok := h.auth(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	var req updateTicketStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation failed", err.Error())
		return
	}

	t, err := h.service.UpdateTicketStatus(r.Context(), auth, id, req.Status, req.Note)
	if err != nil {
		h.logger.Error("update ticket status failed", "error", err, "ticket_id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, roundTicket(*t))
}
