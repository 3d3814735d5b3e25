package sales

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/saral-erp/saral-erp/internal/shared"
)

func newTestRouter(repo *memoryRepo, auth shared.AuthContext) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := newTestService(repo)
	handler := NewHandler(logger, svc, validator.New())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := shared.ContextWithAuth(req.Context(), auth)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	handler.MountRoutes(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateAndGetQuotation(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(repo, userAuth())

	rec := doJSON(t, router, http.MethodPost, "/quotations/", baseRequest("Q-100"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Quotation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "Q-100", created.ReferenceNumber)
	require.InDelta(t, 1180.0, created.GrandTotal, 1e-9)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/quotations/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched Quotation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	require.Equal(t, created.ID, fetched.ID)
	require.Len(t, fetched.Goods, 1)
}

func TestHandlerCreateValidationFailure(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(repo, userAuth())

	req := baseRequest("Q-100")
	req.Goods = nil
	rec := doJSON(t, router, http.MethodPost, "/quotations/", req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerResponsesRoundMoney(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(repo, userAuth())

	req := baseRequest("Q-100")
	req.Goods[0].Quantity = 3
	req.Goods[0].UnitPrice = 33.333
	rec := doJSON(t, router, http.MethodPost, "/quotations/", req)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Raw figures are 99.999 / 17.99982 / 117.99882; the response carries two
	// decimals while storage keeps full precision.
	var created Quotation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.InDelta(t, 100.0, created.TotalAmount, 1e-9)
	require.InDelta(t, 18.0, created.TaxAmount, 1e-9)
	require.InDelta(t, 118.0, created.GrandTotal, 1e-9)
	require.InDelta(t, 100.0, created.Goods[0].Amount, 1e-9)

	stored := repo.st.quotations[created.ID]
	require.InDelta(t, 99.999, stored.TotalAmount, 1e-6)
}

func TestHandlerDuplicateReferenceReturnsConflict(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(repo, userAuth())

	rec := doJSON(t, router, http.MethodPost, "/quotations/", baseRequest("Q-100"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/quotations/", baseRequest("Q-100"))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerListQuotationsFilters(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(repo, userAuth())

	for _, ref := range []string{"Q-1", "Q-2", "Q-3"} {
		rec := doJSON(t, router, http.MethodPost, "/quotations/", baseRequest(ref))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/quotations/?q=Q-2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp quotationListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Meta.Total)
	require.Len(t, resp.Quotations, 1)
	require.Equal(t, "Q-2", resp.Quotations[0].ReferenceNumber)
}

func TestHandlerDeleteQuotation(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(repo, userAuth())

	rec := doJSON(t, router, http.MethodPost, "/quotations/", baseRequest("Q-100"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Quotation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/quotations/%d", created.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/quotations/%d", created.ID), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, repo.st.backups, 1)
}

func TestHandlerAllocateAndCheckNumber(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(repo, userAuth())

	rec := doJSON(t, router, http.MethodPost, "/quotations/number", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var allocated map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &allocated))
	ref := allocated["reference_number"]
	require.NotEmpty(t, ref)

	rec = doJSON(t, router, http.MethodGet, "/quotations/number/"+ref+"/available", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var check map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &check))
	require.True(t, check["available"], "allocated numbers are reserved only once used")
}

func TestHandlerTicketStatusUpdate(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(repo, userAuth())

	id := seedTicket(repo, "Q-1", TicketStatusPreparing, false)

	rec := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/tickets/%d/status", id),
		updateTicketStatusRequest{Status: TicketStatusDispatched, Note: "left dock"})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated Ticket
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, TicketStatusDispatched, updated.Status)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/tickets/%d/history", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var hist struct {
		History []TicketStatusHistory `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	require.Len(t, hist.History, 1)
}

func TestHandlerTicketStatusRejectsUnknownValue(t *testing.T) {
	repo := newMemoryRepo()
	router := newTestRouter(repo, userAuth())

	id := seedTicket(repo, "Q-1", TicketStatusPreparing, false)

	rec := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/tickets/%d/status", id),
		map[string]string{"status": "teleported"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerMissingAuthRejected(t *testing.T) {
	repo := newMemoryRepo()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, newTestService(repo), validator.New())

	r := chi.NewRouter()
	handler.MountRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/quotations/", nil).WithContext(context.Background())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
