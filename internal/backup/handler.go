package backup

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/saral-erp/saral-erp/internal/platform/httpx"
	"github.com/saral-erp/saral-erp/internal/shared"
)

// Handler exposes the backup catalog to elevated operators.
type Handler struct {
	logger   *slog.Logger
	catalog  *Catalog
	registry *Registry
}

func NewHandler(logger *slog.Logger, catalog *Catalog, registry *Registry) *Handler {
	return &Handler{logger: logger, catalog: catalog, registry: registry}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/backups", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/{id}/restore", h.restore)
	})
}

func (h *Handler) requireElevated(w http.ResponseWriter, r *http.Request) bool {
	auth, ok := shared.AuthFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing authentication")
		return false
	}
	if !auth.Elevated() {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "superadmin role required")
		return false
	}
	return true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if !h.requireElevated(w, r) {
		return
	}
	entityType := r.URL.Query().Get("entity_type")
	if entityType == "" {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "entity_type is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, err := h.catalog.List(r.Context(), entityType, limit, offset)
	if err != nil {
		h.logger.Error("list backups failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	if records == nil {
		records = []Record{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"backups": records})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	if !h.requireElevated(w, r) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "invalid backup id")
		return
	}
	rec, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	if !h.requireElevated(w, r) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "invalid backup id")
		return
	}
	if err := h.registry.Restore(r.Context(), id); err != nil {
		h.logger.Error("restore backup failed", "error", err, "backup_id", id)
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
