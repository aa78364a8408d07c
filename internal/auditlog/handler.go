package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/expense-approval/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, entityType string, entityID int64, limit, offset int) ([]*Entry, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	entityType := r.URL.Query().Get("entity_type")
	var entityID int64
	if idStr := r.URL.Query().Get("entity_id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid entity_id")
			return
		}
		entityID = id
	}

	entries, err := h.Service.List(r.Context(), entityType, entityID, limit, offset)
	if err != nil {
		h.Logger.Error("ListAuditLogs: service error", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to get audit logs")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"audit_logs": entries,
		"limit":      limit,
		"offset":     offset,
	})
}
