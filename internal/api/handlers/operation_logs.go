// operation_logs.go — обработчики /api/v1/operation-logs.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/goartstore/backoffice-module/internal/api/errors"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
)

// OperationLogPage — POST /api/v1/operation-logs/page.
func (h *APIHandler) OperationLogPage(w http.ResponseWriter, r *http.Request) {
	var dt query.DataTableRequest
	if !decodeJSON(w, r, &dt) {
		return
	}
	page, err := h.logs.Page(r.Context(), pageRequest(dt, h.maxPageSize))
	if err != nil {
		apierrors.FromError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, query.NewDataTableResult(dt.Draw, page))
}

// GetOperationLog — GET /api/v1/operation-logs/{id}.
func (h *APIHandler) GetOperationLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	l, err := h.logs.Get(r.Context(), id)
	if err != nil {
		apierrors.FromError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// OperationLogDetails — GET /api/v1/operation-logs/{id}/details.
func (h *APIHandler) OperationLogDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rows, err := h.logs.Details(r.Context(), id)
	if err != nil {
		apierrors.FromError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
