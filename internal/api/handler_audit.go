package api

import (
	"net/http"
	"strconv"
	"time"

	"voucherd/internal/domain"
)

func (h *APIHandler) handleListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var page domain.PageRequest
	if raw := q.Get("max_results"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, r, domain.ErrValidation("max_results must be a positive integer"))
			return
		}
		page.MaxResults = n
	}
	page.PageToken = q.Get("page_token")

	filter := domain.AuditFilter{Page: page}
	if v := q.Get("caller"); v != "" {
		filter.Caller = &v
	}
	if v := q.Get("action"); v != "" {
		filter.Action = &v
	}
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}
	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.writeError(w, r, domain.ErrValidation("since must be an RFC 3339 timestamp, got %q", raw))
			return
		}
		filter.Since = &t
	}

	entries, total, err := h.audit.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data := make([]auditEntryResponse, len(entries))
	for i := range entries {
		data[i] = auditEntryToAPI(&entries[i])
	}
	writeJSON(w, http.StatusOK, auditListResponse{
		Data:          data,
		Total:         total,
		NextPageToken: domain.NextPageToken(page.Offset(), page.Limit(), total),
	})
}
