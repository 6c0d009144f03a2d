package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"voucherd/internal/domain"
)

func (h *APIHandler) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	group, err := h.groups.CreateGroup(r.Context(), domain.CreateGroupRequest{
		ParentID:    req.ParentID,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, groupToAPI(group))
}

func (h *APIHandler) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	detail, err := h.groups.GetGroup(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groupDetailToAPI(detail))
}

func (h *APIHandler) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.DeleteGroup(r.Context(), chi.URLParam(r, "groupID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
