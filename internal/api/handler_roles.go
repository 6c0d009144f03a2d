package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"voucherd/internal/domain"
)

func (h *APIHandler) handleAddRole(w http.ResponseWriter, r *http.Request) {
	var req addRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	grant, err := h.roles.AddUserRole(r.Context(), domain.AddRoleGrantRequest{
		Username:    chi.URLParam(r, "username"),
		GroupID:     chi.URLParam(r, "groupID"),
		Role:        req.Role,
		AccountType: req.AccountType,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grantToAPI(grant))
}

func (h *APIHandler) handleRemoveRole(w http.ResponseWriter, r *http.Request) {
	err := h.roles.RemoveUserRole(r.Context(), chi.URLParam(r, "username"), chi.URLParam(r, "groupID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) handleGetUserRoles(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	grants, err := h.roles.GetUserRoles(r.Context(), username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	roles := make([]roleGrantResponse, 0, len(grants))
	for i := range grants {
		roles = append(roles, grantToAPI(&grants[i]))
	}
	writeJSON(w, http.StatusOK, userRolesResponse{Username: username, Roles: roles})
}
