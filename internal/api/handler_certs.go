package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"voucherd/internal/domain"
)

func (h *APIHandler) handleCreateCert(w http.ResponseWriter, r *http.Request) {
	var req createCertRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	cert, err := h.certs.CreateDomainCert(r.Context(), domain.CreateDomainCertRequest{
		GroupID:          chi.URLParam(r, "groupID"),
		Raw:              req.Cert,
		RevocationChecks: req.RevocationChecks,
		ExpiresOn:        req.ExpiresOn,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, certToAPI(cert))
}

func (h *APIHandler) handleGetCert(w http.ResponseWriter, r *http.Request) {
	cert, err := h.certs.GetDomainCert(r.Context(), chi.URLParam(r, "certID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, certToAPI(cert))
}

func (h *APIHandler) handleDeleteCert(w http.ResponseWriter, r *http.Request) {
	if err := h.certs.DeleteDomainCert(r.Context(), chi.URLParam(r, "certID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
