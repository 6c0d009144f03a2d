package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"voucherd/internal/domain"
)

func (h *APIHandler) handleAddSerial(w http.ResponseWriter, r *http.Request) {
	err := h.serials.AddSerial(r.Context(), domain.BindSerialRequest{
		GroupID: chi.URLParam(r, "groupID"),
		Serial:  chi.URLParam(r, "serial"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) handleRemoveSerial(w http.ResponseWriter, r *http.Request) {
	err := h.serials.RemoveSerial(r.Context(), domain.BindSerialRequest{
		GroupID: chi.URLParam(r, "groupID"),
		Serial:  chi.URLParam(r, "serial"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) handleGetSerial(w http.ResponseWriter, r *http.Request) {
	info, err := h.serials.GetSerial(r.Context(), chi.URLParam(r, "serial"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, serialInfoToAPI(info))
}
