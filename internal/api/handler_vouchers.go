package api

import (
	"net/http"

	"voucherd/internal/domain"
)

func (h *APIHandler) handleIssueVoucher(w http.ResponseWriter, r *http.Request) {
	var req issueVoucherRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	issued, err := h.vouchers.IssueVoucher(r.Context(), domain.IssueVoucherRequest{
		Serial:    req.Serial,
		CertID:    req.CertID,
		ExpiresOn: req.ExpiresOn,
		IEN:       req.IEN,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, voucherResponse{
		Voucher:         issued.Voucher,
		DevicePublicKey: issued.DevicePublicKey,
	})
}
