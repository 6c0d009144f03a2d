package domain

import "time"

// Device is a registry record for a manufactured device.
type Device struct {
	Serial     string
	PublicKey  []byte
	MACAddress string
}

// IssueVoucherRequest holds parameters for issuing an ownership voucher.
type IssueVoucherRequest struct {
	Serial    string
	CertID    string
	ExpiresOn time.Time
	IEN       string
}

// Validate checks that the request is well-formed.
func (r *IssueVoucherRequest) Validate() error {
	if r.Serial == "" {
		return ErrValidation("serial number is required")
	}
	if r.CertID == "" {
		return ErrValidation("certificate id is required")
	}
	if r.IEN == "" {
		return ErrValidation("ien is required")
	}
	if r.ExpiresOn.IsZero() {
		return ErrValidation("expiry is required")
	}
	if !r.ExpiresOn.After(time.Now()) {
		return ErrValidation("expiry must be in the future")
	}
	return nil
}

// IssuedVoucher is the result of a successful issuance: the signed voucher
// envelope plus the device's registry public key for out-of-band checks.
type IssuedVoucher struct {
	Voucher         []byte
	DevicePublicKey []byte
}
