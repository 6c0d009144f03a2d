package domain

import "time"

// DomainCert is an owner domain certificate attached to a group. The raw
// bytes are the DER encoding of an X.509 certificate; vouchers issued
// against the cert pin this exact encoding.
type DomainCert struct {
	ID               string
	GroupID          string
	Raw              []byte
	Fingerprint      string // hex SHA-256 of Raw
	RevocationChecks bool
	ExpiresOn        time.Time
	CreatedBy        string
	CreatedAt        time.Time
}

// CreateDomainCertRequest holds parameters for attaching a domain cert.
// ExpiresOn bounds the vouchers issued against the cert, independent of the
// certificate's own validity window.
type CreateDomainCertRequest struct {
	GroupID          string
	Raw              []byte
	RevocationChecks bool
	ExpiresOn        time.Time
}

// Validate checks that the request is well-formed. Certificate parsing
// happens in the service layer; only shape is checked here.
func (r *CreateDomainCertRequest) Validate() error {
	if r.GroupID == "" {
		return ErrValidation("group id is required")
	}
	if len(r.Raw) == 0 {
		return ErrValidation("certificate bytes are required")
	}
	if r.ExpiresOn.IsZero() {
		return ErrValidation("expiry is required")
	}
	if !r.ExpiresOn.After(time.Now()) {
		return ErrValidation("expiry must be in the future")
	}
	return nil
}
