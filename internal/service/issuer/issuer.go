// Package issuer implements ownership voucher issuance: the read-and-derive
// operation that turns a (serial, domain cert) pair the caller is authorized
// for into a signed voucher envelope.
package issuer

import (
	"context"
	"errors"
	"time"

	"voucherd/internal/domain"
	"voucherd/internal/service/auditutil"
	"voucherd/internal/service/security"
	"voucherd/internal/voucher"
)

// VoucherService issues ownership vouchers. Issuance persists nothing;
// repeating a request yields a fresh voucher over the same bindings.
type VoucherService struct {
	certs      domain.CertRepository
	serials    domain.SerialRepository
	authz      *security.AuthorizationService
	devices    domain.DeviceRegistry
	signer     domain.VoucherSigner
	audit      domain.AuditRepository
	servedIENs map[string]bool
}

// NewVoucherService creates a VoucherService serving the given IENs.
func NewVoucherService(
	certs domain.CertRepository,
	serials domain.SerialRepository,
	authz *security.AuthorizationService,
	devices domain.DeviceRegistry,
	signer domain.VoucherSigner,
	audit domain.AuditRepository,
	servedIENs []string,
) *VoucherService {
	served := make(map[string]bool, len(servedIENs))
	for _, ien := range servedIENs {
		served[ien] = true
	}
	return &VoucherService{
		certs:      certs,
		serials:    serials,
		authz:      authz,
		devices:    devices,
		signer:     signer,
		audit:      audit,
		servedIENs: served,
	}
}

// IssueVoucher builds and signs an ownership voucher for a device.
//
// The serial and the pinned certificate must meet in a single group: the
// cert's owning group must also have the serial bound to it, and the caller
// must hold REQUESTOR or better there. A (serial, cert) pair with no common
// group is not found; a common group the caller cannot read is denied.
func (s *VoucherService) IssueVoucher(ctx context.Context, req domain.IssueVoucherRequest) (*domain.IssuedVoucher, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !s.servedIENs[req.IEN] {
		return nil, domain.ErrValidation("ien %q is not served by this issuer", req.IEN)
	}

	cert, err := s.certs.GetByID(ctx, req.CertID)
	if err != nil {
		return nil, err
	}

	boundGroups, err := s.serials.GroupIDsForSerial(ctx, req.Serial)
	if err != nil {
		return nil, err
	}
	if !containsString(boundGroups, cert.GroupID) {
		return nil, domain.ErrNotFound(
			"serial %q is not bound to the group holding certificate %s", req.Serial, req.CertID)
	}

	target := req.Serial + "/" + req.CertID
	if _, err := s.authz.Authorize(ctx, caller, cert.GroupID, domain.RoleRequestor); err != nil {
		auditutil.LogDenied(ctx, s.audit, caller, domain.ActionIssueVoucher, target, err.Error())
		return nil, err
	}

	// The cert record carries an operator-set bound on how far vouchers
	// issued against it may reach. A lapsed bound fails every request here.
	if req.ExpiresOn.After(cert.ExpiresOn) {
		return nil, domain.ErrValidation(
			"requested expiry %s exceeds certificate %s voucher bound %s",
			req.ExpiresOn.UTC().Format(time.RFC3339), cert.ID, cert.ExpiresOn.UTC().Format(time.RFC3339))
	}

	device, err := s.devices.Lookup(ctx, req.Serial)
	if err != nil {
		if errors.As(err, new(*domain.NotFoundError)) {
			return nil, domain.ErrNotFound("serial %q is unknown to the device registry", req.Serial)
		}
		auditutil.LogError(ctx, s.audit, caller, domain.ActionIssueVoucher, target, err.Error())
		return nil, err
	}

	payload := &voucher.Payload{
		SerialNumber:     req.Serial,
		CreatedOn:        time.Now().UTC().Unix(),
		ExpiresOn:        req.ExpiresOn.UTC().Unix(),
		Assertion:        voucher.AssertionLogged,
		PinnedDomainCert: cert.Raw,
		RevocationChecks: cert.RevocationChecks,
		IEN:              req.IEN,
	}
	payloadBytes, err := voucher.EncodePayload(payload)
	if err != nil {
		return nil, err
	}

	sig, alg, err := s.signer.Sign(ctx, cert.ID, payloadBytes)
	if err != nil {
		auditutil.LogError(ctx, s.audit, caller, domain.ActionIssueVoucher, target, err.Error())
		return nil, err
	}

	envelope, err := voucher.Encode(&voucher.Envelope{
		Version:   voucher.Version,
		SignerID:  cert.ID,
		Algorithm: alg,
		Payload:   payloadBytes,
		Signature: sig,
	})
	if err != nil {
		return nil, err
	}

	auditutil.LogAllowed(ctx, s.audit, caller, domain.ActionIssueVoucher, target)
	return &domain.IssuedVoucher{
		Voucher:         envelope,
		DevicePublicKey: device.PublicKey,
	}, nil
}

func callerFromContext(ctx context.Context) (domain.Caller, error) {
	c, ok := domain.CallerFromContext(ctx)
	if !ok {
		return domain.Caller{}, domain.ErrPermissionDenied("authentication required")
	}
	return c, nil
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
