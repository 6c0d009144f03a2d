package registry

import (
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"

	"voucherd/internal/domain"
	"voucherd/internal/service/auditutil"
	"voucherd/internal/service/security"
)

// CertService manages domain certificates attached to groups.
type CertService struct {
	groups domain.GroupRepository
	certs  domain.CertRepository
	authz  *security.AuthorizationService
	audit  domain.AuditRepository
}

// NewCertService creates a new CertService.
func NewCertService(
	groups domain.GroupRepository,
	certs domain.CertRepository,
	authz *security.AuthorizationService,
	audit domain.AuditRepository,
) *CertService {
	return &CertService{groups: groups, certs: certs, authz: authz, audit: audit}
}

// CreateDomainCert attaches a certificate to a group. The bytes must parse
// as a DER X.509 certificate; the exact encoding is what vouchers pin, so
// it is stored untouched and deduplicated by fingerprint within the group.
func (s *CertService) CreateDomainCert(ctx context.Context, req domain.CreateDomainCertRequest) (*domain.DomainCert, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := x509.ParseCertificate(req.Raw); err != nil {
		return nil, domain.ErrValidation("certificate bytes do not parse as DER X.509: %v", err)
	}

	group, err := s.groups.GetByID(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.Authorize(ctx, caller, group.ID, domain.RoleAssigner); err != nil {
		auditutil.LogDenied(ctx, s.audit, caller, domain.ActionAddCert, group.ID, err.Error())
		return nil, err
	}

	sum := sha256.Sum256(req.Raw)
	created, err := s.certs.Create(ctx, &domain.DomainCert{
		GroupID:          group.ID,
		Raw:              req.Raw,
		Fingerprint:      hex.EncodeToString(sum[:]),
		RevocationChecks: req.RevocationChecks,
		ExpiresOn:        req.ExpiresOn,
		CreatedBy:        caller.Username,
	})
	if err != nil {
		auditutil.LogError(ctx, s.audit, caller, domain.ActionAddCert, group.ID, err.Error())
		return nil, err
	}
	auditutil.LogAllowed(ctx, s.audit, caller, domain.ActionAddCert, created.ID)
	return created, nil
}

// GetDomainCert returns a certificate by id.
func (s *CertService) GetDomainCert(ctx context.Context, certID string) (*domain.DomainCert, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if certID == "" {
		return nil, domain.ErrValidation("certificate id is required")
	}

	cert, err := s.certs.GetByID(ctx, certID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.Authorize(ctx, caller, cert.GroupID, domain.RoleRequestor); err != nil {
		return nil, err
	}
	return cert, nil
}

// DeleteDomainCert detaches a certificate from its group.
func (s *CertService) DeleteDomainCert(ctx context.Context, certID string) error {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if certID == "" {
		return domain.ErrValidation("certificate id is required")
	}

	cert, err := s.certs.GetByID(ctx, certID)
	if err != nil {
		return err
	}
	if _, err := s.authz.Authorize(ctx, caller, cert.GroupID, domain.RoleAssigner); err != nil {
		auditutil.LogDenied(ctx, s.audit, caller, domain.ActionDeleteCert, cert.ID, err.Error())
		return err
	}

	if err := s.certs.Delete(ctx, cert.ID); err != nil {
		auditutil.LogError(ctx, s.audit, caller, domain.ActionDeleteCert, cert.ID, err.Error())
		return err
	}
	auditutil.LogAllowed(ctx, s.audit, caller, domain.ActionDeleteCert, cert.ID)
	return nil
}
