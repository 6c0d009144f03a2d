// Package governance implements the audit trail surface and the domain
// cert expiry sweep.
package governance

import (
	"context"

	"voucherd/internal/domain"
	"voucherd/internal/service/security"
)

// AuditService provides read access to the audit trail.
type AuditService struct {
	repo  domain.AuditRepository
	authz *security.AuthorizationService
}

// NewAuditService creates a new AuditService.
func NewAuditService(repo domain.AuditRepository, authz *security.AuthorizationService) *AuditService {
	return &AuditService{repo: repo, authz: authz}
}

// List returns a filtered, paginated slice of the caller's organization's
// audit trail. The caller must hold ADMIN (or SUPPORT) on the organization
// root group; the org scope is forced from the caller identity, so no
// filter can read across organizations.
func (s *AuditService) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	caller, ok := domain.CallerFromContext(ctx)
	if !ok {
		return nil, 0, domain.ErrPermissionDenied("authentication required")
	}
	// The root group shares its id with the organization.
	if _, err := s.authz.Authorize(ctx, caller, caller.OrgID, domain.RoleAdmin); err != nil {
		return nil, 0, err
	}
	filter.OrgID = &caller.OrgID
	return s.repo.List(ctx, filter)
}
