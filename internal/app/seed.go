package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"voucherd/internal/config"
	"voucherd/internal/domain"
	"voucherd/internal/service/governance"
)

// seedOrgs creates the organization root groups named by the issuer policy
// and grants each bootstrap admin ADMIN on its root. Idempotent: existing
// groups and grants are left alone, so a policy edit can add organizations
// without touching running ones.
func seedOrgs(
	ctx context.Context,
	policy *config.IssuerPolicy,
	groups domain.GroupRepository,
	roles domain.UserRoleRepository,
	audit domain.AuditRepository,
	logger *slog.Logger,
) error {
	for _, org := range policy.Orgs {
		createdGroup, err := ensureRootGroup(ctx, groups, org)
		if err != nil {
			return fmt.Errorf("organization %s: %w", org.ID, err)
		}

		grantedAdmin, err := ensureBootstrapAdmin(ctx, roles, org)
		if err != nil {
			return fmt.Errorf("organization %s admin: %w", org.ID, err)
		}

		if createdGroup || grantedAdmin {
			detail := fmt.Sprintf("root group %s, admin %s", org.ID, org.BootstrapAdmin)
			entry := &domain.AuditEntry{
				OrgID:  org.ID,
				Caller: governance.SystemCaller,
				Action: domain.ActionBootstrapOrg,
				Target: org.ID,
				Status: domain.AuditNotice,
				Detail: &detail,
			}
			if err := audit.Insert(ctx, entry); err != nil {
				logger.Warn("bootstrap audit write failed", "org", org.ID, "error", err)
			}
			logger.Info("organization bootstrapped", "org", org.ID, "admin", org.BootstrapAdmin)
		}
	}
	return nil
}

// ensureRootGroup creates the org root when missing. Roots carry the org id
// as their group id and have no parent.
func ensureRootGroup(ctx context.Context, groups domain.GroupRepository, org config.OrgPolicy) (bool, error) {
	existing, err := groups.GetByID(ctx, org.ID)
	if err == nil {
		if !existing.IsRoot() {
			return false, fmt.Errorf("group %s exists but is not an organization root", org.ID)
		}
		return false, nil
	}
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		return false, err
	}

	if _, err := groups.Create(ctx, &domain.Group{
		ID:          org.ID,
		OrgID:       org.ID,
		Description: org.Description,
	}); err != nil {
		return false, err
	}
	return true, nil
}

// ensureBootstrapAdmin grants ADMIN on the org root when the named user has
// no grant there yet.
func ensureBootstrapAdmin(ctx context.Context, roles domain.UserRoleRepository, org config.OrgPolicy) (bool, error) {
	_, err := roles.GetGrant(ctx, org.BootstrapAdmin, org.ID)
	if err == nil {
		return false, nil
	}
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		return false, err
	}

	identity := domain.UserIdentity{
		Username:    org.BootstrapAdmin,
		AccountType: domain.AccountTypeHuman,
		OrgID:       org.ID,
	}
	grant := domain.RoleGrant{
		Username: org.BootstrapAdmin,
		OrgID:    org.ID,
		GroupID:  org.ID,
		Role:     domain.RoleAdmin,
	}
	if err := roles.AddGrant(ctx, identity, grant); err != nil {
		return false, err
	}
	return true, nil
}
