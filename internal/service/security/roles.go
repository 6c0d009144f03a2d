package security

import (
	"context"

	"voucherd/internal/domain"
	"voucherd/internal/service/auditutil"
)

// RoleService maintains the (user, group) role ledger.
type RoleService struct {
	groups domain.GroupRepository
	roles  domain.UserRoleRepository
	authz  *AuthorizationService
	audit  domain.AuditRepository
}

// NewRoleService creates a new RoleService.
func NewRoleService(groups domain.GroupRepository, roles domain.UserRoleRepository, authz *AuthorizationService, audit domain.AuditRepository) *RoleService {
	return &RoleService{groups: groups, roles: roles, authz: authz, audit: audit}
}

// AddUserRole grants a role to a user on a group, registering the user's
// identity on first contact. A user holds at most one role per group;
// re-granting requires remove-then-add.
func (s *RoleService) AddUserRole(ctx context.Context, req domain.AddRoleGrantRequest) (*domain.RoleGrant, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}

	group, err := s.groups.GetByID(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if req.OrgID == "" {
		req.OrgID = group.OrgID
	}
	if req.OrgID != group.OrgID {
		return nil, domain.ErrValidation(
			"organization %s does not match group organization %s", req.OrgID, group.OrgID)
	}

	target := roleTarget(req.Username, group.ID)
	if _, err := s.authz.AuthorizeAssign(ctx, caller, group.ID, role); err != nil {
		auditutil.LogDenied(ctx, s.audit, caller, domain.ActionAddRole, target, err.Error())
		return nil, err
	}

	identity := domain.UserIdentity{
		Username:    req.Username,
		AccountType: req.AccountType,
		OrgID:       req.OrgID,
	}
	grant := domain.RoleGrant{
		Username:  req.Username,
		OrgID:     req.OrgID,
		GroupID:   group.ID,
		Role:      role,
		GrantedBy: &caller.Username,
	}
	if err := s.roles.AddGrant(ctx, identity, grant); err != nil {
		auditutil.LogError(ctx, s.audit, caller, domain.ActionAddRole, target, err.Error())
		return nil, err
	}
	auditutil.LogAllowed(ctx, s.audit, caller, domain.ActionAddRole, target)

	return s.roles.GetGrant(ctx, req.Username, group.ID)
}

// RemoveUserRole revokes a user's role on a group. The caller must be able
// to assign the role being removed, so SUPPORT grants cannot be revoked
// through the ledger.
func (s *RoleService) RemoveUserRole(ctx context.Context, username, groupID string) error {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if username == "" {
		return domain.ErrValidation("username is required")
	}
	if groupID == "" {
		return domain.ErrValidation("group id is required")
	}

	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return err
	}
	existing, err := s.roles.GetGrant(ctx, username, groupID)
	if err != nil {
		return err
	}

	target := roleTarget(username, groupID)
	if _, err := s.authz.AuthorizeAssign(ctx, caller, groupID, existing.Role); err != nil {
		auditutil.LogDenied(ctx, s.audit, caller, domain.ActionRemoveRole, target, err.Error())
		return err
	}

	if err := s.roles.RemoveGrant(ctx, username, groupID); err != nil {
		auditutil.LogError(ctx, s.audit, caller, domain.ActionRemoveRole, target, err.Error())
		return err
	}
	auditutil.LogAllowed(ctx, s.audit, caller, domain.ActionRemoveRole, target)
	return nil
}

// GetUserRoles returns the target user's grants on groups where the caller
// itself holds an effective role. Grants outside the caller's scope are
// omitted; a target with zero visible grants is reported as not found
// rather than confirmed to exist.
func (s *RoleService) GetUserRoles(ctx context.Context, username string) ([]domain.RoleGrant, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if username == "" {
		return nil, domain.ErrValidation("username is required")
	}

	grants, err := s.roles.GrantsForUser(ctx, username)
	if err != nil {
		return nil, err
	}

	visible := make([]domain.RoleGrant, 0, len(grants))
	for _, g := range grants {
		effective, err := s.authz.EffectiveRole(ctx, caller, g.GroupID)
		if err != nil {
			return nil, err
		}
		if effective == domain.RoleNone {
			continue
		}
		visible = append(visible, g)
	}
	if len(visible) == 0 {
		return nil, domain.ErrNotFound("no visible roles for user %q", username)
	}
	return visible, nil
}

func roleTarget(username, groupID string) string {
	return username + "@" + groupID
}
