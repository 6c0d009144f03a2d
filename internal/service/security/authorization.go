package security

import (
	"context"
	"fmt"

	"voucherd/internal/domain"
)

// maxTreeDepth bounds the ancestor walk so a corrupted parent chain can
// never loop the service.
const maxTreeDepth = 64

// AuthorizationService computes effective roles over the group tree and
// gates every privileged operation in the system.
type AuthorizationService struct {
	groups domain.GroupRepository
	roles  domain.UserRoleRepository
}

// NewAuthorizationService creates a new AuthorizationService backed by
// domain repositories.
func NewAuthorizationService(groups domain.GroupRepository, roles domain.UserRoleRepository) *AuthorizationService {
	return &AuthorizationService{groups: groups, roles: roles}
}

// EffectiveRole walks from groupID up to the root and returns the
// highest-ranked role the caller holds anywhere on that path. A grant on an
// ancestor applies to every descendant. Returns RoleNone when the caller
// holds nothing on the path and NotFoundError when groupID does not resolve.
func (s *AuthorizationService) EffectiveRole(ctx context.Context, caller domain.Caller, groupID string) (domain.Role, error) {
	grants, err := s.roles.GrantsForUser(ctx, caller.Username)
	if err != nil {
		return domain.RoleNone, fmt.Errorf("load grants for %s: %w", caller.Username, err)
	}
	byGroup := make(map[string]domain.Role, len(grants))
	for _, g := range grants {
		byGroup[g.GroupID] = g.Role
	}

	effective := domain.RoleNone
	current := groupID
	for depth := 0; ; depth++ {
		if depth >= maxTreeDepth {
			return domain.RoleNone, fmt.Errorf("group tree above %s exceeds depth %d", groupID, maxTreeDepth)
		}
		group, err := s.groups.GetByID(ctx, current)
		if err != nil {
			return domain.RoleNone, err
		}
		if r, ok := byGroup[group.ID]; ok {
			effective = domain.MaxRole(effective, r)
		}
		if group.ParentID == nil {
			return effective, nil
		}
		current = *group.ParentID
	}
}

// Authorize fails with PermissionDeniedError unless the caller's effective
// role on groupID ranks at least min. On success it returns the effective
// role so callers can reuse it.
func (s *AuthorizationService) Authorize(ctx context.Context, caller domain.Caller, groupID string, min domain.Role) (domain.Role, error) {
	effective, err := s.EffectiveRole(ctx, caller, groupID)
	if err != nil {
		return domain.RoleNone, err
	}
	if !effective.AtLeast(min) {
		return domain.RoleNone, domain.ErrPermissionDenied(
			"user %q requires at least %s on group %s", caller.Username, min, groupID)
	}
	return effective, nil
}

// AuthorizeAssign fails with PermissionDeniedError unless the caller's
// effective role on groupID may grant or revoke target. Assignment never
// escalates: the effective role must outrank or equal the target role.
func (s *AuthorizationService) AuthorizeAssign(ctx context.Context, caller domain.Caller, groupID string, target domain.Role) (domain.Role, error) {
	effective, err := s.EffectiveRole(ctx, caller, groupID)
	if err != nil {
		return domain.RoleNone, err
	}
	if !effective.CanAssign(target) {
		return domain.RoleNone, domain.ErrPermissionDenied(
			"user %q cannot assign or revoke %s on group %s", caller.Username, target, groupID)
	}
	return effective, nil
}
