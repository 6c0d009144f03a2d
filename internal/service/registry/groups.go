// Package registry manages the group tree and the resources attached to
// it: domain certificates and device serial bindings.
package registry

import (
	"context"

	"voucherd/internal/domain"
	"voucherd/internal/service/auditutil"
	"voucherd/internal/service/security"
)

// GroupService owns group creation, deletion and reads over the group tree.
type GroupService struct {
	groups  domain.GroupRepository
	roles   domain.UserRoleRepository
	certs   domain.CertRepository
	serials domain.SerialRepository
	authz   *security.AuthorizationService
	audit   domain.AuditRepository
}

// NewGroupService creates a new GroupService.
func NewGroupService(
	groups domain.GroupRepository,
	roles domain.UserRoleRepository,
	certs domain.CertRepository,
	serials domain.SerialRepository,
	authz *security.AuthorizationService,
	audit domain.AuditRepository,
) *GroupService {
	return &GroupService{
		groups:  groups,
		roles:   roles,
		certs:   certs,
		serials: serials,
		authz:   authz,
		audit:   audit,
	}
}

// CreateGroup inserts a child group under an existing parent. The child
// inherits the parent's organization; its id is server-allocated.
func (s *GroupService) CreateGroup(ctx context.Context, req domain.CreateGroupRequest) (*domain.Group, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	parent, err := s.groups.GetByID(ctx, req.ParentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.Authorize(ctx, caller, parent.ID, domain.RoleAdmin); err != nil {
		auditutil.LogDenied(ctx, s.audit, caller, domain.ActionCreateGroup, parent.ID, err.Error())
		return nil, err
	}

	created, err := s.groups.Create(ctx, &domain.Group{
		OrgID:       parent.OrgID,
		ParentID:    &parent.ID,
		Description: req.Description,
	})
	if err != nil {
		auditutil.LogError(ctx, s.audit, caller, domain.ActionCreateGroup, parent.ID, err.Error())
		return nil, err
	}
	auditutil.LogAllowed(ctx, s.audit, caller, domain.ActionCreateGroup, created.ID)
	return created, nil
}

// DeleteGroup removes an empty non-root group. Authorization is checked
// against the parent, since the group itself is going away. Emptiness
// (no children, certs or serial bindings) is verified inside the delete
// transaction, so a racing add resolves to FailedPrecondition.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID string) error {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if groupID == "" {
		return domain.ErrValidation("group id is required")
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.IsRoot() {
		return domain.ErrValidation("root group %s cannot be deleted", group.ID)
	}
	if _, err := s.authz.Authorize(ctx, caller, *group.ParentID, domain.RoleAdmin); err != nil {
		auditutil.LogDenied(ctx, s.audit, caller, domain.ActionDeleteGroup, group.ID, err.Error())
		return err
	}

	if err := s.groups.DeleteEmpty(ctx, group.ID); err != nil {
		auditutil.LogError(ctx, s.audit, caller, domain.ActionDeleteGroup, group.ID, err.Error())
		return err
	}
	auditutil.LogAllowed(ctx, s.audit, caller, domain.ActionDeleteGroup, group.ID)
	return nil
}

// GetGroup returns the group with its child ids, attached cert ids, bound
// serials and the role grants recorded directly on it. Inherited grants are
// not expanded here; they surface through effective-role checks.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*domain.GroupDetail, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.Authorize(ctx, caller, group.ID, domain.RoleRequestor); err != nil {
		return nil, err
	}

	children, err := s.groups.ChildIDs(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	certs, err := s.certs.ListByGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	certIDs := make([]string, len(certs))
	for i, c := range certs {
		certIDs[i] = c.ID
	}
	serials, err := s.serials.SerialsForGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	grants, err := s.roles.GrantsForGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	return &domain.GroupDetail{
		Group:    *group,
		Children: children,
		CertIDs:  certIDs,
		Serials:  serials,
		Roles:    grants,
	}, nil
}
