package security

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	internaldb "voucherd/internal/db"
	"voucherd/internal/db/repository"
	"voucherd/internal/domain"
)

type testEnv struct {
	groups *repository.GroupRepo
	roles  *repository.UserRoleRepo
	audit  *repository.AuditRepo
	authz  *AuthorizationService
	svc    *RoleService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	groups := repository.NewGroupRepo(writeDB, readDB)
	roles := repository.NewUserRoleRepo(writeDB, readDB)
	audit := repository.NewAuditRepo(writeDB, readDB)
	authz := NewAuthorizationService(groups, roles)
	return &testEnv{
		groups: groups,
		roles:  roles,
		audit:  audit,
		authz:  authz,
		svc:    NewRoleService(groups, roles, authz, audit),
	}
}

func (e *testEnv) mkGroup(t *testing.T, id, orgID string, parentID *string) *domain.Group {
	t.Helper()
	g, err := e.groups.Create(context.Background(), &domain.Group{
		ID: id, OrgID: orgID, ParentID: parentID, Description: "test group " + id,
	})
	require.NoError(t, err)
	return g
}

// seedTree builds the fixture used across the package:
//
//	org-1 (root)
//	├── g-mid
//	│   └── g-leaf
//	└── g-side
func (e *testEnv) seedTree(t *testing.T) {
	t.Helper()
	e.mkGroup(t, "org-1", "org-1", nil)
	e.mkGroup(t, "g-mid", "org-1", strPtr("org-1"))
	e.mkGroup(t, "g-leaf", "org-1", strPtr("g-mid"))
	e.mkGroup(t, "g-side", "org-1", strPtr("org-1"))
}

// seedGrant writes a grant directly through the repository, bypassing the
// assignment rules. Tests use it to install fixtures including SUPPORT.
func (e *testEnv) seedGrant(t *testing.T, username, orgID, groupID string, role domain.Role) {
	t.Helper()
	err := e.roles.AddGrant(context.Background(),
		domain.UserIdentity{Username: username, AccountType: domain.AccountTypeHuman, OrgID: orgID},
		domain.RoleGrant{Username: username, OrgID: orgID, GroupID: groupID, Role: role})
	require.NoError(t, err)
}

func callerCtx(username, orgID string) context.Context {
	return domain.WithCaller(context.Background(), domain.Caller{
		Username: username, AccountType: domain.AccountTypeHuman, OrgID: orgID,
	})
}

func strPtr(s string) *string { return &s }
