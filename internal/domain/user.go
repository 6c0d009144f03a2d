package domain

import "time"

// Account type constants. Service accounts authenticate with minted tokens,
// human accounts through the identity provider.
const (
	AccountTypeHuman   = "human"
	AccountTypeService = "service"
)

// UserIdentity is the stored identity of a user known to the role ledger.
// Usernames are unique across organizations; the first grant for a username
// fixes its account type and organization.
type UserIdentity struct {
	Username    string
	AccountType string
	OrgID       string
	CreatedAt   time.Time
}

// RoleGrant attaches a role to a user on a single group. A user holds at
// most one direct role per group; inherited authority comes from grants on
// ancestor groups.
type RoleGrant struct {
	Username  string
	OrgID     string
	GroupID   string
	Role      Role
	GrantedBy *string
	CreatedAt time.Time
}

// AddRoleGrantRequest holds parameters for granting a role on a group.
type AddRoleGrantRequest struct {
	Username    string
	AccountType string
	OrgID       string
	GroupID     string
	Role        string
}

// Validate checks that the request is well-formed. SUPPORT is rejected here:
// it is never assignable through the ledger.
func (r *AddRoleGrantRequest) Validate() error {
	if r.Username == "" {
		return ErrValidation("username is required")
	}
	if r.GroupID == "" {
		return ErrValidation("group id is required")
	}
	if r.AccountType == "" {
		r.AccountType = AccountTypeHuman
	}
	if r.AccountType != AccountTypeHuman && r.AccountType != AccountTypeService {
		return ErrValidation("account type must be %q or %q", AccountTypeHuman, AccountTypeService)
	}
	role, err := ParseRole(r.Role)
	if err != nil {
		return err
	}
	if role == RoleSupport {
		return ErrValidation("role SUPPORT cannot be granted through the role ledger")
	}
	return nil
}
