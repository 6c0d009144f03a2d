package domain

import (
	"context"
	"time"
)

// GroupRepository provides CRUD operations for the group tree.
type GroupRepository interface {
	Create(ctx context.Context, g *Group) (*Group, error)
	GetByID(ctx context.Context, id string) (*Group, error)
	ChildIDs(ctx context.Context, id string) ([]string, error)
	// DeleteEmpty removes a group only if it has no children, no certs and
	// no serial bindings, checked atomically with the delete.
	DeleteEmpty(ctx context.Context, id string) error
}

// UserRoleRepository provides operations for user identities and role grants.
type UserRoleRepository interface {
	// AddGrant records the grant, creating the user identity on first
	// contact. An existing identity with a different account type or
	// organization fails the whole operation.
	AddGrant(ctx context.Context, identity UserIdentity, grant RoleGrant) error
	RemoveGrant(ctx context.Context, username, groupID string) error
	GetGrant(ctx context.Context, username, groupID string) (*RoleGrant, error)
	GrantsForUser(ctx context.Context, username string) ([]RoleGrant, error)
	GrantsForGroup(ctx context.Context, groupID string) ([]RoleGrant, error)
	GetUser(ctx context.Context, username string) (*UserIdentity, error)
}

// CertRepository provides CRUD operations for domain certificates.
type CertRepository interface {
	Create(ctx context.Context, c *DomainCert) (*DomainCert, error)
	GetByID(ctx context.Context, id string) (*DomainCert, error)
	ListByGroup(ctx context.Context, groupID string) ([]DomainCert, error)
	Delete(ctx context.Context, id string) error
	ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]DomainCert, error)
}

// SerialRepository provides operations for serial-to-group bindings.
type SerialRepository interface {
	Bind(ctx context.Context, b *SerialBinding) error
	Unbind(ctx context.Context, serial, groupID string) error
	GroupIDsForSerial(ctx context.Context, serial string) ([]string, error)
	SerialsForGroup(ctx context.Context, groupID string) ([]string, error)
}

// AuditFilter holds filter parameters for querying audit logs.
type AuditFilter struct {
	OrgID  *string
	Caller *string
	Action *string
	Status *string
	Since  *time.Time
	Page   PageRequest
}

// AuditRepository provides operations for audit log entries.
type AuditRepository interface {
	Insert(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]AuditEntry, int64, error)
}
