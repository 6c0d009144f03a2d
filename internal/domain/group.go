package domain

import (
	"strings"
	"time"
)

// Group is a node in an organization's group tree. The root group of an
// organization has a nil parent and shares its ID with the organization.
type Group struct {
	ID          string
	OrgID       string
	ParentID    *string
	Description string
	CreatedAt   time.Time
}

// IsRoot reports whether the group is an organization root.
func (g *Group) IsRoot() bool {
	return g.ParentID == nil
}

// GroupDetail is a group together with its attachments, as returned by reads.
type GroupDetail struct {
	Group
	Children []string
	CertIDs  []string
	Serials  []string
	Roles    []RoleGrant
}

// CreateGroupRequest holds parameters for creating a child group.
type CreateGroupRequest struct {
	ParentID    string
	Description string
}

// Validate checks that the request is well-formed.
func (r *CreateGroupRequest) Validate() error {
	if r.ParentID == "" {
		return ErrValidation("parent group id is required")
	}
	if strings.TrimSpace(r.Description) == "" {
		return ErrValidation("group description is required")
	}
	return nil
}
