package api

import (
	"time"

	"voucherd/internal/domain"
)

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type createGroupRequest struct {
	ParentID    string `json:"parent_id"`
	Description string `json:"description"`
}

type groupResponse struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id"`
	ParentID    *string   `json:"parent_id,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type groupDetailResponse struct {
	ID          string              `json:"id"`
	OrgID       string              `json:"org_id"`
	ParentID    *string             `json:"parent_id,omitempty"`
	Description string              `json:"description"`
	CreatedAt   time.Time           `json:"created_at"`
	Children    []string            `json:"children"`
	CertIDs     []string            `json:"cert_ids"`
	Serials     []string            `json:"serials"`
	Roles       []roleGrantResponse `json:"roles"`
}

// createCertRequest carries the DER bytes base64-encoded, per encoding/json
// []byte handling.
type createCertRequest struct {
	Cert             []byte    `json:"cert"`
	RevocationChecks bool      `json:"revocation_checks"`
	ExpiresOn        time.Time `json:"expires_on"`
}

type certResponse struct {
	ID               string    `json:"id"`
	GroupID          string    `json:"group_id"`
	Cert             []byte    `json:"cert"`
	Fingerprint      string    `json:"fingerprint"`
	RevocationChecks bool      `json:"revocation_checks"`
	ExpiresOn        time.Time `json:"expires_on"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
}

type serialResponse struct {
	Serial     string   `json:"serial"`
	GroupIDs   []string `json:"group_ids"`
	PublicKey  []byte   `json:"public_key,omitempty"`
	MACAddress string   `json:"mac_address,omitempty"`
}

type addRoleRequest struct {
	Role        string `json:"role"`
	AccountType string `json:"account_type,omitempty"`
}

type roleGrantResponse struct {
	Username  string    `json:"username"`
	OrgID     string    `json:"org_id"`
	GroupID   string    `json:"group_id"`
	Role      string    `json:"role"`
	GrantedBy *string   `json:"granted_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type userRolesResponse struct {
	Username string              `json:"username"`
	Roles    []roleGrantResponse `json:"roles"`
}

type issueVoucherRequest struct {
	Serial    string    `json:"serial"`
	CertID    string    `json:"cert_id"`
	ExpiresOn time.Time `json:"expires_on"`
	IEN       string    `json:"ien"`
}

type voucherResponse struct {
	Voucher         []byte `json:"voucher"`
	DevicePublicKey []byte `json:"device_public_key,omitempty"`
}

type auditEntryResponse struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Caller    string    `json:"caller"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Status    string    `json:"status"`
	Detail    *string   `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type auditListResponse struct {
	Data          []auditEntryResponse `json:"data"`
	Total         int64                `json:"total"`
	NextPageToken string               `json:"next_page_token,omitempty"`
}

func groupToAPI(g *domain.Group) groupResponse {
	return groupResponse{
		ID:          g.ID,
		OrgID:       g.OrgID,
		ParentID:    g.ParentID,
		Description: g.Description,
		CreatedAt:   g.CreatedAt,
	}
}

func groupDetailToAPI(d *domain.GroupDetail) groupDetailResponse {
	roles := make([]roleGrantResponse, 0, len(d.Roles))
	for i := range d.Roles {
		roles = append(roles, grantToAPI(&d.Roles[i]))
	}
	return groupDetailResponse{
		ID:          d.ID,
		OrgID:       d.OrgID,
		ParentID:    d.ParentID,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		Children:    emptyIfNil(d.Children),
		CertIDs:     emptyIfNil(d.CertIDs),
		Serials:     emptyIfNil(d.Serials),
		Roles:       roles,
	}
}

func certToAPI(c *domain.DomainCert) certResponse {
	return certResponse{
		ID:               c.ID,
		GroupID:          c.GroupID,
		Cert:             c.Raw,
		Fingerprint:      c.Fingerprint,
		RevocationChecks: c.RevocationChecks,
		ExpiresOn:        c.ExpiresOn,
		CreatedBy:        c.CreatedBy,
		CreatedAt:        c.CreatedAt,
	}
}

func serialInfoToAPI(s *domain.SerialInfo) serialResponse {
	return serialResponse{
		Serial:     s.Serial,
		GroupIDs:   emptyIfNil(s.GroupIDs),
		PublicKey:  s.PublicKey,
		MACAddress: s.MACAddress,
	}
}

func grantToAPI(g *domain.RoleGrant) roleGrantResponse {
	return roleGrantResponse{
		Username:  g.Username,
		OrgID:     g.OrgID,
		GroupID:   g.GroupID,
		Role:      string(g.Role),
		GrantedBy: g.GrantedBy,
		CreatedAt: g.CreatedAt,
	}
}

func auditEntryToAPI(e *domain.AuditEntry) auditEntryResponse {
	return auditEntryResponse{
		ID:        e.ID,
		OrgID:     e.OrgID,
		Caller:    e.Caller,
		Action:    e.Action,
		Target:    e.Target,
		Status:    e.Status,
		Detail:    e.Detail,
		CreatedAt: e.CreatedAt,
	}
}

// emptyIfNil keeps list fields rendering as [] rather than null.
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
