package domain

import "time"

// Audit status constants. NOTICE marks operational events written by the
// service itself rather than decisions about a caller's request.
const (
	AuditAllowed = "ALLOWED"
	AuditDenied  = "DENIED"
	AuditError   = "ERROR"
	AuditNotice  = "NOTICE"
)

// Audit action constants. Every state change and every voucher issuance
// writes exactly one entry; denied attempts are recorded with AuditDenied.
const (
	ActionCreateGroup  = "CREATE_GROUP"
	ActionDeleteGroup  = "DELETE_GROUP"
	ActionBindSerial   = "BIND_SERIAL"
	ActionUnbindSerial = "UNBIND_SERIAL"
	ActionAddCert      = "ADD_CERT"
	ActionDeleteCert   = "DELETE_CERT"
	ActionAddRole      = "ADD_ROLE"
	ActionRemoveRole   = "REMOVE_ROLE"
	ActionIssueVoucher = "ISSUE_VOUCHER"
	ActionCertExpiring = "CERT_EXPIRING"
	ActionBootstrapOrg = "BOOTSTRAP_ORG"
)

// AuditEntry represents a single audit log record. Entries are scoped to
// the organization the action happened in; listing never crosses orgs.
type AuditEntry struct {
	ID        string
	OrgID     string
	Caller    string
	Action    string
	Target    string
	Status    string // "ALLOWED", "DENIED", "ERROR"
	Detail    *string
	CreatedAt time.Time
}
