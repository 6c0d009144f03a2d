// Package api provides the HTTP handlers for the voucher service REST API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"voucherd/internal/domain"
)

// GroupService is the group tree surface consumed by the API.
type GroupService interface {
	CreateGroup(ctx context.Context, req domain.CreateGroupRequest) (*domain.Group, error)
	GetGroup(ctx context.Context, groupID string) (*domain.GroupDetail, error)
	DeleteGroup(ctx context.Context, groupID string) error
}

// CertService is the domain certificate surface consumed by the API.
type CertService interface {
	CreateDomainCert(ctx context.Context, req domain.CreateDomainCertRequest) (*domain.DomainCert, error)
	GetDomainCert(ctx context.Context, certID string) (*domain.DomainCert, error)
	DeleteDomainCert(ctx context.Context, certID string) error
}

// SerialService is the serial binding surface consumed by the API.
type SerialService interface {
	AddSerial(ctx context.Context, req domain.BindSerialRequest) error
	RemoveSerial(ctx context.Context, req domain.BindSerialRequest) error
	GetSerial(ctx context.Context, serial string) (*domain.SerialInfo, error)
}

// RoleService is the role ledger surface consumed by the API.
type RoleService interface {
	AddUserRole(ctx context.Context, req domain.AddRoleGrantRequest) (*domain.RoleGrant, error)
	RemoveUserRole(ctx context.Context, username, groupID string) error
	GetUserRoles(ctx context.Context, username string) ([]domain.RoleGrant, error)
}

// VoucherService is the voucher issuance surface consumed by the API.
type VoucherService interface {
	IssueVoucher(ctx context.Context, req domain.IssueVoucherRequest) (*domain.IssuedVoucher, error)
}

// AuditService is the audit trail surface consumed by the API.
type AuditService interface {
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error)
}

// APIHandler serves the versioned REST surface. Authentication happens in
// middleware; handlers only translate HTTP to service calls and back.
type APIHandler struct {
	groups   GroupService
	certs    CertService
	serials  SerialService
	roles    RoleService
	vouchers VoucherService
	audit    AuditService
	logger   *slog.Logger
}

// NewHandler creates a new APIHandler with all required service dependencies.
func NewHandler(
	groups GroupService,
	certs CertService,
	serials SerialService,
	roles RoleService,
	vouchers VoucherService,
	audit AuditService,
	logger *slog.Logger,
) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{
		groups:   groups,
		certs:    certs,
		serials:  serials,
		roles:    roles,
		vouchers: vouchers,
		audit:    audit,
		logger:   logger,
	}
}

// Routes returns the router for the versioned API. The caller mounts it
// under /v1 behind the authentication middleware.
func (h *APIHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/groups", h.handleCreateGroup)
	r.Get("/groups/{groupID}", h.handleGetGroup)
	r.Delete("/groups/{groupID}", h.handleDeleteGroup)

	r.Put("/groups/{groupID}/serials/{serial}", h.handleAddSerial)
	r.Delete("/groups/{groupID}/serials/{serial}", h.handleRemoveSerial)
	r.Get("/serials/{serial}", h.handleGetSerial)

	r.Post("/groups/{groupID}/certs", h.handleCreateCert)
	r.Get("/certs/{certID}", h.handleGetCert)
	r.Delete("/certs/{certID}", h.handleDeleteCert)

	r.Put("/groups/{groupID}/roles/{username}", h.handleAddRole)
	r.Delete("/groups/{groupID}/roles/{username}", h.handleRemoveRole)
	r.Get("/users/{username}/roles", h.handleGetUserRoles)

	r.Post("/vouchers", h.handleIssueVoucher)

	r.Get("/audit", h.handleListAudit)

	return r
}

// writeJSON writes v as a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body into v, returning a validation error
// for malformed bodies.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrValidation("invalid request body: %v", err)
	}
	return nil
}
