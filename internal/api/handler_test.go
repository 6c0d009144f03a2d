package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"voucherd/internal/domain"
)

// === Mocks ===

type mockGroupService struct {
	createFn func(ctx context.Context, req domain.CreateGroupRequest) (*domain.Group, error)
	getFn    func(ctx context.Context, groupID string) (*domain.GroupDetail, error)
	deleteFn func(ctx context.Context, groupID string) error
}

func (m *mockGroupService) CreateGroup(ctx context.Context, req domain.CreateGroupRequest) (*domain.Group, error) {
	if m.createFn == nil {
		panic("mockGroupService.CreateGroup called but not configured")
	}
	return m.createFn(ctx, req)
}

func (m *mockGroupService) GetGroup(ctx context.Context, groupID string) (*domain.GroupDetail, error) {
	if m.getFn == nil {
		panic("mockGroupService.GetGroup called but not configured")
	}
	return m.getFn(ctx, groupID)
}

func (m *mockGroupService) DeleteGroup(ctx context.Context, groupID string) error {
	if m.deleteFn == nil {
		panic("mockGroupService.DeleteGroup called but not configured")
	}
	return m.deleteFn(ctx, groupID)
}

type mockCertService struct {
	createFn func(ctx context.Context, req domain.CreateDomainCertRequest) (*domain.DomainCert, error)
	getFn    func(ctx context.Context, certID string) (*domain.DomainCert, error)
	deleteFn func(ctx context.Context, certID string) error
}

func (m *mockCertService) CreateDomainCert(ctx context.Context, req domain.CreateDomainCertRequest) (*domain.DomainCert, error) {
	if m.createFn == nil {
		panic("mockCertService.CreateDomainCert called but not configured")
	}
	return m.createFn(ctx, req)
}

func (m *mockCertService) GetDomainCert(ctx context.Context, certID string) (*domain.DomainCert, error) {
	if m.getFn == nil {
		panic("mockCertService.GetDomainCert called but not configured")
	}
	return m.getFn(ctx, certID)
}

func (m *mockCertService) DeleteDomainCert(ctx context.Context, certID string) error {
	if m.deleteFn == nil {
		panic("mockCertService.DeleteDomainCert called but not configured")
	}
	return m.deleteFn(ctx, certID)
}

type mockSerialService struct {
	addFn    func(ctx context.Context, req domain.BindSerialRequest) error
	removeFn func(ctx context.Context, req domain.BindSerialRequest) error
	getFn    func(ctx context.Context, serial string) (*domain.SerialInfo, error)
}

func (m *mockSerialService) AddSerial(ctx context.Context, req domain.BindSerialRequest) error {
	if m.addFn == nil {
		panic("mockSerialService.AddSerial called but not configured")
	}
	return m.addFn(ctx, req)
}

func (m *mockSerialService) RemoveSerial(ctx context.Context, req domain.BindSerialRequest) error {
	if m.removeFn == nil {
		panic("mockSerialService.RemoveSerial called but not configured")
	}
	return m.removeFn(ctx, req)
}

func (m *mockSerialService) GetSerial(ctx context.Context, serial string) (*domain.SerialInfo, error) {
	if m.getFn == nil {
		panic("mockSerialService.GetSerial called but not configured")
	}
	return m.getFn(ctx, serial)
}

type mockRoleService struct {
	addFn    func(ctx context.Context, req domain.AddRoleGrantRequest) (*domain.RoleGrant, error)
	removeFn func(ctx context.Context, username, groupID string) error
	getFn    func(ctx context.Context, username string) ([]domain.RoleGrant, error)
}

func (m *mockRoleService) AddUserRole(ctx context.Context, req domain.AddRoleGrantRequest) (*domain.RoleGrant, error) {
	if m.addFn == nil {
		panic("mockRoleService.AddUserRole called but not configured")
	}
	return m.addFn(ctx, req)
}

func (m *mockRoleService) RemoveUserRole(ctx context.Context, username, groupID string) error {
	if m.removeFn == nil {
		panic("mockRoleService.RemoveUserRole called but not configured")
	}
	return m.removeFn(ctx, username, groupID)
}

func (m *mockRoleService) GetUserRoles(ctx context.Context, username string) ([]domain.RoleGrant, error) {
	if m.getFn == nil {
		panic("mockRoleService.GetUserRoles called but not configured")
	}
	return m.getFn(ctx, username)
}

type mockVoucherService struct {
	issueFn func(ctx context.Context, req domain.IssueVoucherRequest) (*domain.IssuedVoucher, error)
}

func (m *mockVoucherService) IssueVoucher(ctx context.Context, req domain.IssueVoucherRequest) (*domain.IssuedVoucher, error) {
	if m.issueFn == nil {
		panic("mockVoucherService.IssueVoucher called but not configured")
	}
	return m.issueFn(ctx, req)
}

type mockAuditService struct {
	listFn func(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error)
}

func (m *mockAuditService) List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	if m.listFn == nil {
		panic("mockAuditService.List called but not configured")
	}
	return m.listFn(ctx, filter)
}

// === Harness ===

type testMocks struct {
	groups   *mockGroupService
	certs    *mockCertService
	serials  *mockSerialService
	roles    *mockRoleService
	vouchers *mockVoucherService
	audit    *mockAuditService
}

// newTestRouter builds the API router over the given mocks. Unset mocks are
// replaced with empty ones that panic on use, so a test touching an
// unexpected service fails loudly.
func newTestRouter(t *testing.T, m testMocks) http.Handler {
	t.Helper()
	if m.groups == nil {
		m.groups = &mockGroupService{}
	}
	if m.certs == nil {
		m.certs = &mockCertService{}
	}
	if m.serials == nil {
		m.serials = &mockSerialService{}
	}
	if m.roles == nil {
		m.roles = &mockRoleService{}
	}
	if m.vouchers == nil {
		m.vouchers = &mockVoucherService{}
	}
	if m.audit == nil {
		m.audit = &mockAuditService{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(m.groups, m.certs, m.serials, m.roles, m.vouchers, m.audit, logger).Routes()
}

// doRequest serves one request against the router, JSON-encoding body when
// it is non-nil.
func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body
}
