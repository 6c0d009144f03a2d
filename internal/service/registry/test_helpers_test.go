package registry

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"math/big"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	internaldb "voucherd/internal/db"
	"voucherd/internal/db/repository"
	"voucherd/internal/domain"
	"voucherd/internal/service/security"
)

type testEnv struct {
	groups    *repository.GroupRepo
	roles     *repository.UserRoleRepo
	certs     *repository.CertRepo
	serials   *repository.SerialRepo
	audit     *repository.AuditRepo
	devices   *fakeDevices
	groupSvc  *GroupService
	certSvc   *CertService
	serialSvc *SerialService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	groups := repository.NewGroupRepo(writeDB, readDB)
	roles := repository.NewUserRoleRepo(writeDB, readDB)
	certs := repository.NewCertRepo(writeDB, readDB)
	serials := repository.NewSerialRepo(writeDB, readDB)
	audit := repository.NewAuditRepo(writeDB, readDB)
	authz := security.NewAuthorizationService(groups, roles)
	devices := &fakeDevices{devices: map[string]*domain.Device{}}
	return &testEnv{
		groups:    groups,
		roles:     roles,
		certs:     certs,
		serials:   serials,
		audit:     audit,
		devices:   devices,
		groupSvc:  NewGroupService(groups, roles, certs, serials, authz, audit),
		certSvc:   NewCertService(groups, certs, authz, audit),
		serialSvc: NewSerialService(groups, serials, authz, devices, audit),
	}
}

// fakeDevices is an in-memory DeviceRegistry. An unset serial reports
// NotFound; err, when set, overrides every lookup.
type fakeDevices struct {
	devices map[string]*domain.Device
	err     error
}

func (f *fakeDevices) Lookup(_ context.Context, serial string) (*domain.Device, error) {
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.devices[serial]
	if !ok {
		return nil, domain.ErrNotFound("device %q is not in the registry", serial)
	}
	return d, nil
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

func (e *testEnv) seedGrant(t *testing.T, username, orgID, groupID string, role domain.Role) {
	t.Helper()
	err := e.roles.AddGrant(context.Background(),
		domain.UserIdentity{Username: username, AccountType: domain.AccountTypeHuman, OrgID: orgID},
		domain.RoleGrant{Username: username, OrgID: orgID, GroupID: groupID, Role: role})
	require.NoError(t, err)
}

// seedCert writes a cert directly through the repository, bypassing the
// authorization checks of the service.
func (e *testEnv) seedCert(t *testing.T, groupID string, expiresOn time.Time) *domain.DomainCert {
	t.Helper()
	raw := testCertDER(t, expiresOn)
	sum := sha256.Sum256(raw)
	created, err := e.certs.Create(context.Background(), &domain.DomainCert{
		GroupID:     groupID,
		Raw:         raw,
		Fingerprint: hex.EncodeToString(sum[:]),
		ExpiresOn:   expiresOn,
		CreatedBy:   "seeder",
	})
	require.NoError(t, err)
	return created
}

func (e *testEnv) seedBinding(t *testing.T, serial, groupID string) {
	t.Helper()
	err := e.serials.Bind(context.Background(), &domain.SerialBinding{
		Serial: serial, GroupID: groupID, CreatedBy: "seeder",
	})
	require.NoError(t, err)
}

// testCertDER returns the DER encoding of a fresh self-signed certificate.
// Each call uses a new key, so two calls never share a fingerprint.
func testCertDER(t *testing.T, notAfter time.Time) []byte {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "owner.example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, pub, priv)
	require.NoError(t, err)
	return der
}

func callerCtx(username, orgID string) context.Context {
	return domain.WithCaller(context.Background(), domain.Caller{
		Username: username, AccountType: domain.AccountTypeHuman, OrgID: orgID,
	})
}

func strPtr(s string) *string { return &s }
