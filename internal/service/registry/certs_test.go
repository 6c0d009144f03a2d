package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voucherd/internal/domain"
)

func TestCreateDomainCert(t *testing.T) {
	env := newTestEnv(t)
	env.seedTree(t)
	env.seedGrant(t, "assigner", "org-1", "org-1", domain.RoleAssigner)

	expires := time.Now().Add(90 * 24 * time.Hour).UTC()
	raw := testCertDER(t, expires)
	created, err := env.certSvc.CreateDomainCert(callerCtx("assigner", "org-1"), domain.CreateDomainCertRequest{
		GroupID:          "g-mid",
		Raw:              raw,
		RevocationChecks: true,
		ExpiresOn:        expires,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "g-mid", created.GroupID)
	assert.Equal(t, raw, created.Raw, "DER bytes stored untouched")
	assert.Len(t, created.Fingerprint, 64, "hex SHA-256")
	assert.True(t, created.RevocationChecks)
	assert.WithinDuration(t, expires, created.ExpiresOn, time.Second)
	assert.Equal(t, "assigner", created.CreatedBy)

	entry := env.lastAudit(t, domain.ActionAddCert, domain.AuditAllowed)
	assert.Equal(t, created.ID, entry.Target)
}

func TestCreateDomainCert_RequiresAssigner(t *testing.T) {
	env := newTestEnv(t)
	env.seedTree(t)
	env.seedGrant(t, "reader", "org-1", "org-1", domain.RoleRequestor)

	expires := time.Now().Add(24 * time.Hour)
	_, err := env.certSvc.CreateDomainCert(callerCtx("reader", "org-1"), domain.CreateDomainCertRequest{
		GroupID:   "g-mid",
		Raw:       testCertDER(t, expires),
		ExpiresOn: expires,
	})
	var denied *domain.PermissionDeniedError
	require.ErrorAs(t, err, &denied)

	entry := env.lastAudit(t, domain.ActionAddCert, domain.AuditDenied)
	assert.Equal(t, "g-mid", entry.Target)
}

func TestCreateDomainCert_RejectsBadDER(t *testing.T) {
	env := newTestEnv(t)
	env.seedTree(t)
	env.seedGrant(t, "assigner", "org-1", "org-1", domain.RoleAssigner)

	_, err := env.certSvc.CreateDomainCert(callerCtx("assigner", "org-1"), domain.CreateDomainCertRequest{
		GroupID:   "g-mid",
		Raw:       []byte("not a certificate"),
		ExpiresOn: time.Now().Add(24 * time.Hour),
	})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestCreateDomainCert_RejectsPastExpiry(t *testing.T) {
	env := newTestEnv(t)
	env.seedTree(t)
	env.seedGrant(t, "assigner", "org-1", "org-1", domain.RoleAssigner)

	_, err := env.certSvc.CreateDomainCert(callerCtx("assigner", "org-1"), domain.CreateDomainCertRequest{
		GroupID:   "g-mid",
		Raw:       testCertDER(t, time.Now().Add(24*time.Hour)),
		ExpiresOn: time.Now().Add(-time.Hour),
	})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestCreateDomainCert_DuplicateFingerprint(t *testing.T) {
	env := newTestEnv(t)
	env.seedTree(t)
	env.seedGrant(t, "assigner", "org-1", "org-1", domain.RoleAssigner)
	ctx := callerCtx("assigner", "org-1")

	expires := time.Now().Add(24 * time.Hour)
	raw := testCertDER(t, expires)
	req := domain.CreateDomainCertRequest{GroupID: "g-mid", Raw: raw, ExpiresOn: expires}

	_, err := env.certSvc.CreateDomainCert(ctx, req)
	require.NoError(t, err)

	_, err = env.certSvc.CreateDomainCert(ctx, req)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)

	// Dedup is per group; the same cert can live on a sibling.
	req.GroupID = "g-side"
	_, err = env.certSvc.CreateDomainCert(ctx, req)
	require.NoError(t, err)
}

func TestCreateDomainCert_GroupNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.seedTree(t)
	env.seedGrant(t, "assigner", "org-1", "org-1", domain.RoleAssigner)

	expires := time.Now().Add(24 * time.Hour)
	_, err := env.certSvc.CreateDomainCert(callerCtx("assigner", "org-1"), domain.CreateDomainCertRequest{
		GroupID:   "g-nope",
		Raw:       testCertDER(t, expires),
		ExpiresOn: expires,
	})
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestGetDomainCert(t *testing.T) {
	env := newTestEnv(t)
	env.seedTree(t)
	env.seedGrant(t, "reader", "org-1", "org-1", domain.RoleRequestor)
	cert := env.seedCert(t, "g-leaf", time.Now().Add(24*time.Hour))

	got, err := env.certSvc.GetDomainCert(callerCtx("reader", "org-1"), cert.ID)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, got.ID)
	assert.Equal(t, cert.Fingerprint, got.Fingerprint)

	_, err = env.certSvc.GetDomainCert(callerCtx("nobody", "org-1"), cert.ID)
	var denied *domain.PermissionDeniedError
	require.ErrorAs(t, err, &denied)

	_, err = env.certSvc.GetDomainCert(callerCtx("reader", "org-1"), "cert-nope")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDeleteDomainCert(t *testing.T) {
	env := newTestEnv(t)
	env.seedTree(t)
	env.seedGrant(t, "assigner", "org-1", "org-1", domain.RoleAssigner)
	env.seedGrant(t, "reader", "org-1", "org-1", domain.RoleRequestor)
	cert := env.seedCert(t, "g-mid", time.Now().Add(24*time.Hour))

	err := env.certSvc.DeleteDomainCert(callerCtx("reader", "org-1"), cert.ID)
	var denied *domain.PermissionDeniedError
	require.ErrorAs(t, err, &denied)

	require.NoError(t, env.certSvc.DeleteDomainCert(callerCtx("assigner", "org-1"), cert.ID))

	_, err = env.certs.GetByID(context.Background(), cert.ID)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)

	entry := env.lastAudit(t, domain.ActionDeleteCert, domain.AuditAllowed)
	assert.Equal(t, cert.ID, entry.Target)
}
