package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voucherd/internal/domain"
)

func TestHandleCreateCert(t *testing.T) {
	t.Parallel()

	der := []byte{0x30, 0x82, 0x01, 0x0a}
	expires := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	created := &domain.DomainCert{
		ID:               "cert-1",
		GroupID:          "g-mid",
		Raw:              der,
		Fingerprint:      "ab12",
		RevocationChecks: true,
		ExpiresOn:        expires,
		CreatedBy:        "alice",
		CreatedAt:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	var gotReq domain.CreateDomainCertRequest
	h := newTestRouter(t, testMocks{certs: &mockCertService{
		createFn: func(_ context.Context, req domain.CreateDomainCertRequest) (*domain.DomainCert, error) {
			gotReq = req
			return created, nil
		},
	}})

	rec := doRequest(t, h, http.MethodPost, "/groups/g-mid/certs", createCertRequest{
		Cert:             der,
		RevocationChecks: true,
		ExpiresOn:        expires,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	// Group comes from the URL, bytes survive the base64 round trip.
	assert.Equal(t, "g-mid", gotReq.GroupID)
	assert.Equal(t, der, gotReq.Raw)
	assert.True(t, gotReq.RevocationChecks)
	assert.True(t, gotReq.ExpiresOn.Equal(expires))

	var body certResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cert-1", body.ID)
	assert.Equal(t, der, body.Cert)
	assert.Equal(t, "ab12", body.Fingerprint)
	assert.Equal(t, "alice", body.CreatedBy)
}

func TestHandleCreateCert_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		svcErr     error
		wantStatus int
	}{
		{"duplicate fingerprint", domain.ErrConflict("certificate already attached"), http.StatusConflict},
		{"not assigner", domain.ErrPermissionDenied("requires ASSIGNER"), http.StatusForbidden},
		{"bad der", domain.ErrValidation("certificate is not valid DER"), http.StatusBadRequest},
		{"group missing", domain.ErrNotFound("group not found"), http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newTestRouter(t, testMocks{certs: &mockCertService{
				createFn: func(_ context.Context, _ domain.CreateDomainCertRequest) (*domain.DomainCert, error) {
					return nil, tt.svcErr
				},
			}})

			rec := doRequest(t, h, http.MethodPost, "/groups/g-mid/certs", createCertRequest{
				Cert:      []byte{0x30},
				ExpiresOn: time.Now().Add(time.Hour),
			})
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleGetCert(t *testing.T) {
	t.Parallel()

	var gotID string
	h := newTestRouter(t, testMocks{certs: &mockCertService{
		getFn: func(_ context.Context, certID string) (*domain.DomainCert, error) {
			gotID = certID
			return &domain.DomainCert{ID: certID, GroupID: "g-mid", Raw: []byte{1, 2}}, nil
		},
	}})

	rec := doRequest(t, h, http.MethodGet, "/certs/cert-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cert-1", gotID)

	var body certResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "cert-1", body.ID)
	assert.Equal(t, []byte{1, 2}, body.Cert)
}

func TestHandleDeleteCert(t *testing.T) {
	t.Parallel()

	var gotID string
	h := newTestRouter(t, testMocks{certs: &mockCertService{
		deleteFn: func(_ context.Context, certID string) error {
			gotID = certID
			return nil
		},
	}})

	rec := doRequest(t, h, http.MethodDelete, "/certs/cert-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "cert-1", gotID)
}

func TestHandleDeleteCert_NotFound(t *testing.T) {
	t.Parallel()

	h := newTestRouter(t, testMocks{certs: &mockCertService{
		deleteFn: func(_ context.Context, certID string) error {
			return domain.ErrNotFound("certificate %q not found", certID)
		},
	}})

	rec := doRequest(t, h, http.MethodDelete, "/certs/cert-missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
