// Package custody isolates voucher signing key material from the rest of
// the service. The issuance path only ever sees payload bytes going in and
// detached signatures coming out.
package custody

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"voucherd/internal/domain"
	"voucherd/internal/voucher"
)

// DirSigner signs voucher payloads with private keys from a key directory.
// Each domain certificate is paired with a PKCS#8 PEM file named
// <certID>.pem holding an Ed25519 or ECDSA P-256 key. Keys are read per
// signature, so rotation is a file swap with no restart.
//
// Key material is an operational concern: any failure to load or use a key
// surfaces as UnavailableError, never as a caller error.
type DirSigner struct {
	dir string
}

var _ domain.VoucherSigner = (*DirSigner)(nil)

// NewDirSigner creates a signer over the given key directory.
func NewDirSigner(dir string) *DirSigner {
	return &DirSigner{dir: dir}
}

// Sign produces a detached signature over the payload bytes using the key
// paired with certID.
func (s *DirSigner) Sign(_ context.Context, certID string, payload []byte) ([]byte, string, error) {
	if len(payload) == 0 {
		return nil, "", fmt.Errorf("refusing to sign empty payload")
	}

	key, err := s.loadKey(certID)
	if err != nil {
		return nil, "", err
	}

	switch k := key.(type) {
	case ed25519.PrivateKey:
		return ed25519.Sign(k, payload), voucher.AlgEd25519, nil
	case *ecdsa.PrivateKey:
		if k.Curve != elliptic.P256() {
			return nil, "", domain.ErrUnavailable(nil,
				"signing key for certificate %s uses unsupported curve %s", certID, k.Curve.Params().Name)
		}
		digest := sha256.Sum256(payload)
		sig, err := ecdsa.SignASN1(rand.Reader, k, digest[:])
		if err != nil {
			return nil, "", domain.ErrUnavailable(err, "signing with key for certificate %s failed", certID)
		}
		return sig, voucher.AlgECDSAP256, nil
	default:
		return nil, "", domain.ErrUnavailable(nil,
			"signing key for certificate %s is %T, want ed25519 or ecdsa", certID, key)
	}
}

func (s *DirSigner) loadKey(certID string) (interface{}, error) {
	path := filepath.Join(s.dir, certID+".pem")
	raw, err := os.ReadFile(path) //nolint:gosec // cert ids are server-allocated, not caller input
	if err != nil {
		return nil, domain.ErrUnavailable(err, "signing key for certificate %s is not available", certID)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, domain.ErrUnavailable(nil, "signing key %s holds no PEM block", path)
	}
	if block.Type != "PRIVATE KEY" {
		return nil, domain.ErrUnavailable(nil,
			"signing key %s has PEM block type %q, want PKCS#8 PRIVATE KEY", path, block.Type)
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, domain.ErrUnavailable(err, "parse signing key %s", path)
	}
	return key, nil
}
