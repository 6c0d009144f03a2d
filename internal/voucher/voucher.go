// Package voucher defines the signed ownership voucher wire format.
//
// A voucher binds a device serial number to an owner's domain
// certificate. The payload is CBOR-encoded deterministically so the
// same logical voucher always produces identical signed bytes; the
// signature is detached and carried in an envelope together with the
// signing key id and algorithm. The signing key is the private half of
// the pinned domain certificate, so an envelope verifies against the
// public key of the certificate embedded in its own payload.
package voucher

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"
)

const (
	// Version is the envelope format version.
	Version = 1

	// AssertionLogged marks vouchers whose issuance is logged by the
	// issuer rather than proven by device possession. It is the only
	// assertion this service emits.
	AssertionLogged = "logged"

	// AlgEd25519 identifies a detached Ed25519 signature.
	AlgEd25519 = "ed25519"

	// AlgECDSAP256 identifies a detached ECDSA P-256 signature in ASN.1
	// form over the SHA-256 digest of the payload.
	AlgECDSAP256 = "ecdsa-p256"
)

// Errors returned by Decode and Verify.
var (
	ErrUnsupportedVersion   = errors.New("voucher: unsupported envelope version")
	ErrUnsupportedAlgorithm = errors.New("voucher: unsupported signature algorithm")
	ErrInvalidSignature     = errors.New("voucher: invalid signature")
	ErrExpired              = errors.New("voucher: voucher has expired")
)

// Payload is the signed body of an ownership voucher.
type Payload struct {
	// SerialNumber identifies the device the voucher is issued for.
	SerialNumber string `cbor:"1,keyasint"`

	// CreatedOn is a Unix timestamp (seconds) of issuance.
	CreatedOn int64 `cbor:"2,keyasint"`

	// ExpiresOn is a Unix timestamp (seconds) after which the voucher
	// must no longer be honored.
	ExpiresOn int64 `cbor:"3,keyasint"`

	// Assertion states how ownership was established.
	Assertion string `cbor:"4,keyasint"`

	// PinnedDomainCert is the DER encoding of the owner's domain
	// certificate, byte for byte as it was attached to the group.
	PinnedDomainCert []byte `cbor:"5,keyasint"`

	// RevocationChecks tells the device whether to check revocation
	// status for the pinned domain certificate.
	RevocationChecks bool `cbor:"6,keyasint"`

	// IEN is the issuer enterprise number the voucher is scoped to.
	IEN string `cbor:"7,keyasint"`
}

// Envelope wraps an encoded payload with its detached signature.
type Envelope struct {
	Version   int    `cbor:"1,keyasint"`
	SignerID  string `cbor:"2,keyasint"`
	Algorithm string `cbor:"3,keyasint"`
	Payload   []byte `cbor:"4,keyasint"`
	Signature []byte `cbor:"5,keyasint"`
}

// EncodePayload serializes the payload with deterministic encoding.
// These are the exact bytes handed to the signing authority.
func EncodePayload(p *Payload) ([]byte, error) {
	data, err := marshal(p)
	if err != nil {
		return nil, fmt.Errorf("voucher: encoding payload: %w", err)
	}
	return data, nil
}

// DecodePayload parses payload bytes.
func DecodePayload(data []byte) (*Payload, error) {
	var p Payload
	if err := unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("voucher: decoding payload: %w", err)
	}
	return &p, nil
}

// Encode serializes an envelope into its wire format.
func Encode(env *Envelope) ([]byte, error) {
	data, err := marshal(env)
	if err != nil {
		return nil, fmt.Errorf("voucher: encoding envelope: %w", err)
	}
	return data, nil
}

// Decode parses an envelope and checks the format version.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("voucher: decoding envelope: %w", err)
	}
	if env.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	return &env, nil
}

// Verify checks the envelope signature against the given public key,
// decodes the payload and checks expiry. The key is normally extracted
// from the pinned domain certificate carried in the payload.
func Verify(publicKey crypto.PublicKey, data []byte) (*Payload, error) {
	return VerifyAt(publicKey, data, time.Now())
}

// VerifyAt is like Verify but accepts an explicit time for the expiry
// check. This supports deterministic testing.
func VerifyAt(publicKey crypto.PublicKey, data []byte, now time.Time) (*Payload, error) {
	env, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := verifySignature(publicKey, env); err != nil {
		return nil, err
	}
	p, err := DecodePayload(env.Payload)
	if err != nil {
		return nil, err
	}
	if now.Unix() >= p.ExpiresOn {
		return nil, ErrExpired
	}
	return p, nil
}

func verifySignature(publicKey crypto.PublicKey, env *Envelope) error {
	switch env.Algorithm {
	case AlgEd25519:
		key, ok := publicKey.(ed25519.PublicKey)
		if !ok {
			return fmt.Errorf("%w: key is %T, want ed25519", ErrInvalidSignature, publicKey)
		}
		if !ed25519.Verify(key, env.Payload, env.Signature) {
			return ErrInvalidSignature
		}
	case AlgECDSAP256:
		key, ok := publicKey.(*ecdsa.PublicKey)
		if !ok {
			return fmt.Errorf("%w: key is %T, want ecdsa", ErrInvalidSignature, publicKey)
		}
		digest := sha256.Sum256(env.Payload)
		if !ecdsa.VerifyASN1(key, digest[:], env.Signature) {
			return ErrInvalidSignature
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, env.Algorithm)
	}
	return nil
}
