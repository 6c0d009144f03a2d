package domain

import "context"

// DeviceRegistry looks up manufactured devices by serial number.
// Implemented by devicereg.StaticRegistry and devicereg.HTTPRegistry.
//
// Lookup returns NotFoundError when the registry has no record for the
// serial and UnavailableError when the registry cannot be reached.
type DeviceRegistry interface {
	Lookup(ctx context.Context, serial string) (*Device, error)
}

// VoucherSigner signs voucher payloads with private keys held outside the
// service core. Implemented by custody.DirSigner.
//
// Each domain certificate is paired with the private key named by its cert
// id. The issuance path never touches key material; it hands payload bytes
// to the signer and receives a detached signature plus the algorithm
// identifier. Custody failures (missing or unusable key) surface as
// UnavailableError, never as a caller error.
type VoucherSigner interface {
	Sign(ctx context.Context, certID string, payload []byte) (sig []byte, alg string, err error)
}
