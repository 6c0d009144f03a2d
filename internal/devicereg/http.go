package devicereg

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voucherd/internal/domain"
)

var _ domain.DeviceRegistry = (*HTTPRegistry)(nil)

const defaultLookupTimeout = 5 * time.Second

// HTTPRegistry resolves device records from a remote registry service.
// Lookups hit GET {base}/v1/devices/{serial} and expect a JSON body.
type HTTPRegistry struct {
	baseURL   string
	authToken string
	client    *http.Client
}

// NewHTTPRegistry creates an HTTPRegistry for the given base URL. A zero
// timeout selects the 5 second default.
func NewHTTPRegistry(baseURL, authToken string, timeout time.Duration) *HTTPRegistry {
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &HTTPRegistry{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		client:    &http.Client{Timeout: timeout},
	}
}

type deviceRecord struct {
	Serial     string `json:"serial"`
	PublicKey  string `json:"public_key"`
	MACAddress string `json:"mac_address"`
}

// Lookup fetches the registry record for serial. A 404 from the registry
// maps to NotFoundError; connection failures and 5xx responses map to
// UnavailableError so callers can tell permanent absence from a transient
// outage.
func (r *HTTPRegistry) Lookup(ctx context.Context, serial string) (*domain.Device, error) {
	endpoint := r.baseURL + "/v1/devices/" + url.PathEscape(serial)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.authToken)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, domain.ErrUnavailable(err, "device registry is unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound("device %q is not registered", serial)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, domain.ErrUnavailable(fmt.Errorf("status %d", resp.StatusCode), "device registry returned a server error")
	default:
		return nil, fmt.Errorf("device registry returned unexpected status %d", resp.StatusCode)
	}

	var rec deviceRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode registry response: %w", err)
	}

	key, err := base64.StdEncoding.DecodeString(rec.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("registry record for %q has invalid public key: %w", serial, err)
	}

	return &domain.Device{
		Serial:     serial,
		PublicKey:  key,
		MACAddress: rec.MACAddress,
	}, nil
}
