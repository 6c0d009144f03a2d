package devicereg

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voucherd/internal/domain"
)

func writeInventory(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestStaticRegistry_Lookup(t *testing.T) {
	key := []byte("static-device-public-key")
	inventory := fmt.Sprintf(`devices:
  sn-100:
    public_key: %s
    mac_address: "aa:bb:cc:dd:ee:01"
`, base64.StdEncoding.EncodeToString(key))

	reg, err := NewStaticRegistry(writeInventory(t, inventory))
	require.NoError(t, err)

	dev, err := reg.Lookup(context.Background(), "sn-100")
	require.NoError(t, err)
	assert.Equal(t, "sn-100", dev.Serial)
	assert.Equal(t, key, dev.PublicKey)
	assert.Equal(t, "aa:bb:cc:dd:ee:01", dev.MACAddress)
}

func TestStaticRegistry_UnknownSerial(t *testing.T) {
	reg, err := NewStaticRegistry(writeInventory(t, "devices: {}\n"))
	require.NoError(t, err)

	_, err = reg.Lookup(context.Background(), "sn-missing")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestStaticRegistry_BadPublicKey(t *testing.T) {
	inventory := `devices:
  sn-1:
    public_key: "not base64!!"
    mac_address: "aa:bb:cc:dd:ee:02"
`
	_, err := NewStaticRegistry(writeInventory(t, inventory))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid public key")
}

func TestStaticRegistry_MissingFile(t *testing.T) {
	_, err := NewStaticRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestHTTPRegistry_Lookup(t *testing.T) {
	key := []byte("http-device-public-key")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/devices/sn-200", r.URL.Path)
		assert.Equal(t, "Bearer registry-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(deviceRecord{
			Serial:     "sn-200",
			PublicKey:  base64.StdEncoding.EncodeToString(key),
			MACAddress: "aa:bb:cc:dd:ee:03",
		})
	}))
	defer srv.Close()

	reg := NewHTTPRegistry(srv.URL, "registry-token", 0)
	dev, err := reg.Lookup(context.Background(), "sn-200")
	require.NoError(t, err)
	assert.Equal(t, "sn-200", dev.Serial)
	assert.Equal(t, key, dev.PublicKey)
	assert.Equal(t, "aa:bb:cc:dd:ee:03", dev.MACAddress)
}

func TestHTTPRegistry_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	reg := NewHTTPRegistry(srv.URL, "", time.Second)
	_, err := reg.Lookup(context.Background(), "sn-missing")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestHTTPRegistry_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	reg := NewHTTPRegistry(srv.URL, "", time.Second)
	_, err := reg.Lookup(context.Background(), "sn-1")
	var unavailable *domain.UnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestHTTPRegistry_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	reg := NewHTTPRegistry(srv.URL, "", time.Second)
	_, err := reg.Lookup(context.Background(), "sn-1")
	var unavailable *domain.UnavailableError
	require.ErrorAs(t, err, &unavailable)
}
