// Package devicereg provides device registry backends that resolve the
// manufacturing record (public key, MAC address) for a device serial number.
//
// StaticRegistry serves records from a YAML inventory file and suits
// air-gapped or test deployments. HTTPRegistry queries a remote registry
// service over JSON.
package devicereg

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"voucherd/internal/domain"
)

var _ domain.DeviceRegistry = (*StaticRegistry)(nil)

// StaticRegistry serves device records from an inventory loaded once at
// startup.
type StaticRegistry struct {
	devices map[string]domain.Device
}

type inventoryDoc struct {
	Devices map[string]inventoryDevice `yaml:"devices"`
}

type inventoryDevice struct {
	PublicKey  string `yaml:"public_key"`
	MACAddress string `yaml:"mac_address"`
}

// NewStaticRegistry loads a YAML device inventory from path. Public keys
// are stored base64-encoded in the file.
func NewStaticRegistry(path string) (*StaticRegistry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // intentional: reading operator-specified inventory file
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc inventoryDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	devices := make(map[string]domain.Device, len(doc.Devices))
	for serial, rec := range doc.Devices {
		key, err := base64.StdEncoding.DecodeString(rec.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("%s: device %q has invalid public key: %w", path, serial, err)
		}
		devices[serial] = domain.Device{
			Serial:     serial,
			PublicKey:  key,
			MACAddress: rec.MACAddress,
		}
	}

	return &StaticRegistry{devices: devices}, nil
}

// Lookup returns the inventory record for serial.
func (r *StaticRegistry) Lookup(_ context.Context, serial string) (*domain.Device, error) {
	dev, ok := r.devices[serial]
	if !ok {
		return nil, domain.ErrNotFound("device %q is not registered", serial)
	}
	return &dev, nil
}
