package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Device registry modes selectable in the issuer policy.
const (
	RegistryModeStatic = "static"
	RegistryModeHTTP   = "http"
)

// IssuerPolicy is the operator-maintained description of what this issuer
// serves: which IENs it speaks for, where signing keys live, how devices
// are looked up, and which organizations exist. It changes rarely and is
// versioned alongside deployment manifests, hence a file rather than env.
type IssuerPolicy struct {
	ServedIENs     []string             `yaml:"served_iens"`
	KeyDir         string               `yaml:"key_dir"`
	DeviceRegistry DeviceRegistryPolicy `yaml:"device_registry"`
	Orgs           []OrgPolicy          `yaml:"orgs"`
}

// DeviceRegistryPolicy selects and configures the device registry
// collaborator.
type DeviceRegistryPolicy struct {
	Mode          string `yaml:"mode"`           // "static" or "http"
	InventoryFile string `yaml:"inventory_file"` // static: YAML inventory path
	Endpoint      string `yaml:"endpoint"`       // http: base URL
	AuthToken     string `yaml:"auth_token"`     // http: bearer token (DEVICE_REGISTRY_TOKEN overrides)
	Timeout       string `yaml:"timeout"`        // http: per-request timeout, e.g. "5s"
}

// HTTPTimeout returns the configured per-request timeout. The value is
// validated at load time; zero means "use the client default".
func (p *DeviceRegistryPolicy) HTTPTimeout() time.Duration {
	if p.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// OrgPolicy declares an organization served by this issuer. On startup the
// root group (sharing the org id) and the bootstrap ADMIN grant are created
// if missing.
type OrgPolicy struct {
	ID             string `yaml:"id"`
	Description    string `yaml:"description"`
	BootstrapAdmin string `yaml:"bootstrap_admin"`
}

// LoadIssuerPolicy reads and validates the issuer policy file.
func LoadIssuerPolicy(path string) (*IssuerPolicy, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from config
	if err != nil {
		return nil, fmt.Errorf("read issuer policy %s: %w", path, err)
	}

	var p IssuerPolicy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse issuer policy %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("issuer policy %s: %w", path, err)
	}
	return &p, nil
}

// Validate checks the policy for the mistakes that would otherwise surface
// as confusing runtime failures.
func (p *IssuerPolicy) Validate() error {
	if len(p.ServedIENs) == 0 {
		return fmt.Errorf("served_iens must list at least one IEN")
	}
	for _, ien := range p.ServedIENs {
		if ien == "" {
			return fmt.Errorf("served_iens must not contain empty entries")
		}
	}
	if p.KeyDir == "" {
		return fmt.Errorf("key_dir is required")
	}

	switch p.DeviceRegistry.Mode {
	case RegistryModeStatic:
		if p.DeviceRegistry.InventoryFile == "" {
			return fmt.Errorf("device_registry.inventory_file is required in static mode")
		}
	case RegistryModeHTTP:
		if p.DeviceRegistry.Endpoint == "" {
			return fmt.Errorf("device_registry.endpoint is required in http mode")
		}
	case "":
		return fmt.Errorf("device_registry.mode is required (static or http)")
	default:
		return fmt.Errorf("device_registry.mode %q is not supported (static or http)", p.DeviceRegistry.Mode)
	}
	if p.DeviceRegistry.Timeout != "" {
		if _, err := time.ParseDuration(p.DeviceRegistry.Timeout); err != nil {
			return fmt.Errorf("device_registry.timeout: %w", err)
		}
	}

	if len(p.Orgs) == 0 {
		return fmt.Errorf("orgs must declare at least one organization")
	}
	seen := make(map[string]bool, len(p.Orgs))
	for i, org := range p.Orgs {
		if org.ID == "" {
			return fmt.Errorf("orgs[%d].id is required", i)
		}
		if org.BootstrapAdmin == "" {
			return fmt.Errorf("orgs[%d] (%s): bootstrap_admin is required", i, org.ID)
		}
		if seen[org.ID] {
			return fmt.Errorf("org %s is declared twice", org.ID)
		}
		seen[org.ID] = true
	}
	return nil
}
