package domain

import (
	"strings"
	"time"
)

// SerialBinding attaches a device serial number to a group. A serial may be
// bound to many groups; each binding is independent.
type SerialBinding struct {
	Serial    string
	GroupID   string
	CreatedBy string
	CreatedAt time.Time
}

// SerialInfo is the read view of a serial number across all its bindings.
// PublicKey and MACAddress come from the device registry and are empty when
// the registry has no record for the serial.
type SerialInfo struct {
	Serial     string
	GroupIDs   []string
	PublicKey  []byte
	MACAddress string
}

// BindSerialRequest holds parameters for binding a serial to a group.
type BindSerialRequest struct {
	GroupID string
	Serial  string
}

// Validate checks that the request is well-formed. Serials are opaque
// case-sensitive identifiers; surrounding whitespace is rejected rather
// than trimmed.
func (r *BindSerialRequest) Validate() error {
	if r.GroupID == "" {
		return ErrValidation("group id is required")
	}
	if r.Serial == "" {
		return ErrValidation("serial number is required")
	}
	if strings.TrimSpace(r.Serial) != r.Serial {
		return ErrValidation("serial number must not have surrounding whitespace")
	}
	return nil
}
