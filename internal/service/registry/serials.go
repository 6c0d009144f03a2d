package registry

import (
	"context"
	"errors"

	"voucherd/internal/domain"
	"voucherd/internal/service/auditutil"
	"voucherd/internal/service/security"
)

// SerialService manages serial-to-group bindings. Binding a serial to a
// group is what registers it for authorization purposes; there is no
// separate serial record.
type SerialService struct {
	groups  domain.GroupRepository
	serials domain.SerialRepository
	authz   *security.AuthorizationService
	devices domain.DeviceRegistry
	audit   domain.AuditRepository
}

// NewSerialService creates a new SerialService.
func NewSerialService(
	groups domain.GroupRepository,
	serials domain.SerialRepository,
	authz *security.AuthorizationService,
	devices domain.DeviceRegistry,
	audit domain.AuditRepository,
) *SerialService {
	return &SerialService{
		groups:  groups,
		serials: serials,
		authz:   authz,
		devices: devices,
		audit:   audit,
	}
}

// AddSerial binds a serial number to a group. A serial may be bound to many
// groups; each (serial, group) pair exists at most once.
func (s *SerialService) AddSerial(ctx context.Context, req domain.BindSerialRequest) error {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	group, err := s.groups.GetByID(ctx, req.GroupID)
	if err != nil {
		return err
	}
	if _, err := s.authz.Authorize(ctx, caller, group.ID, domain.RoleAssigner); err != nil {
		auditutil.LogDenied(ctx, s.audit, caller, domain.ActionBindSerial, serialTarget(req.Serial, group.ID), err.Error())
		return err
	}

	binding := &domain.SerialBinding{
		Serial:    req.Serial,
		GroupID:   group.ID,
		CreatedBy: caller.Username,
	}
	if err := s.serials.Bind(ctx, binding); err != nil {
		auditutil.LogError(ctx, s.audit, caller, domain.ActionBindSerial, serialTarget(req.Serial, group.ID), err.Error())
		return err
	}
	auditutil.LogAllowed(ctx, s.audit, caller, domain.ActionBindSerial, serialTarget(req.Serial, group.ID))
	return nil
}

// RemoveSerial removes the binding between a serial and a group. Other
// bindings of the same serial are untouched.
func (s *SerialService) RemoveSerial(ctx context.Context, req domain.BindSerialRequest) error {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	group, err := s.groups.GetByID(ctx, req.GroupID)
	if err != nil {
		return err
	}
	if _, err := s.authz.Authorize(ctx, caller, group.ID, domain.RoleAssigner); err != nil {
		auditutil.LogDenied(ctx, s.audit, caller, domain.ActionUnbindSerial, serialTarget(req.Serial, group.ID), err.Error())
		return err
	}

	if err := s.serials.Unbind(ctx, req.Serial, group.ID); err != nil {
		auditutil.LogError(ctx, s.audit, caller, domain.ActionUnbindSerial, serialTarget(req.Serial, group.ID), err.Error())
		return err
	}
	auditutil.LogAllowed(ctx, s.audit, caller, domain.ActionUnbindSerial, serialTarget(req.Serial, group.ID))
	return nil
}

// GetSerial returns every group a serial is bound to plus the device
// registry record, when one exists. The caller needs REQUESTOR on at least
// one bound group; a serial bound nowhere is reported as not found, the
// same answer an unauthorized caller gets.
func (s *SerialService) GetSerial(ctx context.Context, serial string) (*domain.SerialInfo, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if serial == "" {
		return nil, domain.ErrValidation("serial number is required")
	}

	groupIDs, err := s.serials.GroupIDsForSerial(ctx, serial)
	if err != nil {
		return nil, err
	}
	if len(groupIDs) == 0 {
		return nil, domain.ErrNotFound("serial %q is not registered", serial)
	}

	authorized := false
	for _, groupID := range groupIDs {
		effective, err := s.authz.EffectiveRole(ctx, caller, groupID)
		if err != nil {
			return nil, err
		}
		if effective.AtLeast(domain.RoleRequestor) {
			authorized = true
			break
		}
	}
	if !authorized {
		return nil, domain.ErrPermissionDenied(
			"user %q holds no role on any group serial %q is bound to", caller.Username, serial)
	}

	info := &domain.SerialInfo{Serial: serial, GroupIDs: groupIDs}

	// The registry record is optional: a serial bound before the device
	// registry learns about it simply has no key material yet.
	device, err := s.devices.Lookup(ctx, serial)
	switch {
	case err == nil:
		info.PublicKey = device.PublicKey
		info.MACAddress = device.MACAddress
	case errors.As(err, new(*domain.NotFoundError)):
	default:
		return nil, err
	}
	return info, nil
}

func serialTarget(serial, groupID string) string {
	return serial + "@" + groupID
}
