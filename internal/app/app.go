// Package app wires repositories and services into a running application.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"voucherd/internal/config"
	"voucherd/internal/custody"
	"voucherd/internal/db/repository"
	"voucherd/internal/devicereg"
	"voucherd/internal/domain"
	"voucherd/internal/service/governance"
	"voucherd/internal/service/issuer"
	"voucherd/internal/service/registry"
	"voucherd/internal/service/security"
)

// Deps holds the external dependencies that main() must provide: parsed
// config and issuer policy, the split SQLite pools, and the root logger.
type Deps struct {
	Cfg     *config.Config
	Policy  *config.IssuerPolicy
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// Services groups the service pointers the API handler needs.
type Services struct {
	Group   *registry.GroupService
	Cert    *registry.CertService
	Serial  *registry.SerialService
	Role    *security.RoleService
	Voucher *issuer.VoucherService
	Audit   *governance.AuditService
}

// App holds the fully wired application.
type App struct {
	Services Services
	Sweeper  *governance.ExpirySweeper
	Devices  domain.DeviceRegistry
}

// New wires repositories and services from the provided deps and runs the
// organization bootstrap from the issuer policy.
func New(ctx context.Context, deps Deps) (*App, error) {
	groupRepo := repository.NewGroupRepo(deps.WriteDB, deps.ReadDB)
	roleRepo := repository.NewUserRoleRepo(deps.WriteDB, deps.ReadDB)
	certRepo := repository.NewCertRepo(deps.WriteDB, deps.ReadDB)
	serialRepo := repository.NewSerialRepo(deps.WriteDB, deps.ReadDB)
	auditRepo := repository.NewAuditRepo(deps.WriteDB, deps.ReadDB)

	authz := security.NewAuthorizationService(groupRepo, roleRepo)

	if err := seedOrgs(ctx, deps.Policy, groupRepo, roleRepo, auditRepo, deps.Logger); err != nil {
		return nil, fmt.Errorf("bootstrap organizations: %w", err)
	}

	devices, err := newDeviceRegistry(deps.Policy.DeviceRegistry)
	if err != nil {
		return nil, err
	}
	signer := custody.NewDirSigner(deps.Policy.KeyDir)

	sweeper := governance.NewExpirySweeper(
		certRepo, groupRepo, auditRepo,
		deps.Logger.With("component", "expiry-sweep"),
		deps.Cfg.SweepSchedule, deps.Cfg.SweepWindow,
	)

	return &App{
		Services: Services{
			Group:   registry.NewGroupService(groupRepo, roleRepo, certRepo, serialRepo, authz, auditRepo),
			Cert:    registry.NewCertService(groupRepo, certRepo, authz, auditRepo),
			Serial:  registry.NewSerialService(groupRepo, serialRepo, authz, devices, auditRepo),
			Role:    security.NewRoleService(groupRepo, roleRepo, authz, auditRepo),
			Voucher: issuer.NewVoucherService(certRepo, serialRepo, authz, devices, signer, auditRepo, deps.Policy.ServedIENs),
			Audit:   governance.NewAuditService(auditRepo, authz),
		},
		Sweeper: sweeper,
		Devices: devices,
	}, nil
}

// newDeviceRegistry picks the registry backend named by the policy. The
// HTTP token can be overridden with DEVICE_REGISTRY_TOKEN so policy files
// can stay secret-free.
func newDeviceRegistry(p config.DeviceRegistryPolicy) (domain.DeviceRegistry, error) {
	switch p.Mode {
	case config.RegistryModeStatic:
		return devicereg.NewStaticRegistry(p.InventoryFile)
	case config.RegistryModeHTTP:
		token := p.AuthToken
		if env := os.Getenv("DEVICE_REGISTRY_TOKEN"); env != "" {
			token = env
		}
		return devicereg.NewHTTPRegistry(p.Endpoint, token, p.HTTPTimeout()), nil
	default:
		return nil, fmt.Errorf("unknown device registry mode %q", p.Mode)
	}
}
