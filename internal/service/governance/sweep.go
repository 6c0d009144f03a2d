package governance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"voucherd/internal/domain"
)

// SystemCaller is the identity recorded on audit entries the service
// writes on its own behalf.
const SystemCaller = "system"

// ExpirySweeper periodically reports domain certs whose voucher expiry
// bound falls inside the warning window, so operators rotate pinned certs
// before issuance starts failing. Each sweep re-reports certs still inside
// the window; the repeats are deliberate reminders.
type ExpirySweeper struct {
	cron     *cron.Cron
	certs    domain.CertRepository
	groups   domain.GroupRepository
	audit    domain.AuditRepository
	logger   *slog.Logger
	schedule string
	window   time.Duration
}

// NewExpirySweeper creates a sweeper with a cron schedule (for example
// "0 6 * * *") and a warning window.
func NewExpirySweeper(
	certs domain.CertRepository,
	groups domain.GroupRepository,
	audit domain.AuditRepository,
	logger *slog.Logger,
	schedule string,
	window time.Duration,
) *ExpirySweeper {
	return &ExpirySweeper{
		cron:     cron.New(),
		certs:    certs,
		groups:   groups,
		audit:    audit,
		logger:   logger,
		schedule: schedule,
		window:   window,
	}
}

// Start registers the sweep with the cron scheduler and starts it.
func (s *ExpirySweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Warn("cert expiry sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("cert expiry sweeper started", "schedule", s.schedule, "window", s.window.String())
	return nil
}

// Stop stops the cron scheduler. A sweep already running finishes.
func (s *ExpirySweeper) Stop() {
	s.cron.Stop()
	s.logger.Info("cert expiry sweeper stopped")
}

// RunOnce performs a single sweep and returns the number of certs
// reported. Exposed so startup and tests can sweep without the scheduler.
func (s *ExpirySweeper) RunOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(s.window)
	expiring, err := s.certs.ListExpiringBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list expiring certs: %w", err)
	}

	for _, cert := range expiring {
		orgID := ""
		if group, err := s.groups.GetByID(ctx, cert.GroupID); err == nil {
			orgID = group.OrgID
		}
		expiresOn := cert.ExpiresOn.UTC().Format(time.RFC3339)

		s.logger.Warn("domain cert voucher bound expiring",
			"cert_id", cert.ID,
			"group_id", cert.GroupID,
			"expires_on", expiresOn,
		)

		detail := "voucher bound expires " + expiresOn
		_ = s.audit.Insert(ctx, &domain.AuditEntry{
			OrgID:  orgID,
			Caller: SystemCaller,
			Action: domain.ActionCertExpiring,
			Target: cert.ID,
			Status: domain.AuditNotice,
			Detail: &detail,
		})
	}
	return len(expiring), nil
}
