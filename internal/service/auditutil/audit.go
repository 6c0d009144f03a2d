// Package auditutil provides best-effort audit writes shared by the
// services. A failed audit insert never fails the operation it records.
package auditutil

import (
	"context"

	"voucherd/internal/domain"
)

func LogAllowed(ctx context.Context, audit domain.AuditRepository, caller domain.Caller, action, target string) {
	logDecision(ctx, audit, caller, action, target, domain.AuditAllowed, "")
}

func LogDenied(ctx context.Context, audit domain.AuditRepository, caller domain.Caller, action, target, detail string) {
	logDecision(ctx, audit, caller, action, target, domain.AuditDenied, detail)
}

func LogError(ctx context.Context, audit domain.AuditRepository, caller domain.Caller, action, target, detail string) {
	logDecision(ctx, audit, caller, action, target, domain.AuditError, detail)
}

func logDecision(ctx context.Context, audit domain.AuditRepository, caller domain.Caller, action, target, status, detail string) {
	if audit == nil {
		return
	}
	e := &domain.AuditEntry{
		OrgID:  caller.OrgID,
		Caller: caller.Username,
		Action: action,
		Target: target,
		Status: status,
	}
	if detail != "" {
		e.Detail = &detail
	}
	_ = audit.Insert(ctx, e)
}
