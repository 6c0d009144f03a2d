package security

import (
	"context"

	"voucherd/internal/domain"
)

// callerFromContext returns the authenticated caller from the request
// context. Requests without an identity are rejected before reaching any
// repository.
func callerFromContext(ctx context.Context) (domain.Caller, error) {
	c, ok := domain.CallerFromContext(ctx)
	if !ok {
		return domain.Caller{}, domain.ErrPermissionDenied("authentication required")
	}
	return c, nil
}
