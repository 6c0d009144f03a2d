package registry

import (
	"context"

	"voucherd/internal/domain"
)

// callerFromContext returns the authenticated caller from the request
// context.
func callerFromContext(ctx context.Context) (domain.Caller, error) {
	c, ok := domain.CallerFromContext(ctx)
	if !ok {
		return domain.Caller{}, domain.ErrPermissionDenied("authentication required")
	}
	return c, nil
}
