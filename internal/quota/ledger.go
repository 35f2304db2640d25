package quota

import (
	"context"
	"fmt"

	"server/internal/domain"
)

// Counter reports how many attempts currently count against an owner's
// allowance. FAILED attempts are excluded so users are never charged for
// outages on our side.
type Counter interface {
	CountNonFailed(ctx context.Context, ownerID string) (int, error)
}

// Ledger resolves how many generations an owner has left out of a fixed
// lifetime ceiling.
type Ledger struct {
	counter Counter
	ceiling int
}

func NewLedger(counter Counter, ceiling int) *Ledger {
	return &Ledger{counter: counter, ceiling: ceiling}
}

// Ceiling returns the configured lifetime allowance.
func (l *Ledger) Ceiling() int {
	return l.ceiling
}

// Remaining returns how many generations the owner may still start. When the
// count cannot be read the ledger fails closed and reports zero alongside the
// error, so callers never hand out allowance they cannot verify.
func (l *Ledger) Remaining(ctx context.Context, ownerID string) (int, error) {
	used, err := l.counter.CountNonFailed(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("quota: count attempts for %s: %w", ownerID, err)
	}
	remaining := l.ceiling - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Check returns ErrQuotaExceeded when the owner has no allowance left. It is
// a cheap pre-flight only; the insert itself re-checks atomically.
func (l *Ledger) Check(ctx context.Context, ownerID string) error {
	remaining, err := l.Remaining(ctx, ownerID)
	if err != nil {
		return err
	}
	if remaining <= 0 {
		return domain.ErrQuotaExceeded
	}
	return nil
}
