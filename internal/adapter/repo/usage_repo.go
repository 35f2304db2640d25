package repo

import (
	"context"

	"server/internal/infra"
	"server/internal/sqlinline"
)

// UsageRecorder appends product-metric events. Recording is best effort; the
// caller logs failures but never fails the request over them.
type UsageRecorder struct {
	sql infra.SQLExecutor
}

func NewUsageRecorder(sql infra.SQLExecutor) *UsageRecorder {
	return &UsageRecorder{sql: sql}
}

func (r *UsageRecorder) Record(ctx context.Context, userID, attemptID, eventType string, success bool, latencyMs int64) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertUsageEvent, userID, attemptID, eventType, success, latencyMs)
	return err
}
