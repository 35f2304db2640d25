package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// AttemptRepositoryPG persists portrait attempts through the shared SQL
// executor. All statements carry their inline markers so the runner can trace
// them.
type AttemptRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewAttemptRepositoryPG(sql infra.SQLExecutor) *AttemptRepositoryPG {
	return &AttemptRepositoryPG{sql: sql}
}

func (r *AttemptRepositoryPG) InsertPending(ctx context.Context, ownerID, originalRef string, style domain.Style, ceiling int) (*domain.Attempt, error) {
	attempt := &domain.Attempt{
		OwnerID:     ownerID,
		OriginalRef: originalRef,
		Style:       style,
		Status:      domain.AttemptStatusGenerating,
	}
	err := r.sql.QueryRow(ctx, sqlinline.QInsertAttemptQuotaGuarded,
		ownerID, originalRef, string(style), ceiling,
	).Scan(&attempt.ID, &attempt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The guarded insert produced no row: the ceiling was reached
			// between the pre-check and now.
			return nil, domain.ErrQuotaExceeded
		}
		return nil, fmt.Errorf("insert pending attempt: %w", err)
	}
	attempt.UpdatedAt = attempt.CreatedAt
	return attempt, nil
}

func (r *AttemptRepositoryPG) MarkCompleted(ctx context.Context, id, generatedRef string, durationMs int64) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkAttemptCompleted, id, generatedRef, durationMs)
	if err != nil {
		return fmt.Errorf("mark attempt completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mark attempt completed: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *AttemptRepositoryPG) MarkFailed(ctx context.Context, id, reason string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkAttemptFailed, id, reason)
	if err != nil {
		return fmt.Errorf("mark attempt failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already resolved by a competing writer or the sweeper. The record
		// is terminal either way, nothing left to do.
		return nil
	}
	return nil
}

func (r *AttemptRepositoryPG) GetByID(ctx context.Context, ownerID, id string) (*domain.Attempt, error) {
	attempt, err := r.scanAttempt(r.sql.QueryRow(ctx, sqlinline.QSelectAttempt, ownerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select attempt: %w", err)
	}
	return attempt, nil
}

func (r *AttemptRepositoryPG) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.AttemptSummary, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListAttempts, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	summaries := make([]domain.AttemptSummary, 0, limit)
	for rows.Next() {
		var s domain.AttemptSummary
		if err := rows.Scan(&s.ID, &s.Style, &s.Status, &s.GeneratedRef, &s.DurationMs, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return summaries, nil
}

func (r *AttemptRepositoryPG) CountNonFailed(ctx context.Context, ownerID string) (int, error) {
	var count int
	if err := r.sql.QueryRow(ctx, sqlinline.QCountNonFailedAttempts, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}

func (r *AttemptRepositoryPG) Accept(ctx context.Context, ownerID, id string) (*domain.Attempt, error) {
	attempt, err := r.scanAttempt(r.sql.QueryRow(ctx, sqlinline.QAcceptAttempt, ownerID, id))
	if err == nil {
		return attempt, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("accept attempt: %w", err)
	}

	// The accept statement matched nothing. Look the attempt up to tell a
	// missing record apart from one in the wrong state.
	if _, lookupErr := r.GetByID(ctx, ownerID, id); lookupErr != nil {
		return nil, lookupErr
	}
	return nil, domain.ErrNotAcceptable
}

func (r *AttemptRepositoryPG) FailStale(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QFailStaleAttempts, cutoff, reason)
	if err != nil {
		return 0, fmt.Errorf("fail stale attempts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *AttemptRepositoryPG) scanAttempt(row pgx.Row) (*domain.Attempt, error) {
	var a domain.Attempt
	err := row.Scan(&a.ID, &a.OwnerID, &a.OriginalRef, &a.GeneratedRef, &a.Style,
		&a.Status, &a.ErrorReason, &a.DurationMs, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

var _ domain.AttemptRepository = (*AttemptRepositoryPG)(nil)
