package domain

import (
	"context"
	"time"
)

// AttemptRepository defines persistence for portrait attempts.
type AttemptRepository interface {
	// InsertPending creates a new attempt in GENERATING, refusing the insert
	// atomically when the owner's non-failed count has reached ceiling.
	InsertPending(ctx context.Context, ownerID, originalRef string, style Style, ceiling int) (*Attempt, error)
	MarkCompleted(ctx context.Context, id, generatedRef string, durationMs int64) error
	MarkFailed(ctx context.Context, id, reason string) error
	GetByID(ctx context.Context, ownerID, id string) (*Attempt, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]AttemptSummary, error)
	CountNonFailed(ctx context.Context, ownerID string) (int, error)
	// Accept promotes the attempt to ACCEPTED, demotes any other accepted
	// attempt of the same owner, and publishes the generated image as the
	// owner's profile photo, all in one atomic statement.
	Accept(ctx context.Context, ownerID, id string) (*Attempt, error)
	// FailStale marks GENERATING attempts older than cutoff as FAILED and
	// returns how many were reconciled.
	FailStale(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}

// ProfileRepository exposes the published profile photo (the write side is
// folded into AttemptRepository.Accept).
type ProfileRepository interface {
	ProfilePhotoRef(ctx context.Context, ownerID string) (string, error)
}
