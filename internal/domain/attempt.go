package domain

import "time"

// AttemptStatus enumerates the lifecycle states of a portrait attempt.
type AttemptStatus string

const (
	AttemptStatusGenerating AttemptStatus = "GENERATING"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
	AttemptStatusFailed     AttemptStatus = "FAILED"
	AttemptStatusAccepted   AttemptStatus = "ACCEPTED"
)

// Terminal reports whether no further status transition is possible.
// COMPLETED is a resting state: it may still be promoted to ACCEPTED.
func (s AttemptStatus) Terminal() bool {
	return s == AttemptStatusFailed || s == AttemptStatusAccepted
}

// Attempt is one durable record of a single generate invocation and its
// eventual outcome. Records are created in GENERATING and updated in place;
// they are never deleted.
type Attempt struct {
	ID           string
	OwnerID      string
	OriginalRef  string
	GeneratedRef string
	Style        Style
	Status       AttemptStatus
	ErrorReason  string
	DurationMs   int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AttemptSummary carries the fields needed to render a history strip.
type AttemptSummary struct {
	ID           string
	Style        Style
	Status       AttemptStatus
	GeneratedRef string
	DurationMs   int64
	CreatedAt    time.Time
}

// Summary projects the attempt into its history representation.
func (a *Attempt) Summary() AttemptSummary {
	return AttemptSummary{
		ID:           a.ID,
		Style:        a.Style,
		Status:       a.Status,
		GeneratedRef: a.GeneratedRef,
		DurationMs:   a.DurationMs,
		CreatedAt:    a.CreatedAt,
	}
}
