package portrait

import (
	"context"
	"time"

	"server/internal/domain"
)

// Request is a normalized generation request passed to any portrait provider.
type Request struct {
	Image       []byte
	ContentType string
	Style       domain.Style
}

// Result is the produced portrait plus how long the external call took.
type Result struct {
	Data        []byte
	ContentType string
	Elapsed     time.Duration
}

// Generator is the contract implemented by all portrait providers. Failures
// the caller can act on are reported through the domain sentinels:
// ErrSafetyBlocked for content-policy rejections, ErrNoSubject when the
// capability found nothing to work with, anything else is generic.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
