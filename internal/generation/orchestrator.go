// Package generation drives a single portrait generation from upload to
// durable outcome: validate, persist the original, reserve quota, call the
// image model, store the result and close the attempt record.
package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/preprocess"
	"server/internal/providers/portrait"
	"server/internal/quota"
	"server/internal/storage"
)

// UsageSink records product-metric events. Failures are logged and swallowed.
type UsageSink interface {
	Record(ctx context.Context, userID, attemptID, eventType string, success bool, latencyMs int64) error
}

// Options wires the orchestrator's collaborators.
type Options struct {
	Repo      domain.AttemptRepository
	Store     storage.ObjectStore
	Generator portrait.Generator
	Ledger    *quota.Ledger
	Usage     UsageSink
	Logger    *infra.Logger

	MaxUploadBytes    int64
	GenerationTimeout time.Duration
}

type Orchestrator struct {
	repo      domain.AttemptRepository
	store     storage.ObjectStore
	generator portrait.Generator
	ledger    *quota.Ledger
	usage     UsageSink
	logger    *infra.Logger

	maxUploadBytes    int64
	generationTimeout time.Duration
	now               func() time.Time
}

func NewOrchestrator(opts Options) *Orchestrator {
	timeout := opts.GenerationTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxBytes := opts.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = preprocess.MaxBytes
	}
	return &Orchestrator{
		repo:              opts.Repo,
		store:             opts.Store,
		generator:         opts.Generator,
		ledger:            opts.Ledger,
		usage:             opts.Usage,
		logger:            opts.Logger,
		maxUploadBytes:    maxBytes,
		generationTimeout: timeout,
		now:               time.Now,
	}
}

// Input is one generate request as the handler received it.
type Input struct {
	OwnerID     string
	Style       string
	Photo       []byte
	ContentType string
}

// Generate runs the pipeline and returns the attempt in its final state.
// Validation failures surface as domain sentinels before anything is
// persisted; upstream failures after the attempt record exists are recorded
// on the attempt and returned.
func (o *Orchestrator) Generate(ctx context.Context, in Input) (*domain.Attempt, error) {
	style, err := domain.ParseStyle(in.Style)
	if err != nil {
		return nil, err
	}
	if err := o.validatePhoto(in); err != nil {
		return nil, err
	}

	// Cheap pre-flight; the insert below re-checks atomically so two
	// concurrent requests cannot both pass.
	if err := o.ledger.Check(ctx, in.OwnerID); err != nil {
		return nil, err
	}

	originalRef, err := o.store.Write(ctx,
		originalKey(in.OwnerID, in.ContentType, o.now()),
		in.Photo, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: store original: %v", domain.ErrGenerationFailed, err)
	}

	attempt, err := o.repo.InsertPending(ctx, in.OwnerID, originalRef, style, o.ledger.Ceiling())
	if err != nil {
		return nil, err
	}

	// The attempt record now exists; from here every outcome must be written
	// back to it, even when the client has gone away.
	detached := context.WithoutCancel(ctx)
	genCtx, cancel := context.WithTimeout(detached, o.generationTimeout)
	defer cancel()

	result, genErr := o.generator.Generate(genCtx, portrait.Request{
		Image:       in.Photo,
		ContentType: in.ContentType,
		Style:       style,
	})
	if genErr != nil {
		return o.fail(detached, attempt, genErr)
	}

	generatedRef, err := o.store.Write(detached,
		generatedKey(in.OwnerID, attempt.ID, result.ContentType),
		result.Data, result.ContentType)
	if err != nil {
		return o.fail(detached, attempt, fmt.Errorf("%w: store generated image: %v", domain.ErrGenerationFailed, err))
	}

	durationMs := result.Elapsed.Milliseconds()
	if err := o.repo.MarkCompleted(detached, attempt.ID, generatedRef, durationMs); err != nil {
		return o.fail(detached, attempt, fmt.Errorf("%w: persist outcome: %v", domain.ErrGenerationFailed, err))
	}

	attempt.Status = domain.AttemptStatusCompleted
	attempt.GeneratedRef = generatedRef
	attempt.DurationMs = durationMs

	o.record(detached, attempt, true, durationMs)
	o.logger.Info().
		Str("attempt_id", attempt.ID).
		Str("style", string(style)).
		Int64("duration_ms", durationMs).
		Msg("portrait generated")
	return attempt, nil
}

func (o *Orchestrator) fail(ctx context.Context, attempt *domain.Attempt, cause error) (*domain.Attempt, error) {
	reason := failureReason(cause)
	if err := o.repo.MarkFailed(ctx, attempt.ID, reason); err != nil {
		o.logger.Error().Err(err).
			Str("attempt_id", attempt.ID).
			Msg("could not persist attempt failure")
	}
	attempt.Status = domain.AttemptStatusFailed
	attempt.ErrorReason = reason

	o.record(ctx, attempt, false, 0)
	o.logger.Warn().Err(cause).
		Str("attempt_id", attempt.ID).
		Msg("portrait generation failed")
	return attempt, cause
}

func (o *Orchestrator) record(ctx context.Context, attempt *domain.Attempt, success bool, latencyMs int64) {
	if o.usage == nil {
		return
	}
	if err := o.usage.Record(ctx, attempt.OwnerID, attempt.ID, "portrait_generate", success, latencyMs); err != nil {
		o.logger.Warn().Err(err).Msg("usage event dropped")
	}
}

func (o *Orchestrator) validatePhoto(in Input) error {
	if len(in.Photo) == 0 {
		return fmt.Errorf("%w: photo is required", domain.ErrInvalidFile)
	}
	if int64(len(in.Photo)) > o.maxUploadBytes {
		return fmt.Errorf("%w: photo exceeds %d bytes", domain.ErrInvalidFile, o.maxUploadBytes)
	}
	if !preprocess.Allowed(in.ContentType) {
		return fmt.Errorf("%w: unsupported content type %q", domain.ErrInvalidFile, in.ContentType)
	}
	// Sniff the payload; the declared type is client-controlled.
	sniffed := http.DetectContentType(in.Photo)
	if !preprocess.Allowed(sniffed) {
		return fmt.Errorf("%w: payload is %s, not an accepted image", domain.ErrInvalidFile, sniffed)
	}
	return nil
}

// failureReason maps an error onto the human-readable reason stored on the
// attempt record.
func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrSafetyBlocked):
		return "image rejected by safety filters"
	case errors.Is(err, domain.ErrNoSubject):
		return "no usable subject found in photo"
	case errors.Is(err, context.DeadlineExceeded):
		return "generation timed out"
	default:
		return "generation failed"
	}
}

func originalKey(ownerID, contentType string, now time.Time) string {
	return path.Join("portraits", ownerID, "original",
		fmt.Sprintf("%d%s", now.UnixNano(), extensionFor(contentType)))
}

func generatedKey(ownerID, attemptID, contentType string) string {
	return path.Join("portraits", ownerID, "generated", attemptID+extensionFor(contentType))
}

func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
