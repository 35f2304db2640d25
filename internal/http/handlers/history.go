package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type historyItemDTO struct {
	ID           string    `json:"id"`
	Style        string    `json:"style"`
	Status       string    `json:"status"`
	GeneratedURL string    `json:"generated_url,omitempty"`
	DurationMs   int64     `json:"duration_ms,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type historyResponse struct {
	Attempts       []historyItemDTO `json:"attempts"`
	RemainingQuota int              `json:"remaining_quota"`
}

// PortraitsList returns the caller's attempts, newest first.
func (a *App) PortraitsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.error(w, r, http.StatusBadRequest, "BAD_REQUEST", "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	summaries, err := a.Attempts.ListByOwner(r.Context(), userID, limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list attempts failed")
		a.error(w, r, http.StatusInternalServerError, "INTERNAL", "could not load attempts")
		return
	}

	items := make([]historyItemDTO, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, historyItemDTO{
			ID:           s.ID,
			Style:        string(s.Style),
			Status:       string(s.Status),
			GeneratedURL: a.assetURL(s.GeneratedRef),
			DurationMs:   s.DurationMs,
			CreatedAt:    s.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, historyResponse{
		Attempts:       items,
		RemainingQuota: a.remainingQuota(r, userID),
	})
}

// PortraitsAccept promotes a completed attempt to the caller's profile photo.
// Re-accepting the current profile photo is a no-op success.
func (a *App) PortraitsAccept(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}
	attemptID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(attemptID); err != nil {
		a.error(w, r, http.StatusNotFound, "NOT_FOUND", "attempt id must be a uuid")
		return
	}

	attempt, err := a.Attempts.Accept(r.Context(), userID, attemptID)
	if err != nil {
		a.domainError(w, r, err)
		return
	}

	a.Logger.Info().
		Str("attempt_id", attempt.ID).
		Str("user_id", userID).
		Msg("portrait accepted as profile photo")
	if a.Usage != nil {
		if err := a.Usage.Record(r.Context(), userID, attempt.ID, "portrait_accept", true, 0); err != nil {
			a.Logger.Warn().Err(err).Msg("usage event dropped")
		}
	}
	a.json(w, http.StatusOK, map[string]any{
		"attempt":           a.attemptDTO(attempt),
		"profile_photo_url": a.assetURL(attempt.GeneratedRef),
	})
}

// MePhoto returns the caller's published profile photo.
func (a *App) MePhoto(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}

	ref, err := a.Profiles.ProfilePhotoRef(r.Context(), userID)
	if err != nil {
		a.domainError(w, r, err)
		return
	}
	if ref == "" {
		a.error(w, r, http.StatusNotFound, "NOT_FOUND", "no profile photo published")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"profile_photo_url": a.assetURL(ref),
	})
}
