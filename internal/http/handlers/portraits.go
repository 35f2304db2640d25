package handlers

import (
	"io"
	"net/http"
	"time"

	"server/internal/domain"
	"server/internal/generation"
)

type attemptDTO struct {
	ID           string    `json:"id"`
	Style        string    `json:"style"`
	Status       string    `json:"status"`
	OriginalURL  string    `json:"original_url,omitempty"`
	GeneratedURL string    `json:"generated_url,omitempty"`
	DurationMs   int64     `json:"duration_ms,omitempty"`
	ErrorReason  string    `json:"error_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type generateResponse struct {
	Attempt        attemptDTO `json:"attempt"`
	RemainingQuota int        `json:"remaining_quota"`
}

func (a *App) attemptDTO(attempt *domain.Attempt) attemptDTO {
	return attemptDTO{
		ID:           attempt.ID,
		Style:        string(attempt.Style),
		Status:       string(attempt.Status),
		OriginalURL:  a.assetURL(attempt.OriginalRef),
		GeneratedURL: a.assetURL(attempt.GeneratedRef),
		DurationMs:   attempt.DurationMs,
		ErrorReason:  attempt.ErrorReason,
		CreatedAt:    attempt.CreatedAt,
	}
}

// PortraitsGenerate accepts a multipart form with a style field and a photo
// file, runs the generation pipeline synchronously and returns the finished
// attempt.
func (a *App) PortraitsGenerate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.Config.MaxUploadBytes+512*1024)
	if err := r.ParseMultipartForm(a.Config.MaxUploadBytes); err != nil {
		a.error(w, r, http.StatusBadRequest, "INVALID_FILE", "could not parse upload")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	style := r.FormValue("style")

	file, header, err := r.FormFile("photo")
	if err != nil {
		a.error(w, r, http.StatusBadRequest, "INVALID_FILE", "photo file is required")
		return
	}
	defer file.Close()

	photo, err := io.ReadAll(file)
	if err != nil {
		a.error(w, r, http.StatusBadRequest, "INVALID_FILE", "could not read photo")
		return
	}

	attempt, err := a.Pipeline.Generate(r.Context(), generation.Input{
		OwnerID:     userID,
		Style:       style,
		Photo:       photo,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		a.domainError(w, r, err)
		return
	}

	remaining := a.remainingQuota(r, userID)
	a.json(w, http.StatusCreated, generateResponse{
		Attempt:        a.attemptDTO(attempt),
		RemainingQuota: remaining,
	})
}

func (a *App) remainingQuota(r *http.Request, userID string) int {
	remaining, err := a.Quota.Remaining(r.Context(), userID)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("could not read remaining quota")
		return 0
	}
	return remaining
}
