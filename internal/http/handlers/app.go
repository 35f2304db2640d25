package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"server/internal/domain"
	"server/internal/generation"
	"server/internal/infra"
	"server/internal/middleware"
)

// PortraitPipeline runs one generate request end to end.
type PortraitPipeline interface {
	Generate(ctx context.Context, in generation.Input) (*domain.Attempt, error)
}

// QuotaReader reports the caller's remaining allowance.
type QuotaReader interface {
	Remaining(ctx context.Context, ownerID string) (int, error)
	Ceiling() int
}

type App struct {
	Config   *infra.Config
	Logger   *infra.Logger
	Attempts domain.AttemptRepository
	Profiles domain.ProfileRepository
	Pipeline PortraitPipeline
	Quota    QuotaReader
	Usage    generation.UsageSink
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Ceiling int    `json:"ceiling,omitempty"`
}

func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code, detail string) {
	body := errorBody{
		Code:    code,
		Message: localizedMessage(code, middleware.LocaleFromContext(r.Context())),
		Detail:  detail,
	}
	if code == "RATE_LIMITED" && a.Quota != nil {
		body.Ceiling = a.Quota.Ceiling()
	}
	a.json(w, status, map[string]any{"error": body})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// domainError translates a sentinel into its wire representation.
func (a *App) domainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "")
	case errors.Is(err, domain.ErrInvalidStyle):
		a.error(w, r, http.StatusBadRequest, "INVALID_STYLE", detailOf(err))
	case errors.Is(err, domain.ErrInvalidFile):
		a.error(w, r, http.StatusBadRequest, "INVALID_FILE", detailOf(err))
	case errors.Is(err, domain.ErrQuotaExceeded):
		a.error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "")
	case errors.Is(err, domain.ErrSafetyBlocked):
		a.error(w, r, http.StatusUnprocessableEntity, "AI_SAFETY_BLOCKED", "")
	case errors.Is(err, domain.ErrNoSubject):
		a.error(w, r, http.StatusUnprocessableEntity, "AI_NO_IMAGE", "")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, r, http.StatusNotFound, "NOT_FOUND", "")
	case errors.Is(err, domain.ErrNotAcceptable):
		a.error(w, r, http.StatusConflict, "NOT_ACCEPTABLE", "")
	default:
		a.error(w, r, http.StatusBadGateway, "GENERATION_FAILED", "")
	}
}

// detailOf strips the sentinel prefix so the wire detail reads naturally.
func detailOf(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}

var messages = map[string]map[string]string{
	"en": {
		"UNAUTHORIZED":      "Please sign in to continue.",
		"INVALID_STYLE":     "That portrait style is not available.",
		"INVALID_FILE":      "Please upload a JPEG, PNG or WebP photo up to 4 MB.",
		"RATE_LIMITED":      "You have used all your portrait generations.",
		"AI_SAFETY_BLOCKED": "This photo could not be processed. Please try a different one.",
		"AI_NO_IMAGE":       "We could not find a clear subject in this photo. Please try another.",
		"GENERATION_FAILED": "Something went wrong while generating your portrait. This attempt does not count against your allowance.",
		"NOT_FOUND":         "Portrait not found.",
		"NOT_ACCEPTABLE":    "This portrait cannot be used as a profile photo.",
		"BAD_REQUEST":       "The request could not be understood.",
		"INTERNAL":          "Something went wrong. Please try again.",
	},
	"id": {
		"UNAUTHORIZED":      "Silakan masuk untuk melanjutkan.",
		"INVALID_STYLE":     "Gaya potret tersebut tidak tersedia.",
		"INVALID_FILE":      "Unggah foto JPEG, PNG, atau WebP maksimal 4 MB.",
		"RATE_LIMITED":      "Anda telah menggunakan semua kuota pembuatan potret.",
		"AI_SAFETY_BLOCKED": "Foto ini tidak dapat diproses. Coba foto lain.",
		"AI_NO_IMAGE":       "Kami tidak menemukan subjek yang jelas di foto ini. Coba foto lain.",
		"GENERATION_FAILED": "Terjadi kesalahan saat membuat potret Anda. Percobaan ini tidak mengurangi kuota Anda.",
		"NOT_FOUND":         "Potret tidak ditemukan.",
		"NOT_ACCEPTABLE":    "Potret ini tidak dapat dipakai sebagai foto profil.",
		"BAD_REQUEST":       "Permintaan tidak dapat dipahami.",
		"INTERNAL":          "Terjadi kesalahan. Silakan coba lagi.",
	},
}

func localizedMessage(code, locale string) string {
	if byCode, ok := messages[locale]; ok {
		if msg, ok := byCode[code]; ok {
			return msg
		}
	}
	if msg, ok := messages["en"][code]; ok {
		return msg
	}
	return code
}

// assetURL maps a storage key onto a client-reachable URL.
func (a *App) assetURL(ref string) string {
	if ref == "" {
		return ""
	}
	base := strings.TrimRight(a.Config.StorageBaseURL, "/")
	return base + "/" + strings.TrimLeft(ref, "/")
}
