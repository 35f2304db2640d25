package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidStyle     = errors.New("invalid style")
	ErrInvalidFile      = errors.New("invalid file")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrSafetyBlocked    = errors.New("blocked by content policy")
	ErrNoSubject        = errors.New("no usable subject in photo")
	ErrGenerationFailed = errors.New("generation failed")
	ErrNotAcceptable    = errors.New("attempt not in an acceptable status")
)
