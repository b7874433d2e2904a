package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrNotEligible           = errors.New("game is not eligible")
	ErrDuplicateConflict     = errors.New("duplicate conflict")
	ErrUpstreamRateLimited   = errors.New("upstream rate limited")
	ErrUpstreamError         = errors.New("upstream request failed")
	ErrQuotaExhausted        = errors.New("quota exhausted")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
