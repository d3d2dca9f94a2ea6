package errors

import "net/http"

// Error code constants. Errors carry a stable machine-readable code plus a
// human message; the frontend keys its handling off the code alone.

// Story error codes.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeRegenLimitReached = "REGEN_LIMIT_REACHED"
	CodeGenerationFailed  = "GENERATION_FAILED"
	CodeRateLimited       = "RATE_LIMITED"
)

// Session/feedback error codes.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeConflict        = "CONFLICT"
)

// Generic error codes.
const (
	CodeInternal = "INTERNAL_ERROR"
)

// Convenience constructors using predefined codes.

// ErrStoryNotFound reports an absent draft.
func ErrStoryNotFound() *AppError {
	return NotFound(CodeNotFound, "story not found")
}

// ErrSessionNotFound reports an absent reading session.
func ErrSessionNotFound() *AppError {
	return NotFound(CodeNotFound, "session not found")
}

// ErrRegenLimitReached reports an exhausted regeneration quota. The quota is
// terminal for the source draft; 429 tells the caller not to retry as-is.
func ErrRegenLimitReached() *AppError {
	return New(CodeRegenLimitReached, "max 2 regenerations", http.StatusTooManyRequests)
}

// ErrGenerationFailed wraps a malformed or failed content generation.
func ErrGenerationFailed(err error) *AppError {
	return Wrap(err, CodeGenerationFailed, "story generation failed", http.StatusInternalServerError)
}

// ErrRateLimited reports upstream model backpressure. Surfaced distinctly so
// the caller can apply its own backoff; the server never retries.
func ErrRateLimited(err error) *AppError {
	return Wrap(err, CodeRateLimited, "content model rate limited", http.StatusServiceUnavailable)
}
