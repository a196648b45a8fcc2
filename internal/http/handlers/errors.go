// Package handlers defines the HTTP-layer error codes used across all API
// endpoints. The codes are stable, lowercase, snake_case strings that clients
// branch on programmatically; the accompanying message is for humans.
//
// Generic codes mirror common HTTP status semantics. Domain-specific codes
// cover business failures a status alone cannot convey (e.g. the companion
// being unreachable while the user's message was already saved).
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeUpdateFailed     = "update_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeDeleteFailed     = "delete_failed"
	ErrCodeCompanionFailed  = "companion_unavailable"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
