// Package services defines the business logic for gratitude entries,
// profiles, mood analytics, and the companion chat. This file centralizes
// common service-level error values so that they can be consistently
// returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Entry-related errors.
var (
	// ErrEmptyContent is returned when an entry is created or updated with
	// content that is empty after trimming.
	ErrEmptyContent = errors.New("entry content is empty")

	// ErrContentTooLong is returned when entry content exceeds the maximum
	// configured length limit.
	ErrContentTooLong = errors.New("entry content too long")

	// ErrInvalidMoodIntensity is returned when a mood intensity is outside
	// the allowed 1–5 range.
	ErrInvalidMoodIntensity = errors.New("mood intensity must be between 1 and 5")

	// ErrInvalidSticker is returned when a sticker fails validation (unknown
	// mood or caption over the limit).
	ErrInvalidSticker = errors.New("invalid sticker")

	// ErrEntryNotFound indicates that the requested entry does not exist or
	// is not accessible to the current user.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrInvalidDateRange is returned when a list filter has from > to.
	ErrInvalidDateRange = errors.New("invalid date range")
)

// Profile-related errors.
var (
	// ErrProfileNotFound indicates that no profile row exists for the user.
	ErrProfileNotFound = errors.New("profile not found")
)

// Chat-related errors.
var (
	// ErrEmptyMessage is returned when a chat message is empty after
	// trimming. Nothing is persisted and no external call is made.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when a chat message exceeds the maximum
	// configured length limit.
	ErrMessageTooLong = errors.New("message too long")

	// ErrAssistantUnavailable is returned when the external completion
	// service fails (timeout, non-2xx, malformed body). The user message has
	// already been persisted by then; only the reply is missing.
	ErrAssistantUnavailable = errors.New("assistant unavailable")
)
