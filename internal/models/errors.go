package models

import (
	"errors"
	"fmt"
)

// ErrValidation represents a validation error with field and message.
type ErrValidation struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ErrValidation) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Common errors for models and services.
var (
	// ErrTokenRequired indicates a required tenant token is empty.
	ErrTokenRequired = errors.New("token is required")

	// ErrNoSources indicates a tenant has no playlist sources configured.
	ErrNoSources = errors.New("at least one playlist source is required")

	// ErrTooManySources indicates a tenant exceeds the playlist source limit.
	ErrTooManySources = errors.New("too many playlist sources (maximum 50)")

	// ErrInvalidURL indicates a malformed URL.
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrInvalidTimezone indicates an unknown IANA timezone name.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidCron indicates an unparseable cron expression.
	ErrInvalidCron = errors.New("invalid cron expression")

	// ErrChannelIDRequired indicates a required channel ID field is empty.
	ErrChannelIDRequired = errors.New("channel_id is required")

	// ErrStreamURLRequired indicates a required stream URL field is empty.
	ErrStreamURLRequired = errors.New("stream_url is required")

	// ErrTitleRequired indicates a required title field is empty.
	ErrTitleRequired = errors.New("title is required")

	// ErrStartTimeRequired indicates a required start time field is empty.
	ErrStartTimeRequired = errors.New("start time is required")

	// ErrInvalidTimeRange indicates stop time is not after start time.
	ErrInvalidTimeRange = errors.New("stop time must be after start time")

	// ErrMatchRequired indicates a required override match key is empty.
	ErrMatchRequired = errors.New("match is required")

	// ErrInvalidPattern indicates a logo override regexp does not compile.
	ErrInvalidPattern = errors.New("invalid match pattern")

	// ErrTargetURLRequired indicates a required override target URL is empty.
	ErrTargetURLRequired = errors.New("target_url is required")

	// ErrTenantNotFound indicates a tenant token or ID did not resolve.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrOverrideNotFound indicates a logo override was not found.
	ErrOverrideNotFound = errors.New("logo override not found")

	// ErrAlreadyRunning indicates a parse cycle is already in flight for the tenant.
	ErrAlreadyRunning = errors.New("parse cycle already running")

	// ErrAllSourcesFailed indicates every configured source failed during a cycle.
	ErrAllSourcesFailed = errors.New("all playlist sources failed")

	// ErrInvalidImageKind indicates an unknown image kind was requested.
	ErrInvalidImageKind = errors.New("invalid image kind")
)
