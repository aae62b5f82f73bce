// Package common defines shared constants and sentinel errors used across
// client and server layers of marksync. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Transport-level errors: the server is unreachable or timed out.
	// Callers treat these as transient and retry on the next cycle.
	ErrUnavailable = errors.New("server unavailable")

	// Offline login: no cached credentials exist for the user on this device.
	ErrLocalDataNotAvailable = errors.New("no local auth data on this device")

	// Orchestration: a sync cycle is already running; the trigger is a no-op.
	ErrSyncInProgress = errors.New("sync already in progress")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
