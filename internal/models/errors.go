package models

import "errors"

// Sentinel errors shared by the store, the services and the HTTP layer.
// Lower layers wrap them with context, callers match them with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateKey         = errors.New("duplicate key")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountBlocked       = errors.New("account blocked")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNoSession            = errors.New("no session")
	ErrStaleSession         = errors.New("stale session")
	ErrValidation           = errors.New("validation failed")
	ErrSubscriptionInactive = errors.New("subscription inactive")
	ErrLastAdmin            = errors.New("operation would remove the last admin")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrAlreadyApplied       = errors.New("payment already applied")
)
