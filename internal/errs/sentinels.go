// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Protocol violations. These indicate a desynchronized caller, not user input,
// and are raised as panics at the boundary.
var (
	// ErrInvalidSection indicates a section index outside the known set.
	ErrInvalidSection = errors.New("invalid section")

	// ErrIndexOutOfRange indicates an element index outside [0, len).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnsetSlot indicates a pre-sized array was sealed with unpopulated slots.
	ErrUnsetSlot = errors.New("unset array slot")

	// ErrProgressRange indicates a progress value outside [0, 1].
	ErrProgressRange = errors.New("progress out of range")
)

// Sign-in and token service sentinels.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication of an account secret.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates a temporary sign-in lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (account name taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidArgument indicates a malformed request (empty name or secret).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSignInFailed is the cause recorded for any failed token acquisition.
	ErrSignInFailed = errors.New("sign-in failed")
)
