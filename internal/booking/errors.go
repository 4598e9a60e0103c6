package booking

import "errors"

// Sentinel errors for the booking engine. Callers match them with errors.Is;
// the HTTP layer maps them onto status codes.
var (
	// ErrInvalidRange means a malformed date range (start not before end,
	// or unparseable input).
	ErrInvalidRange = errors.New("invalid date range")

	// ErrConflict means the cabin lost its availability between the caller's
	// check and the commit.
	ErrConflict = errors.New("cabin is no longer available for the requested dates")

	// ErrNotFound means an unknown cabin, reservation or client id.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable means the backing store could not be reached or
	// failed. Availability readers treat it as "not available" (fail closed)
	// but it stays distinguishable from a genuine ErrConflict.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrValidation means bad numeric input, e.g. a non-finite total price.
	ErrValidation = errors.New("validation failed")

	// ErrAuthRequired means a booking was attempted without an authenticated
	// client session.
	ErrAuthRequired = errors.New("authentication required")

	// ErrSuperseded means a filter evaluation was outpaced by a newer one and
	// its result must be discarded.
	ErrSuperseded = errors.New("filter evaluation superseded")
)
