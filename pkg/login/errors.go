package login

import "errors"

// Common errors returned by the login pool.
var (
	// ErrPoolSaturated is returned when every session slot is in use.
	ErrPoolSaturated = errors.New("all capture sessions in use")

	// ErrPoolClosed is returned when beginning a session on a closed pool.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrNilCapturer is returned when the pool is built without a capturer.
	ErrNilCapturer = errors.New("capturer is required")

	// ErrEmptyCredentials is returned when a capture yields no usable
	// username or token.
	ErrEmptyCredentials = errors.New("capture returned empty credentials")

	// ErrInvalidCookie is returned for a cookie without the expected
	// security-warning prefix.
	ErrInvalidCookie = errors.New("cookie does not look like a session token")
)
