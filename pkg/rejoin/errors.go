package rejoin

import "errors"

// Common errors returned by the rejoin manager.
var (
	// ErrNoPlaceID is returned for a config without a place id.
	ErrNoPlaceID = errors.New("rejoin config requires a place id")

	// ErrAlreadyMonitored is returned when starting an account twice.
	ErrAlreadyMonitored = errors.New("account already monitored")

	// ErrNotMonitored is returned when stopping an unmonitored account.
	ErrNotMonitored = errors.New("account not monitored")

	// ErrManagerClosed is returned when using a closed manager.
	ErrManagerClosed = errors.New("manager is closed")

	// ErrRetriesExhausted marks a monitor that hit its relaunch ceiling.
	ErrRetriesExhausted = errors.New("relaunch retries exhausted")
)
