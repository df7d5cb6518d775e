package repository

import "errors"

var (
	// ErrSessionNotFound indicates the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSimulatorUnavailable indicates the simulated exchange stayed
	// unreachable (transport error or non-2xx) through every retry attempt.
	ErrSimulatorUnavailable = errors.New("simulator unavailable")
)
