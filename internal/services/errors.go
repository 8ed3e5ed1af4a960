package services

import "errors"

var (
	// ErrNoSource is returned when no dataset location is configured
	ErrNoSource = errors.New("no dataset source configured")

	// ErrNotReady is reported by the readiness check while the source cannot be loaded
	ErrNotReady = errors.New("dataset source not ready")
)
