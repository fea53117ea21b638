package dispatch

import "errors"

var (
	// ErrDirectoryNil is returned when a nil directory is provided to
	// NewEngine.
	ErrDirectoryNil = errors.New("dispatch: directory cannot be nil")

	// ErrInvalidChannel is returned when a dispatch names a channel
	// outside the closed channel set.
	ErrInvalidChannel = errors.New("dispatch: invalid channel")

	// ErrNoProvider is returned when no provider client is registered for
	// the requested channel.
	ErrNoProvider = errors.New("dispatch: no provider registered for channel")

	// ErrNoSegments is returned when a segment audience is dispatched but
	// the engine was built without segment support.
	ErrNoSegments = errors.New("dispatch: engine has no segment resolver")

	// ErrInvalidAudience is returned when an audience value is empty or
	// malformed.
	ErrInvalidAudience = errors.New("dispatch: invalid audience")
)
