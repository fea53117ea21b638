package deliverylog

import "errors"

var (
	// ErrStorageNil is returned when a nil storage is provided to a
	// constructor.
	ErrStorageNil = errors.New("deliverylog: storage cannot be nil")
)
