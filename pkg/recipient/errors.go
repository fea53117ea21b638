package recipient

import "errors"

var (
	// ErrTokenNotFound is returned when no device token matches the lookup.
	ErrTokenNotFound = errors.New("recipient: token not found")

	// ErrAddressTaken is returned when registering an address that already
	// belongs to the tenant.
	ErrAddressTaken = errors.New("recipient: address already registered for tenant")

	// ErrStoreNil is returned when a nil store is provided to a constructor.
	ErrStoreNil = errors.New("recipient: store cannot be nil")
)
