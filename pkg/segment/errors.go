package segment

import "errors"

var (
	// ErrInvalidCondition is returned when a condition tree cannot be
	// compiled: unknown filter type, unknown operator, or an unparsable
	// date value.
	ErrInvalidCondition = errors.New("segment: invalid condition")

	// ErrSegmentNotFound is returned when a segment cannot be found by id
	// or by tenant-scoped slug.
	ErrSegmentNotFound = errors.New("segment: segment not found")

	// ErrSlugTaken is returned when creating a segment whose slug is
	// already used by another segment of the same tenant.
	ErrSlugTaken = errors.New("segment: slug already taken for tenant")

	// ErrStoreNil is returned when a nil store is provided to a constructor.
	ErrStoreNil = errors.New("segment: store cannot be nil")
)
