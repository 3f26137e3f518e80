package models

import "errors"

var (
	// ErrConfiguration marks an unrecognised code or an invalid contract field.
	ErrConfiguration = errors.New("configuration error")
	// ErrShapeMismatch is returned when vector inputs cannot be broadcast together.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrNotImplemented is returned for sensitivities a pricer does not provide.
	ErrNotImplemented = errors.New("not implemented")
)
