package embed

import "errors"

var (
	// ErrVectorCountMismatch is returned when the provider returns a
	// different number of vectors than texts were sent.
	ErrVectorCountMismatch = errors.New("embedding provider returned wrong number of vectors")

	// ErrEmptyVector is returned when the provider returns a zero-length vector.
	ErrEmptyVector = errors.New("embedding provider returned an empty vector")

	// ErrInvalidChunkOptions is returned for a non-positive size or an
	// overlap outside [0, size).
	ErrInvalidChunkOptions = errors.New("invalid chunk options")
)
