package fx

import "errors"

var (
	// ErrInvalidParameter reports a parameter outside its documented range.
	// The filter keeps its previous valid parameters.
	ErrInvalidParameter = errors.New("fx: invalid parameter")

	// ErrInvalidBuffer reports a buffer whose layout cannot be processed.
	ErrInvalidBuffer = errors.New("fx: invalid buffer")

	// ErrRequiresHistory is returned when a filter that depends on continuity
	// across buffers is applied to an isolated snippet.
	ErrRequiresHistory = errors.New("fx: filter requires sample history")

	// ErrUnknownFilter reports a registry lookup miss.
	ErrUnknownFilter = errors.New("fx: unknown filter")

	errDuplicateFilter = errors.New("fx: duplicate filter name")
)
