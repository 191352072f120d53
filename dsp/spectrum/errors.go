package spectrum

import "errors"

var (
	// ErrBufferTooLarge is returned when the padded FFT length would exceed
	// MaxFFTSize. Nothing is allocated.
	ErrBufferTooLarge = errors.New("spectrum: buffer too large")

	// ErrEmptyInput is returned for a snapshot without samples.
	ErrEmptyInput = errors.New("spectrum: empty sample buffer")

	// ErrEngineClosed is returned by Submit after Close.
	ErrEngineClosed = errors.New("spectrum: engine closed")

	// ErrInvalidDecay reports a decay factor outside [0, 1).
	ErrInvalidDecay = errors.New("spectrum: invalid decay factor")

	// ErrInvalidSampleRate reports a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("spectrum: invalid sample rate")
)
