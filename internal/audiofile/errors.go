package audiofile

import "errors"

var (
	// ErrUnknownFormat is returned when no decoder is registered for an extension.
	ErrUnknownFormat = errors.New("audiofile: unknown format")
	// ErrNotWAV is returned for input without a RIFF/WAVE header.
	ErrNotWAV = errors.New("audiofile: not a wav file")
	// ErrNotAIFF is returned for input without a FORM/AIFF header.
	ErrNotAIFF = errors.New("audiofile: not an aiff file")
	// ErrUnsupportedBitDepth is returned for PCM depths other than 16, 24 and 32.
	ErrUnsupportedBitDepth = errors.New("audiofile: unsupported bit depth")
	// ErrUnsupportedEncoding is returned for non-PCM WAV payloads.
	ErrUnsupportedEncoding = errors.New("audiofile: unsupported encoding")
	// ErrInvalidClip is returned for clips with bad layout or rate.
	ErrInvalidClip = errors.New("audiofile: invalid clip")
)
