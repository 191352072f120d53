package audiofile

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

// vorbisReader is the part of oggvorbis.Reader used for reading PCM.
type vorbisReader interface {
	SampleRate() int
	Channels() int
	Read(p []float32) (int, error)
}

// VorbisDecoder decodes Ogg Vorbis streams.
type VorbisDecoder struct{}

// Decode reads the whole stream from r.
func (VorbisDecoder) Decode(r io.Reader) (*Clip, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("audiofile: open ogg vorbis: %w", err)
	}
	return readVorbis(dec)
}

// readVorbis drains dec. Read reports interleaved values, not frames.
func readVorbis(dec vorbisReader) (*Clip, error) {
	channels := dec.Channels()
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidClip, channels)
	}

	buf := make([]float32, 4096*channels)
	var samples []float64
	for {
		n, err := dec.Read(buf)
		for _, v := range buf[:n] {
			samples = append(samples, float64(v))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("audiofile: read ogg vorbis pcm: %w", err)
		}
		if n == 0 {
			break
		}
	}

	samples = samples[:len(samples)-len(samples)%channels]
	clip := &Clip{
		Samples:    samples,
		Channels:   channels,
		SampleRate: dec.SampleRate(),
	}
	return clip, clip.Validate()
}
