package audiofile

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

// aiffReader is the part of aiff.Decoder used for reading PCM.
type aiffReader interface {
	Format() *audio.Format
	PCMBuffer(buf *audio.IntBuffer) (int, error)
}

// AIFFDecoder decodes 16, 24 and 32-bit AIFF files.
type AIFFDecoder struct{}

// Decode reads the whole PCM payload of r.
func (AIFFDecoder) Decode(r io.Reader) (*Clip, error) {
	rs, err := seekable(r)
	if err != nil {
		return nil, err
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAIFF
	}
	dec.ReadInfo()

	return readAIFF(dec, int(dec.BitDepth))
}

func readAIFF(dec aiffReader, bitDepth int) (*Clip, error) {
	format := dec.Format()
	if format == nil || format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: missing aiff format", ErrInvalidClip)
	}
	if _, err := fullScale(bitDepth); err != nil {
		return nil, err
	}

	chunk := &audio.IntBuffer{
		Format: format,
		Data:   make([]int, 4096*format.NumChannels),
	}

	var data []int
	for {
		n, err := dec.PCMBuffer(chunk)
		data = append(data, chunk.Data[:n]...)
		if err == io.EOF || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("audiofile: read aiff pcm: %w", err)
		}
	}

	samples, err := intsToFloats(data, bitDepth)
	if err != nil {
		return nil, err
	}
	clip := &Clip{
		Samples:    samples,
		Channels:   format.NumChannels,
		SampleRate: format.SampleRate,
	}
	return clip, clip.Validate()
}
