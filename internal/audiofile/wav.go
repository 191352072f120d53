package audiofile

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// WAVDecoder decodes 16, 24 and 32-bit integer PCM WAV files.
type WAVDecoder struct{}

// Decode reads the whole PCM payload of r.
func (WAVDecoder) Decode(r io.Reader) (*Clip, error) {
	rs, err := seekable(r)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: wav format tag %d", ErrUnsupportedEncoding, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audiofile: read wav pcm: %w", err)
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	samples, err := intsToFloats(buf.Data, depth)
	if err != nil {
		return nil, err
	}

	clip := &Clip{
		Samples:    samples,
		Channels:   int(dec.NumChans),
		SampleRate: int(dec.SampleRate),
	}
	if buf.Format != nil {
		clip.Channels = buf.Format.NumChannels
		clip.SampleRate = buf.Format.SampleRate
	}
	return clip, clip.Validate()
}

// WriteWAV encodes clip as integer PCM at bitDepth. Samples outside [-1, 1]
// are clipped.
func WriteWAV(w io.WriteSeeker, clip *Clip, bitDepth int) error {
	if err := clip.Validate(); err != nil {
		return err
	}
	data, err := floatsToInts(clip.Samples, bitDepth)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(w, clip.SampleRate, bitDepth, clip.Channels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: clip.Channels,
			SampleRate:  clip.SampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audiofile: write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audiofile: finish wav: %w", err)
	}
	return nil
}

// WriteWAVFile creates path and writes clip into it.
func WriteWAVFile(path string, clip *Clip, bitDepth int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audiofile: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("audiofile: close %s: %w", path, cerr)
		}
	}()
	return WriteWAV(f, clip, bitDepth)
}
