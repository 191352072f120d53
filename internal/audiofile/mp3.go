package audiofile

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// go-mp3 always produces interleaved stereo 16-bit little-endian PCM.
const mp3Channels = 2

// mp3Reader is the part of gomp3.Decoder used for reading PCM.
type mp3Reader interface {
	io.Reader
	SampleRate() int
}

// MP3Decoder decodes MPEG-1/2 Layer III streams.
type MP3Decoder struct{}

// Decode reads the whole stream from r.
func (MP3Decoder) Decode(r io.Reader) (*Clip, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("audiofile: open mp3: %w", err)
	}
	return readMP3(dec)
}

func readMP3(dec mp3Reader) (*Clip, error) {
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("audiofile: read mp3 pcm: %w", err)
	}

	frameBytes := 2 * mp3Channels
	raw = raw[:len(raw)-len(raw)%frameBytes]

	samples := make([]float64, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		samples[i] = float64(v) / 32768
	}

	clip := &Clip{
		Samples:    samples,
		Channels:   mp3Channels,
		SampleRate: dec.SampleRate(),
	}
	return clip, clip.Validate()
}
