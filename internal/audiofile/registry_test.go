package audiofile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryFormats(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"aif", "aiff", "mp3", "oga", "ogg", "wav", "wave"}, r.Formats())

	d, ok := r.Get(".WAV")
	require.True(t, ok)
	assert.IsType(t, WAVDecoder{}, d)

	_, ok = r.Get("flac")
	assert.False(t, ok)
}

func TestRegistryOverride(t *testing.T) {
	r := NewRegistry()
	want := &Clip{Samples: []float64{0.25}, Channels: 1, SampleRate: 10}
	r.Register(DecoderFunc(func(io.Reader) (*Clip, error) { return want, nil }), ".raw")

	path := filepath.Join(t.TempDir(), "x.RAW")
	require.NoError(t, os.WriteFile(path, []byte{1}, 0o600))

	got, err := r.DecodeFile(path)
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestDecodeFileErrors(t *testing.T) {
	r := DefaultRegistry()
	dir := t.TempDir()

	_, err := r.DecodeFile(filepath.Join(dir, "song.flac"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = r.DecodeFile(filepath.Join(dir, "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bogus := filepath.Join(dir, "bogus.wav")
	require.NoError(t, os.WriteFile(bogus, bytes.Repeat([]byte{0x42}, 64), 0o600))
	_, err = r.DecodeFile(bogus)
	assert.ErrorIs(t, err, ErrNotWAV)
}

func TestDecodersRejectGarbage(t *testing.T) {
	garbage := bytes.Repeat([]byte{0x13, 0x37}, 256)

	_, err := AIFFDecoder{}.Decode(bytes.NewReader(garbage))
	assert.ErrorIs(t, err, ErrNotAIFF)

	_, err = MP3Decoder{}.Decode(bytes.NewReader(garbage))
	assert.Error(t, err)

	_, err = VorbisDecoder{}.Decode(bytes.NewReader(garbage))
	assert.Error(t, err)
}
