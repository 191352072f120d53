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

func TestWAVRoundTrip(t *testing.T) {
	for _, depth := range []int{16, 24} {
		clip := &Clip{
			Samples:    []float64{0, 0.5, -0.5, 0.25, 0.999, -1, 0.1, -0.1},
			Channels:   2,
			SampleRate: 22050,
		}

		path := filepath.Join(t.TempDir(), "out.wav")
		require.NoError(t, WriteWAVFile(path, clip, depth))

		got, err := DefaultRegistry().DecodeFile(path)
		require.NoError(t, err, "depth %d", depth)
		assert.Equal(t, 2, got.Channels)
		assert.Equal(t, 22050, got.SampleRate)
		require.Len(t, got.Samples, len(clip.Samples))
		for i := range clip.Samples {
			assert.InDelta(t, clip.Samples[i], got.Samples[i], 1e-4, "depth %d sample %d", depth, i)
		}
	}
}

func TestWAVDecodeFromPlainReader(t *testing.T) {
	clip := &Clip{Samples: []float64{0.5, -0.5, 0.25}, Channels: 1, SampleRate: 8000}
	path := filepath.Join(t.TempDir(), "mono.wav")
	require.NoError(t, WriteWAVFile(path, clip, 16))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// MultiReader hides the Seeker so the decoder has to buffer.
	got, err := WAVDecoder{}.Decode(io.MultiReader(bytes.NewReader(data)))
	require.NoError(t, err)
	assert.Equal(t, 3, got.Frames())
	assert.InDelta(t, 0.25, got.Samples[2], 1e-4)
}

func TestWriteWAVRejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")

	err := WriteWAVFile(path, &Clip{Samples: []float64{0}, Channels: 0, SampleRate: 8000}, 16)
	assert.ErrorIs(t, err, ErrInvalidClip)

	err = WriteWAVFile(path, &Clip{Samples: []float64{0}, Channels: 1, SampleRate: 8000}, 8)
	assert.ErrorIs(t, err, ErrUnsupportedBitDepth)

	err = WriteWAVFile(filepath.Join(t.TempDir(), "no", "such", "dir.wav"),
		&Clip{Samples: []float64{0}, Channels: 1, SampleRate: 8000}, 16)
	assert.Error(t, err)
}
