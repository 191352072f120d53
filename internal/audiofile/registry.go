package audiofile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Decoder turns an encoded stream into a Clip.
type Decoder interface {
	Decode(r io.Reader) (*Clip, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(r io.Reader) (*Clip, error)

// Decode calls f(r).
func (f DecoderFunc) Decode(r io.Reader) (*Clip, error) { return f(r) }

// Registry maps file extensions to decoders.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Decoder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Decoder)}
}

// DefaultRegistry returns a registry with the built-in decoders.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(WAVDecoder{}, "wav", "wave")
	r.Register(AIFFDecoder{}, "aif", "aiff")
	r.Register(MP3Decoder{}, "mp3")
	r.Register(VorbisDecoder{}, "ogg", "oga")
	return r
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Register binds d to every extension given. Later registrations win.
func (r *Registry) Register(d Decoder, exts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range exts {
		r.codecs[normalizeExt(ext)] = d
	}
}

// Get returns the decoder for ext. The leading dot and case are ignored.
func (r *Registry) Get(ext string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.codecs[normalizeExt(ext)]
	return d, ok
}

// Formats lists the registered extensions in sorted order.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.codecs))
	for ext := range r.codecs {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

// DecodeFile picks a decoder by the extension of path and decodes the file.
func (r *Registry) DecodeFile(path string) (*Clip, error) {
	ext := filepath.Ext(path)
	d, ok := r.Get(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audiofile: open %s: %w", path, err)
	}
	defer f.Close()

	clip, err := d.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("audiofile: decode %s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Registry.DecodeFile",
		"path":        path,
		"channels":    clip.Channels,
		"sample_rate": clip.SampleRate,
		"frames":      clip.Frames(),
	}).Debug("Decoded audio file")

	return clip, nil
}

// seekable returns r as an io.ReadSeeker, buffering it in memory when needed.
func seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("audiofile: buffer input: %w", err)
	}
	return bytes.NewReader(data), nil
}
