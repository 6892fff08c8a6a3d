// Package source turns sound files and generated tones into sample buffers
// a playback device callback can stream without allocating.
package source

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrInvalidData       = errors.New("invalid audio data")
	ErrReadFailure       = errors.New("failed to read audio data")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrNotFound          = errors.New("sound file not found")
)

// Clip is decoded audio held as interleaved float32 samples in [-1, 1]
type Clip struct {
	Samples    []float32
	Channels   uint32
	SampleRate uint32
}

// Frames returns the number of sample frames in the clip
func (c *Clip) Frames() int {
	if c == nil || c.Channels == 0 {
		return 0
	}
	return len(c.Samples) / int(c.Channels)
}

// Duration returns the playing time of the clip at its own rate
func (c *Clip) Duration() time.Duration {
	if c == nil || c.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// DecodeFunc turns a complete encoded file into a clip
type DecodeFunc func(data []byte) (*Clip, error)

// Format is one container a Registry can load
type Format struct {
	Name string
	// Extensions are matched case-insensitively and include the dot
	Extensions []string
	// MIMETypes are canonical mimetype names; aliases match through Is
	MIMETypes []string
	Decode    DecodeFunc
}

// Claims reports whether filename carries one of the format's extensions
func (f Format) Claims(filename string) bool {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		return false
	}
	for _, candidate := range f.Extensions {
		if strings.EqualFold(candidate, ext) {
			return true
		}
	}
	return false
}

// newClip validates decoder output before it leaves the package
func newClip(format string, channels, sampleRate uint32, samples []float32) (*Clip, error) {
	if channels == 0 || sampleRate == 0 {
		return nil, fmt.Errorf("%w: %s header has %d channels at %d Hz",
			ErrInvalidData, format, channels, sampleRate)
	}
	if len(samples) < int(channels) {
		return nil, fmt.Errorf("%w: %s file holds no audio", ErrInvalidData, format)
	}

	clip := &Clip{
		Samples:    samples[:len(samples)-len(samples)%int(channels)],
		Channels:   channels,
		SampleRate: sampleRate,
	}
	slog.Debug("decoded clip",
		"format", format,
		"channels", channels,
		"sample_rate", sampleRate,
		"duration", clip.Duration())
	return clip, nil
}

// checkBitDepth accepts the integer PCM widths the decoders normalize
func checkBitDepth(format string, bits int) error {
	switch bits {
	case 16, 24, 32:
		return nil
	}
	return fmt.Errorf("%w: %d-bit %s", ErrUnsupportedFormat, bits, format)
}

// pcmScale is the divisor that maps signed integer PCM of the given depth
// into [-1, 1)
func pcmScale(bitDepth int) float32 {
	return float32(int64(1) << (bitDepth - 1))
}
