package source

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatClaims(t *testing.T) {
	tests := []struct {
		format   Format
		filename string
		want     bool
	}{
		{WAV, "audio.wav", true},
		{WAV, "sounds/SOUND.WAV", true},
		{WAV, "music.wave", true},
		{WAV, ".wav", false},
		{WAV, "audio.wav.backup", false},
		{MP3, "song.mp3", true},
		{MP3, "test.MPEG", true},
		{MP3, "mp3", false},
		{MP3, "audio.wav", false},
		{AIFF, "chime.aif", true},
		{AIFF, "chime.AIFF", true},
		{AIFF, "sound.flac", false},
		{AIFF, "", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.format.Claims(tt.filename), "%s claims %q", tt.format.Name, tt.filename)
	}
}

func TestFormatsRejectGarbage(t *testing.T) {
	inputs := map[string][]byte{
		"empty":          {},
		"text":           []byte("definitely not audio"),
		"partial header": []byte("FORM"),
	}

	for _, format := range []Format{WAV, MP3, AIFF} {
		for name, data := range inputs {
			clip, err := format.Decode(data)
			assert.Nil(t, clip, "%s/%s", format.Name, name)
			assert.Error(t, err, "%s/%s", format.Name, name)
		}
	}
}

func TestNewClipTrimsPartialFrames(t *testing.T) {
	clip, err := newClip("TEST", 2, 100, []float32{0.1, 0.2, 0.3})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, clip.Samples)
	assert.Equal(t, 1, clip.Frames())
	assert.Equal(t, 10*time.Millisecond, clip.Duration())

	_, err = newClip("TEST", 0, 100, []float32{0.1})
	assert.True(t, errors.Is(err, ErrInvalidData))

	_, err = newClip("TEST", 2, 100, []float32{0.1})
	assert.True(t, errors.Is(err, ErrInvalidData))
}

func TestCheckBitDepth(t *testing.T) {
	for _, bits := range []int{16, 24, 32} {
		assert.NoError(t, checkBitDepth("TEST", bits))
	}
	for _, bits := range []int{0, 8, 12, 64} {
		assert.True(t, errors.Is(checkBitDepth("TEST", bits), ErrUnsupportedFormat), "%d bits", bits)
	}
}

func TestClipOfNothing(t *testing.T) {
	var clip *Clip
	assert.Zero(t, clip.Frames())
	assert.Zero(t, clip.Duration())
}
