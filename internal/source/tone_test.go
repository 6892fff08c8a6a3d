package source

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthizer/synthizer-rust-rewrite/internal/audio"
)

func TestTone(t *testing.T) {
	cfg := audio.DeviceConfig{SampleRate: 48000, Channels: 2}

	clip, err := Tone(1000, 100*time.Millisecond, DefaultToneGain, cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg.Channels, clip.Channels)
	assert.Equal(t, cfg.SampleRate, clip.SampleRate)
	assert.Equal(t, 4800, clip.Frames())

	var peak float64
	for i := 0; i < clip.Frames(); i++ {
		l, r := clip.Samples[i*2], clip.Samples[i*2+1]
		require.Equal(t, l, r, "tone should be identical on both channels")
		peak = math.Max(peak, math.Abs(float64(l)))
	}
	assert.InDelta(t, DefaultToneGain, peak, 0.01)
}

func TestToneRejectsBadArguments(t *testing.T) {
	cfg := audio.DeviceConfig{SampleRate: 48000, Channels: 1}

	_, err := Tone(440, 0, DefaultToneGain, cfg)
	assert.Error(t, err)

	_, err = Tone(440, time.Second, DefaultToneGain, audio.DeviceConfig{})
	assert.Error(t, err)

	// Above Nyquist
	_, err = Tone(30000, time.Second, DefaultToneGain, cfg)
	assert.Error(t, err)
}
