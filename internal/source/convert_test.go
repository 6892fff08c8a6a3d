package source

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthizer/synthizer-rust-rewrite/internal/audio"
)

func TestClipFramesAndDuration(t *testing.T) {
	clip := &Clip{Samples: make([]float32, 96000), Channels: 2, SampleRate: 48000}
	assert.Equal(t, 48000, clip.Frames())
	assert.Equal(t, time.Second, clip.Duration())

	var nilClip *Clip
	assert.Equal(t, 0, nilClip.Frames())
	assert.Equal(t, time.Duration(0), nilClip.Duration())
}

func TestConformRejectsBadInput(t *testing.T) {
	_, err := Conform(nil, audio.DeviceConfig{SampleRate: 48000, Channels: 2})
	assert.ErrorIs(t, err, ErrInvalidData)

	_, err = Conform(&Clip{Samples: []float32{0}, Channels: 1, SampleRate: 8000}, audio.DeviceConfig{})
	assert.Error(t, err)
}

func TestConformChannelMapping(t *testing.T) {
	tests := []struct {
		name   string
		clip   *Clip
		target uint32
		want   []float32
	}{
		{
			name:   "identity",
			clip:   &Clip{Samples: []float32{0.1, 0.2, 0.3, 0.4}, Channels: 2, SampleRate: 48000},
			target: 2,
			want:   []float32{0.1, 0.2, 0.3, 0.4},
		},
		{
			name:   "mono to stereo duplicates",
			clip:   &Clip{Samples: []float32{0.5, -0.5}, Channels: 1, SampleRate: 48000},
			target: 2,
			want:   []float32{0.5, 0.5, -0.5, -0.5},
		},
		{
			name:   "mono to quad fills the front pair",
			clip:   &Clip{Samples: []float32{0.5}, Channels: 1, SampleRate: 48000},
			target: 4,
			want:   []float32{0.5, 0.5, 0, 0},
		},
		{
			name:   "stereo to mono averages",
			clip:   &Clip{Samples: []float32{0.2, 0.4, -1, 1}, Channels: 2, SampleRate: 48000},
			target: 1,
			want:   []float32{0.3, 0},
		},
		{
			name:   "stereo to six keeps the leading pair",
			clip:   &Clip{Samples: []float32{0.1, 0.2}, Channels: 2, SampleRate: 48000},
			target: 6,
			want:   []float32{0.1, 0.2, 0, 0, 0, 0},
		},
		{
			name:   "quad to stereo drops the rear",
			clip:   &Clip{Samples: []float32{0.1, 0.2, 0.3, 0.4}, Channels: 4, SampleRate: 48000},
			target: 2,
			want:   []float32{0.1, 0.2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Conform(tt.clip, audio.DeviceConfig{SampleRate: 48000, Channels: tt.target})
			require.NoError(t, err)
			assert.Equal(t, tt.target, out.Channels)
			assert.InDeltaSlice(t, tt.want, out.Samples, 1e-6)
		})
	}
}

func TestConformResamples(t *testing.T) {
	// One second of a 440 Hz sine at 22050 Hz, stereo with the right channel
	// inverted
	const inRate = 22050
	clip := &Clip{Channels: 2, SampleRate: inRate}
	for i := 0; i < inRate; i++ {
		v := float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/inRate))
		clip.Samples = append(clip.Samples, v, -v)
	}

	out, err := Conform(clip, audio.DeviceConfig{SampleRate: 44100, Channels: 2})
	require.NoError(t, err)

	assert.Equal(t, uint32(44100), out.SampleRate)
	assert.InDelta(t, 44100, out.Frames(), 64)

	var peak float64
	for i := 0; i < out.Frames(); i++ {
		l, r := out.Samples[i*2], out.Samples[i*2+1]
		assert.InDelta(t, -l, r, 1e-3, "channels should stay mirrored at frame %d", i)
		peak = math.Max(peak, math.Abs(float64(l)))
	}
	assert.InDelta(t, 0.5, peak, 0.05)

	// The source is untouched
	assert.Equal(t, inRate, clip.Frames())
}

func TestConformResamplesOddChannelCounts(t *testing.T) {
	clip := &Clip{Channels: 3, SampleRate: 16000, Samples: make([]float32, 3*1600)}
	for i := 0; i < 1600; i++ {
		clip.Samples[i*3+2] = 0.25
	}

	out, err := Conform(clip, audio.DeviceConfig{SampleRate: 48000, Channels: 3})
	require.NoError(t, err)
	assert.InDelta(t, 4800, out.Frames(), 32)

	// Away from the edges the third channel carries the constant
	mid := out.Frames() / 2
	assert.InDelta(t, 0.25, out.Samples[mid*3+2], 1e-3)
	assert.InDelta(t, 0, out.Samples[mid*3], 1e-3)
}
