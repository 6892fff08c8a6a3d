package source

import (
	"fmt"
	"log/slog"

	"github.com/gopxl/beep"

	"github.com/synthizer/synthizer-rust-rewrite/internal/audio"
)

// resampleQuality is the beep interpolation window
const resampleQuality = 4

// Conform converts clip to the negotiated device format. The result shares
// nothing with clip.
func Conform(clip *Clip, cfg audio.DeviceConfig) (*Clip, error) {
	if clip == nil || clip.Channels == 0 || clip.SampleRate == 0 {
		return nil, ErrInvalidData
	}
	if cfg.Channels == 0 || cfg.SampleRate == 0 {
		return nil, fmt.Errorf("invalid device config %+v", cfg)
	}

	slog.Debug("conforming clip to device",
		"from_channels", clip.Channels,
		"from_rate", clip.SampleRate,
		"to_channels", cfg.Channels,
		"to_rate", cfg.SampleRate)

	out := clip
	if clip.SampleRate != cfg.SampleRate {
		var err error
		out, err = resample(clip, cfg.SampleRate)
		if err != nil {
			return nil, err
		}
	}
	return remapChannels(out, cfg.Channels), nil
}

// resample converts every channel pair through its own beep resampler
func resample(clip *Clip, rate uint32) (*Clip, error) {
	channels := int(clip.Channels)
	out := &Clip{Channels: clip.Channels, SampleRate: rate}

	var frames int
	pairs := make([][][2]float64, 0, (channels+1)/2)
	for first := 0; first < channels; first += 2 {
		src := &channelPair{clip: clip, left: first, right: min(first+1, channels-1)}
		r := beep.Resample(resampleQuality, beep.SampleRate(clip.SampleRate), beep.SampleRate(rate), src)

		rendered := drain(r)
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("resampling channels %d-%d: %w", src.left, src.right, err)
		}
		if len(pairs) == 0 || len(rendered) < frames {
			frames = len(rendered)
		}
		pairs = append(pairs, rendered)
	}

	out.Samples = make([]float32, frames*channels)
	for p, rendered := range pairs {
		left := p * 2
		for i := 0; i < frames; i++ {
			out.Samples[i*channels+left] = float32(rendered[i][0])
			if left+1 < channels {
				out.Samples[i*channels+left+1] = float32(rendered[i][1])
			}
		}
	}

	slog.Debug("clip resampled",
		"from_rate", clip.SampleRate,
		"to_rate", rate,
		"frames_in", clip.Frames(),
		"frames_out", frames)

	return out, nil
}

// remapChannels fits clip to want channels. Mono spreads to the front pair,
// a mono target averages everything, other layouts keep the leading
// channels and leave the rest silent.
func remapChannels(clip *Clip, want uint32) *Clip {
	have := int(clip.Channels)
	dst := int(want)
	frames := clip.Frames()

	out := &Clip{
		Samples:    make([]float32, frames*dst),
		Channels:   want,
		SampleRate: clip.SampleRate,
	}

	for i := 0; i < frames; i++ {
		in := clip.Samples[i*have : (i+1)*have]
		frame := out.Samples[i*dst : (i+1)*dst]

		switch {
		case have == dst:
			copy(frame, in)
		case dst == 1:
			var sum float32
			for _, s := range in {
				sum += s
			}
			frame[0] = sum / float32(have)
		case have == 1:
			frame[0] = in[0]
			frame[1] = in[0]
		default:
			copy(frame, in)
		}
	}
	return out
}

// channelPair streams two channels of a clip as a beep stereo stream
type channelPair struct {
	clip        *Clip
	left, right int
	pos         int
}

func (s *channelPair) Stream(samples [][2]float64) (int, bool) {
	frames := s.clip.Frames()
	if s.pos >= frames {
		return 0, false
	}

	channels := int(s.clip.Channels)
	n := min(len(samples), frames-s.pos)
	for i := 0; i < n; i++ {
		base := (s.pos + i) * channels
		samples[i][0] = float64(s.clip.Samples[base+s.left])
		samples[i][1] = float64(s.clip.Samples[base+s.right])
	}
	s.pos += n
	return n, true
}

func (s *channelPair) Err() error {
	return nil
}

// drain reads a streamer to its end
func drain(s beep.Streamer) [][2]float64 {
	var out [][2]float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			return out
		}
	}
}
