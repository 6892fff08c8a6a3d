package source

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"

	"github.com/synthizer/synthizer-rust-rewrite/internal/audio"
)

// DefaultToneGain keeps generated tones well below full scale
const DefaultToneGain = 0.2

// Tone renders a sine wave of freq Hz lasting d, already in the device
// format
func Tone(freq float64, d time.Duration, gain float32, cfg audio.DeviceConfig) (*Clip, error) {
	if cfg.Channels == 0 || cfg.SampleRate == 0 {
		return nil, fmt.Errorf("invalid device config %+v", cfg)
	}
	if d <= 0 {
		return nil, fmt.Errorf("tone duration must be positive, got %s", d)
	}
	if freq <= 0 || freq >= float64(cfg.SampleRate)/2 {
		return nil, fmt.Errorf("tone frequency %.1f Hz outside (0, %d) Hz", freq, cfg.SampleRate/2)
	}

	rate := beep.SampleRate(cfg.SampleRate)
	sine, err := generators.SineTone(rate, freq)
	if err != nil {
		return nil, fmt.Errorf("failed to create %.1f Hz tone: %w", freq, err)
	}

	rendered := drain(beep.Take(rate.N(d), sine))

	mono := &Clip{
		Samples:    make([]float32, len(rendered)),
		Channels:   1,
		SampleRate: cfg.SampleRate,
	}
	for i, frame := range rendered {
		mono.Samples[i] = float32(frame[0]) * gain
	}

	slog.Debug("tone rendered",
		"frequency", freq,
		"duration", d,
		"frames", mono.Frames(),
		"gain", gain)

	return remapChannels(mono, cfg.Channels), nil
}
