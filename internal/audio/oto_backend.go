//go:build cgo

package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process, created on first use
var (
	otoMu       sync.Mutex
	otoCtx      *oto.Context
	otoRate     uint32
	otoChannels uint32
)

var otoDefaultDeviceID = []byte("oto:default")

// OtoBackend plays through ebitengine/oto. It only knows the platform default
// device, and every device shares the rate and channel count fixed by the
// first one opened in the process.
type OtoBackend struct{}

// NewOtoBackend creates an OtoBackend
func NewOtoBackend() *OtoBackend {
	slog.Debug("creating new OtoBackend")
	return &OtoBackend{}
}

// Name implements Backend
func (b *OtoBackend) Name() string {
	return "oto"
}

// InitContext implements Backend. The oto context itself is created lazily
// because its format is fixed at creation.
func (b *OtoBackend) InitContext(logProc LogProc) (NativeContext, error) {
	return &otoContext{log: logProc}, nil
}

type otoContext struct {
	log LogProc
}

func (c *otoContext) PlaybackDevices() ([]NativeDeviceInfo, error) {
	return []NativeDeviceInfo{{
		Name:      "System Default Output",
		ID:        otoDefaultDeviceID,
		IsDefault: true,
	}}, nil
}

func (c *otoContext) InitPlaybackDevice(config NativeDeviceConfig, proc DataProc) (NativeDevice, error) {
	if config.DeviceID != nil && string(config.DeviceID) != string(otoDefaultDeviceID) {
		return nil, errors.New("oto can only open the default device")
	}

	ctx, rate, channels, err := c.sharedContext(config)
	if err != nil {
		return nil, err
	}

	d := &otoDevice{
		proc:       proc,
		sampleRate: rate,
		channels:   channels,
	}
	d.player = ctx.NewPlayer(d)
	return d, nil
}

// sharedContext returns the process oto context, creating it with the
// requested format when it does not exist yet
func (c *otoContext) sharedContext(config NativeDeviceConfig) (*oto.Context, uint32, uint32, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if (config.SampleRate != 0 && config.SampleRate != otoRate) ||
			(config.Channels != 0 && config.Channels != otoChannels) {
			c.log(SeverityWarning, fmt.Sprintf("oto context already runs %d ch at %d Hz, ignoring request for %d ch at %d Hz",
				otoChannels, otoRate, config.Channels, config.SampleRate))
		}
		return otoCtx, otoRate, otoChannels, nil
	}

	rate := config.SampleRate
	if rate == 0 {
		rate = defaultNullSampleRate
	}
	channels := config.Channels
	if channels == 0 {
		channels = defaultNullChannels
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(rate),
		ChannelCount: int(channels),
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, 0, 0, err
	}
	<-ready

	otoCtx, otoRate, otoChannels = ctx, rate, channels
	c.log(SeverityInfo, fmt.Sprintf("oto context created: %d ch at %d Hz", channels, rate))
	return ctx, rate, channels, nil
}

// Uninit does nothing: oto contexts cannot be closed and are reused
func (c *otoContext) Uninit() error {
	return nil
}

// otoDevice is pulled by oto's mixer through Read
type otoDevice struct {
	proc       DataProc
	player     *oto.Player
	sampleRate uint32
	channels   uint32
}

// Read is called on oto's audio goroutine. Only whole frames are handed to
// proc; a trailing partial frame is silence.
func (d *otoDevice) Read(p []byte) (int, error) {
	frameBytes := int(d.channels) * 4
	frames := len(p) / frameBytes
	whole := frames * frameBytes

	if frames > 0 {
		d.proc(p[:whole], uint32(frames))
	}
	clear(p[whole:])
	return len(p), nil
}

func (d *otoDevice) Start() error {
	d.player.Play()
	return d.player.Err()
}

func (d *otoDevice) Stop() error {
	d.player.Pause()
	return d.player.Err()
}

func (d *otoDevice) Uninit() {
	if err := d.player.Close(); err != nil {
		slog.Debug("oto player close failed", "error", err)
	}
}

func (d *otoDevice) SampleRate() uint32 {
	return d.sampleRate
}

func (d *otoDevice) Channels() uint32 {
	return d.channels
}
