//go:build cgo

package audio

import (
	"log/slog"

	"github.com/gen2brain/malgo"
)

// MalgoBackend plays through miniaudio, which picks the platform API
// (WASAPI, CoreAudio, PulseAudio, ALSA, ...) at context init
type MalgoBackend struct {
	backends []malgo.Backend
}

// NewMalgoBackend creates a MalgoBackend. With no arguments miniaudio tries
// its platform backends in default priority order.
func NewMalgoBackend(backends ...malgo.Backend) *MalgoBackend {
	slog.Debug("creating new MalgoBackend", "backends", len(backends))
	return &MalgoBackend{backends: backends}
}

// Name implements Backend
func (b *MalgoBackend) Name() string {
	return "malgo"
}

// InitContext implements Backend. malgo hands log lines over without their
// miniaudio level, so they enter the bridge as debug.
func (b *MalgoBackend) InitContext(logProc LogProc) (NativeContext, error) {
	ctx, err := malgo.InitContext(b.backends, malgo.ContextConfig{}, func(message string) {
		logProc(SeverityDebug, message)
	})
	if err != nil {
		return nil, err
	}
	return &malgoContext{ctx: ctx}, nil
}

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func (c *malgoContext) PlaybackDevices() ([]NativeDeviceInfo, error) {
	devices, err := c.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, err
	}

	out := make([]NativeDeviceInfo, 0, len(devices))
	for _, dev := range devices {
		out = append(out, NativeDeviceInfo{
			Name:      dev.Name(),
			ID:        append([]byte(nil), dev.ID[:]...),
			IsDefault: dev.IsDefault == 1,
		})
	}
	return out, nil
}

func (c *malgoContext) InitPlaybackDevice(config NativeDeviceConfig, proc DataProc) (NativeDevice, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = config.Channels
	deviceConfig.SampleRate = config.SampleRate
	deviceConfig.Alsa.NoMMap = 1

	// Only has to outlive InitDevice, miniaudio copies it
	var id malgo.DeviceID
	if config.DeviceID != nil {
		id = toMalgoDeviceID(config.DeviceID)
		deviceConfig.Playback.DeviceID = id.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, _ []byte, frameCount uint32) {
			proc(output, frameCount)
		},
	}

	device, err := malgo.InitDevice(c.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, err
	}
	return &malgoDevice{device: device}, nil
}

func (c *malgoContext) Uninit() error {
	// malgo requires both Uninit() and Free()
	if err := c.ctx.Uninit(); err != nil {
		return err
	}
	c.ctx.Free()
	return nil
}

// toMalgoDeviceID converts an opaque id blob back into malgo's fixed array
func toMalgoDeviceID(b []byte) malgo.DeviceID {
	var id malgo.DeviceID
	copy(id[:], b)
	return id
}

type malgoDevice struct {
	device *malgo.Device
}

func (d *malgoDevice) Start() error {
	return d.device.Start()
}

func (d *malgoDevice) Stop() error {
	return d.device.Stop()
}

func (d *malgoDevice) Uninit() {
	d.device.Uninit()
}

func (d *malgoDevice) SampleRate() uint32 {
	return d.device.SampleRate()
}

func (d *malgoDevice) Channels() uint32 {
	return d.device.PlaybackChannels()
}
