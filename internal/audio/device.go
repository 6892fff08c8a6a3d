package audio

import (
	"fmt"
	"log/slog"
	"sync"
)

// Limits applied when validating DeviceOpenOptions. They match what
// miniaudio accepts.
const (
	MaxChannels   = 254
	MinSampleRate = 8000
	MaxSampleRate = 384000
)

// DeviceState is the lifecycle position of a PlaybackDevice
type DeviceState int32

const (
	StateOpen DeviceState = iota
	StateStarted
	StateStopped
	StateDestroyed
)

// String returns the lower-case state name
func (s DeviceState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// DeviceOpenOptions is what the caller asks for. A zero DeviceID selects the
// platform default device; zero Channels or SampleRate lets the backend pick.
type DeviceOpenOptions struct {
	DeviceID   DeviceID
	Channels   uint32
	SampleRate uint32
}

// Validate checks the options before any native call is made
func (o DeviceOpenOptions) Validate() error {
	if o.Channels > MaxChannels {
		return fmt.Errorf("%w: %d channels exceeds the maximum of %d", ErrInvalidOptions, o.Channels, MaxChannels)
	}
	if o.SampleRate != 0 && (o.SampleRate < MinSampleRate || o.SampleRate > MaxSampleRate) {
		return fmt.Errorf("%w: sample rate %d Hz outside %d-%d Hz",
			ErrInvalidOptions, o.SampleRate, MinSampleRate, MaxSampleRate)
	}
	return nil
}

// DeviceConfig holds the values actually negotiated with the backend, which
// may differ from the requested ones
type DeviceConfig struct {
	SampleRate uint32 `json:"sample_rate"`
	Channels   uint32 `json:"channels"`
}

// DataCallback fills output with interleaved samples, len(output) being
// frames*config.Channels. It runs on the backend's real-time thread and must
// not block, allocate or do unbounded work. Samples are expected in
// [-1.0, 1.0]; nothing clips them.
//
// Any state the callback needs is captured by the closure. That state is
// borrowed: it must stay valid until Destroy returns.
type DataCallback func(output []float32, config DeviceConfig)

// PlaybackDevice is an open output stream. Its native handle, callback and
// config never change after open; only the state moves.
//
// Stop the device and let it settle before calling Destroy from another
// goroutine than the one that started it: a callback already running on the
// real-time thread is not interrupted by Destroy.
type PlaybackDevice struct {
	ctx      *Context
	native   NativeDevice
	handle   Handle
	callback DataCallback
	config   DeviceConfig

	mu    sync.Mutex
	state DeviceState
}

// OpenPlaybackDevice opens a device for 32-bit float output. The returned
// device is not started. On failure nothing is retained.
func (c *Context) OpenPlaybackDevice(opts DeviceOpenOptions, callback DataCallback) (*PlaybackDevice, error) {
	if callback == nil {
		return nil, fmt.Errorf("%w: callback is required", ErrInvalidOptions)
	}
	if err := opts.Validate(); err != nil {
		slog.Error("rejecting playback device options", "error", err)
		return nil, err
	}

	nativeConfig := NativeDeviceConfig{
		DeviceID:   opts.DeviceID.Bytes(),
		Channels:   opts.Channels,
		SampleRate: opts.SampleRate,
	}

	slog.Debug("opening playback device",
		"backend", c.backend.Name(),
		"device_id", opts.DeviceID.String(),
		"requested_channels", opts.Channels,
		"requested_sample_rate", opts.SampleRate)

	var device *PlaybackDevice
	err := c.exclusive(func() error {
		handle := c.devices.reserve()

		native, err := c.native.InitPlaybackDevice(nativeConfig, c.devices.procFor(handle))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDeviceOpen, err)
		}

		config := DeviceConfig{
			SampleRate: native.SampleRate(),
			Channels:   native.Channels(),
		}
		if config.SampleRate == 0 || config.Channels == 0 {
			native.Uninit()
			return fmt.Errorf("%w: backend negotiated %d channels at %d Hz",
				ErrDeviceOpen, config.Channels, config.SampleRate)
		}

		device = &PlaybackDevice{
			ctx:      c,
			native:   native,
			handle:   handle,
			callback: callback,
			config:   config,
			state:    StateOpen,
		}
		c.devices.bind(handle, device)
		return nil
	})
	if err != nil {
		slog.Error("failed to open playback device", "backend", c.backend.Name(), "error", err)
		return nil, err
	}

	c.metrics.deviceOpened()
	slog.Info("playback device opened",
		"handle", device.handle,
		"channels", device.config.Channels,
		"sample_rate", device.config.SampleRate)

	return device, nil
}

// Config returns the configuration negotiated at open time
func (d *PlaybackDevice) Config() DeviceConfig {
	return d.config
}

// State returns the current lifecycle state
func (d *PlaybackDevice) State() DeviceState {
	if d == nil {
		return StateDestroyed
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Start begins streaming. The callback may fire any time after Start
// returns. Starting a started device does nothing. On failure the state is
// unchanged and Start may be retried.
func (d *PlaybackDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateDestroyed:
		return ErrDeviceDestroyed
	case StateStarted:
		slog.Debug("playback device already started", "handle", d.handle)
		return nil
	}

	err := d.ctx.shared(d.native.Start)
	if err != nil {
		slog.Error("failed to start playback device", "handle", d.handle, "error", err)
		return fmt.Errorf("%w: %w", ErrDeviceStart, err)
	}

	d.state = StateStarted
	slog.Debug("playback device started", "handle", d.handle)
	return nil
}

// Stop halts streaming. Once Stop returns no new callback begins; one that
// was already running may still be finishing. Stopping a device that is not
// started does nothing.
func (d *PlaybackDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case StateDestroyed:
		return ErrDeviceDestroyed
	case StateOpen, StateStopped:
		slog.Debug("playback device not started, nothing to stop", "handle", d.handle, "state", d.state)
		return nil
	}

	err := d.ctx.shared(d.native.Stop)
	if err != nil {
		slog.Error("failed to stop playback device", "handle", d.handle, "error", err)
		return fmt.Errorf("%w: %w", ErrDeviceStop, err)
	}

	d.state = StateStopped
	slog.Debug("playback device stopped", "handle", d.handle)
	return nil
}

// Destroy releases the native device, stopping it first if needed. It is a
// no-op on a nil or already destroyed device. After it returns the context
// no longer references the callback or anything it captured.
func (d *PlaybackDevice) Destroy() {
	if d == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateDestroyed {
		slog.Debug("playback device already destroyed", "handle", d.handle)
		return
	}

	// Unbind first so that a late callback resolves to silence instead of
	// reaching the owner's state. Uninit runs even when the context is
	// closing; it only needs to be serialized against device opens.
	d.ctx.devices.release(d.handle)

	d.ctx.mu.RLock()
	d.native.Uninit()
	d.ctx.mu.RUnlock()

	d.ctx.metrics.deviceDestroyed()
	d.state = StateDestroyed

	slog.Info("playback device destroyed", "handle", d.handle)
}
