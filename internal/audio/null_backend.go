package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultNullSampleRate = 48000
	defaultNullChannels   = 2
	defaultNullPeriod     = 10 * time.Millisecond
)

// NullBackendOptions shapes the simulated hardware
type NullBackendOptions struct {
	// Devices listed by enumeration. Empty means a single default device.
	Devices []NativeDeviceInfo

	// SampleRates the simulated hardware supports; requests are moved to the
	// nearest one. Empty accepts any valid rate.
	SampleRates []uint32

	// MaxChannels caps the negotiated channel count. Zero means no cap.
	MaxChannels uint32

	// Period is how often the data proc fires while started
	Period time.Duration
}

// NullBackend drives devices from a software clock instead of hardware. It
// runs everywhere, including builds without cgo, and discards what it renders.
type NullBackend struct {
	opts NullBackendOptions
}

// NewNullBackend creates a NullBackend with the given options
func NewNullBackend(opts NullBackendOptions) *NullBackend {
	if len(opts.Devices) == 0 {
		opts.Devices = []NativeDeviceInfo{{
			Name:      "Null Output",
			ID:        []byte("null:0"),
			IsDefault: true,
		}}
	}
	if opts.Period <= 0 {
		opts.Period = defaultNullPeriod
	}
	slog.Debug("creating null backend", "devices", len(opts.Devices), "period", opts.Period)
	return &NullBackend{opts: opts}
}

// Name implements Backend
func (b *NullBackend) Name() string {
	return "null"
}

// InitContext implements Backend
func (b *NullBackend) InitContext(logProc LogProc) (NativeContext, error) {
	logProc(SeverityInfo, fmt.Sprintf("null backend ready with %d device(s)", len(b.opts.Devices)))
	return &nullContext{opts: b.opts, log: logProc}, nil
}

type nullContext struct {
	opts NullBackendOptions
	log  LogProc
}

var errUnknownNullDevice = errors.New("no such null device")

func (c *nullContext) PlaybackDevices() ([]NativeDeviceInfo, error) {
	out := make([]NativeDeviceInfo, len(c.opts.Devices))
	copy(out, c.opts.Devices)
	return out, nil
}

func (c *nullContext) hasDevice(id []byte) bool {
	for _, d := range c.opts.Devices {
		if string(d.ID) == string(id) {
			return true
		}
	}
	return false
}

func (c *nullContext) InitPlaybackDevice(config NativeDeviceConfig, proc DataProc) (NativeDevice, error) {
	if config.DeviceID != nil && !c.hasDevice(config.DeviceID) {
		return nil, errUnknownNullDevice
	}

	channels := config.Channels
	if channels == 0 {
		channels = defaultNullChannels
	}
	if c.opts.MaxChannels != 0 && channels > c.opts.MaxChannels {
		c.log(SeverityWarning, fmt.Sprintf("null device supports %d channels, %d requested", c.opts.MaxChannels, channels))
		channels = c.opts.MaxChannels
	}

	sampleRate := nearestRate(config.SampleRate, c.opts.SampleRates)

	frames := uint32(time.Duration(sampleRate) * c.opts.Period / time.Second)
	if frames == 0 {
		frames = 1
	}

	d := &nullDevice{
		proc:       proc,
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		period:     c.opts.Period,
		buffer:     make([]byte, int(frames)*int(channels)*4),
		done:       make(chan struct{}),
	}
	d.wg.Add(1)
	go d.clock()

	c.log(SeverityDebug, fmt.Sprintf("null device initialized: %d ch, %d Hz, %d frames/period", channels, sampleRate, frames))
	return d, nil
}

func (c *nullContext) Uninit() error {
	c.log(SeverityDebug, "null backend uninitialized")
	return nil
}

// nearestRate picks the supported rate closest to want. Zero picks the
// first supported rate, or the default.
func nearestRate(want uint32, supported []uint32) uint32 {
	if len(supported) == 0 {
		if want == 0 {
			return defaultNullSampleRate
		}
		return want
	}
	if want == 0 {
		return supported[0]
	}

	best := supported[0]
	for _, r := range supported[1:] {
		if absDiff(r, want) < absDiff(best, want) {
			best = r
		}
	}
	return best
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

// nullDevice calls proc from its own goroutine once per period while
// started. running is only changed under mu, and proc only runs under mu,
// so once Stop returns no further call begins.
type nullDevice struct {
	proc       DataProc
	sampleRate uint32
	channels   uint32
	frames     uint32
	period     time.Duration
	buffer     []byte

	mu      sync.Mutex
	running bool

	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup
}

func (d *nullDevice) clock() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	for {
		select {
		case <-d.done:
			return
		case <-ticker.C:
			d.mu.Lock()
			if d.running {
				d.proc(d.buffer, d.frames)
			}
			d.mu.Unlock()
		}
	}
}

func (d *nullDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = true
	return nil
}

func (d *nullDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running = false
	return nil
}

func (d *nullDevice) Uninit() {
	d.doneOnce.Do(func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()

		close(d.done)
	})
	d.wg.Wait()
}

func (d *nullDevice) SampleRate() uint32 {
	return d.sampleRate
}

func (d *nullDevice) Channels() uint32 {
	return d.channels
}
