package audio

import (
	"errors"
	"sync"
)

var (
	errFakeInit     = errors.New("fake init failure")
	errFakeList     = errors.New("fake list failure")
	errFakeBusy     = errors.New("fake device busy")
	errFakeOpen     = errors.New("fake open failure")
	errFakeStart    = errors.New("fake start failure")
	errFakeStop     = errors.New("fake stop failure")
)

// fakeBackend is a scripted backend whose devices only render when a test
// asks them to
type fakeBackend struct {
	mu sync.Mutex

	initErr error
	listErr error
	openErr error
	devices []NativeDeviceInfo
	// busy IDs are listed but refuse to open, like exclusive-mode hardware
	busy map[string]bool

	// negotiate maps a request to the values the "hardware" accepts
	negotiate func(NativeDeviceConfig) (rate, channels uint32)

	opened  []*fakeDevice
	uninits int
}

func newFakeBackend(devices ...NativeDeviceInfo) *fakeBackend {
	return &fakeBackend{
		devices: devices,
		negotiate: func(c NativeDeviceConfig) (uint32, uint32) {
			rate, channels := c.SampleRate, c.Channels
			if rate == 0 {
				rate = 44100
			}
			if channels == 0 {
				channels = 2
			}
			return rate, channels
		},
	}
}

func (b *fakeBackend) Name() string {
	return "fake"
}

func (b *fakeBackend) InitContext(logProc LogProc) (NativeContext, error) {
	if b.initErr != nil {
		logProc(SeverityError, "fake context refused to start")
		return nil, b.initErr
	}
	logProc(SeverityInfo, "fake context started")
	return &fakeContext{backend: b, log: logProc}, nil
}

func (b *fakeBackend) lastDevice() *fakeDevice {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.opened) == 0 {
		return nil
	}
	return b.opened[len(b.opened)-1]
}

type fakeContext struct {
	backend *fakeBackend
	log     LogProc
}

func (c *fakeContext) PlaybackDevices() ([]NativeDeviceInfo, error) {
	if c.backend.listErr != nil {
		return nil, c.backend.listErr
	}
	return c.backend.devices, nil
}

func (c *fakeContext) InitPlaybackDevice(config NativeDeviceConfig, proc DataProc) (NativeDevice, error) {
	if c.backend.openErr != nil {
		return nil, c.backend.openErr
	}
	if c.backend.busy[string(config.DeviceID)] {
		return nil, errFakeBusy
	}
	rate, channels := c.backend.negotiate(config)
	d := &fakeDevice{
		proc:       proc,
		requested:  config,
		sampleRate: rate,
		channels:   channels,
	}

	c.backend.mu.Lock()
	c.backend.opened = append(c.backend.opened, d)
	c.backend.mu.Unlock()
	return d, nil
}

func (c *fakeContext) Uninit() error {
	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	c.backend.uninits++
	return nil
}

type fakeDevice struct {
	mu sync.Mutex

	proc       DataProc
	requested  NativeDeviceConfig
	sampleRate uint32
	channels   uint32

	startErr error
	stopErr  error
	started  bool
	uninits  int
}

func (d *fakeDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.startErr != nil {
		return d.startErr
	}
	d.started = true
	return nil
}

func (d *fakeDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopErr != nil {
		return d.stopErr
	}
	d.started = false
	return nil
}

func (d *fakeDevice) Uninit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = false
	d.uninits++
}

func (d *fakeDevice) SampleRate() uint32 {
	return d.sampleRate
}

func (d *fakeDevice) Channels() uint32 {
	return d.channels
}

// render plays the hardware clock for one period, regardless of state,
// and returns what the proc wrote. The buffer starts filled with a marker
// so that untouched samples are visible.
func (d *fakeDevice) render(frames uint32) []float32 {
	buf := make([]byte, int(frames)*int(d.channels)*4)
	out := asFloat32(buf)
	for i := range out {
		out[i] = -42
	}
	d.proc(buf, frames)
	return out
}

// recordingSinks captures every routed message per sink
type recordingSinks struct {
	mu       sync.Mutex
	received map[string][]string
}

func newRecordingSinks() *recordingSinks {
	return &recordingSinks{received: make(map[string][]string)}
}

func (r *recordingSinks) sink(name string) LogSink {
	return func(message string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.received[name] = append(r.received[name], message)
	}
}

func (r *recordingSinks) get(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.received[name]...)
}

// newTestContext builds a context over backend with only an error sink
func newTestContext(t interface {
	Helper()
	Fatalf(string, ...any)
	Cleanup(func())
}, backend Backend, opts ...ContextOption) *Context {
	t.Helper()

	bridge, err := InitLogging(LogSinks{Error: func(string) {}})
	if err != nil {
		t.Fatalf("InitLogging failed: %v", err)
	}
	ctx, err := NewContext(backend, bridge, opts...)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx
}
