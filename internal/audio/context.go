package audio

import (
	"fmt"
	"log/slog"
	"sync"
)

// Context is an initialized backend. It must outlive every enumeration and
// every PlaybackDevice opened through it. Contexts are independent of each
// other; Close is optional and only needed for explicit teardown.
type Context struct {
	backend Backend
	native  NativeContext
	bridge  *LogBridge
	metrics *Metrics
	devices *deviceRegistry

	// mu serializes native calls: most take the read lock, device open and
	// teardown are exclusive
	mu     sync.RWMutex
	closed bool
}

// ContextOption configures NewContext
type ContextOption func(*Context)

// WithMetrics reports context activity to m
func WithMetrics(m *Metrics) ContextOption {
	return func(c *Context) {
		c.metrics = m
	}
}

// NewContext initializes backend with log output routed through bridge.
// InitLogging must have succeeded first.
func NewContext(backend Backend, bridge *LogBridge, opts ...ContextOption) (*Context, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: no backend", ErrContextInit)
	}
	if bridge == nil {
		return nil, fmt.Errorf("%w: logging is not initialized", ErrContextInit)
	}

	c := &Context{
		backend: backend,
		bridge:  bridge,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.devices = newDeviceRegistry(c.metrics)
	bridge.attachMetrics(c.metrics)

	slog.Debug("initializing audio context", "backend", backend.Name())

	native, err := backend.InitContext(bridge.logProc())
	if err != nil {
		slog.Error("failed to initialize audio context", "backend", backend.Name(), "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrContextInit, backend.Name(), err)
	}
	c.native = native

	slog.Info("audio context initialized successfully", "backend", backend.Name())
	return c, nil
}

// BackendName returns the name of the backend this context drives
func (c *Context) BackendName() string {
	return c.backend.Name()
}

// IsValid reports whether the context is usable
func (c *Context) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// OpenDevices returns how many playback devices are currently open
func (c *Context) OpenDevices() int {
	return c.devices.len()
}

// Close destroys every device still open and releases the native context.
// Closing twice is not an error.
func (c *Context) Close() error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		slog.Debug("audio context already closed")
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	slog.Debug("closing audio context", "backend", c.backend.Name())

	// No device can be opened past this point
	for _, d := range c.devices.snapshot() {
		slog.Warn("destroying playback device left open at context close", "handle", d.handle)
		d.Destroy()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.native.Uninit(); err != nil {
		slog.Error("failed to uninitialize audio context", "error", err)
		return fmt.Errorf("failed to uninitialize audio context: %w", err)
	}

	slog.Info("audio context closed successfully", "backend", c.backend.Name())
	return nil
}

// shared runs fn under the read lock unless the context is closed
func (c *Context) shared(fn func() error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrContextClosed
	}
	return fn()
}

// exclusive runs fn with no other native call in flight
func (c *Context) exclusive(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrContextClosed
	}
	return fn()
}
