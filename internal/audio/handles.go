package audio

import (
	"sync/atomic"
	"unsafe"

	"github.com/puzpuzpuz/xsync/v3"
)

// Handle is the index a native device carries instead of a pointer to its
// owning PlaybackDevice
type Handle uint64

// deviceRegistry resolves handles back to devices. Reads are lock-free so the
// real-time thread never waits on the control thread.
type deviceRegistry struct {
	next    atomic.Uint64
	devices *xsync.MapOf[Handle, *PlaybackDevice]
	metrics *Metrics
}

func newDeviceRegistry(metrics *Metrics) *deviceRegistry {
	return &deviceRegistry{
		devices: xsync.NewMapOf[Handle, *PlaybackDevice](),
		metrics: metrics,
	}
}

// reserve hands out a handle that resolves to nothing until bind
func (r *deviceRegistry) reserve() Handle {
	return Handle(r.next.Add(1))
}

func (r *deviceRegistry) bind(h Handle, d *PlaybackDevice) {
	r.devices.Store(h, d)
}

func (r *deviceRegistry) release(h Handle) {
	r.devices.Delete(h)
}

func (r *deviceRegistry) lookup(h Handle) (*PlaybackDevice, bool) {
	return r.devices.Load(h)
}

func (r *deviceRegistry) len() int {
	return r.devices.Size()
}

// snapshot returns the devices currently bound, in no particular order
func (r *deviceRegistry) snapshot() []*PlaybackDevice {
	out := make([]*PlaybackDevice, 0, r.devices.Size())
	r.devices.Range(func(_ Handle, d *PlaybackDevice) bool {
		out = append(out, d)
		return true
	})
	return out
}

// procFor builds the DataProc a backend calls for handle h. It captures the
// handle only.
func (r *deviceRegistry) procFor(h Handle) DataProc {
	return func(output []byte, frameCount uint32) {
		r.dispatch(h, output, frameCount)
	}
}

// dispatch runs on the backend's real-time thread: it forwards the request to
// the device owner's callback with frameCount*channels samples. It must not
// block, allocate or log.
func (r *deviceRegistry) dispatch(h Handle, output []byte, frameCount uint32) {
	d, ok := r.lookup(h)
	if !ok {
		r.metrics.registryMiss()
		clear(output)
		return
	}

	samples := asFloat32(output)
	want := int(frameCount) * int(d.config.Channels)
	if want < len(samples) {
		samples = samples[:want]
	}

	r.metrics.callback(frameCount)
	d.callback(samples, d.config)
}

// asFloat32 reinterprets a native f32 buffer without copying
func asFloat32(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}
