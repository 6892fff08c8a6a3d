package audio

import (
	"encoding/hex"
	"fmt"
	"log/slog"
)

// DeviceID is an opaque, backend-defined device identifier. It is only
// meaningful when passed back to the backend that produced it. The zero value
// means "platform default".
type DeviceID struct {
	raw string
}

// NewDeviceID copies b into a new identifier
func NewDeviceID(b []byte) DeviceID {
	return DeviceID{raw: string(b)}
}

// ParseDeviceID decodes the hex form produced by String
func ParseDeviceID(s string) (DeviceID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return DeviceID{}, fmt.Errorf("invalid device id %q: %w", s, err)
	}
	return NewDeviceID(b), nil
}

// IsZero reports whether the identifier selects the platform default
func (id DeviceID) IsZero() bool {
	return id.raw == ""
}

// Bytes returns a fresh copy of the identifier blob
func (id DeviceID) Bytes() []byte {
	if id.raw == "" {
		return nil
	}
	return []byte(id.raw)
}

// String returns the identifier as lower-case hex
func (id DeviceID) String() string {
	return hex.EncodeToString([]byte(id.raw))
}

// MarshalText implements encoding.TextMarshaler
func (id DeviceID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (id *DeviceID) UnmarshalText(text []byte) error {
	parsed, err := ParseDeviceID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// DeviceDescriptor describes one playback device. All fields are independent
// copies, so a visitor may keep the descriptor after it returns.
type DeviceDescriptor struct {
	Name              string   `json:"name"`
	ID                DeviceID `json:"id"`
	IsPlatformDefault bool     `json:"is_platform_default"`
}

// Visitor is invoked synchronously once per enumerated device
type Visitor func(desc DeviceDescriptor)

// EnumerationResult reports what an enumeration delivered. Partial is set
// when a listed entry could not be turned into a descriptor and enumeration
// stopped there; Cause then holds that failure. A partial enumeration is
// still a success.
type EnumerationResult struct {
	Delivered int
	Partial   bool
	Cause     error
}

// EnumerateOutputDevices reports each playback device to visit in the order
// the backend lists them. It fails only when the device list itself cannot be
// queried; zero devices is a success with visit never called.
//
// The visitor runs after the native query has finished, so it may call back
// into the Context, including opening a device.
func (c *Context) EnumerateOutputDevices(visit Visitor) (EnumerationResult, error) {
	var (
		result      EnumerationResult
		descriptors []DeviceDescriptor
	)

	err := c.shared(func() error {
		slog.Debug("enumerating output devices", "backend", c.backend.Name())

		devices, err := c.native.PlaybackDevices()
		if err != nil {
			slog.Error("failed to query output devices", "error", err)
			return fmt.Errorf("%w: %w", ErrEnumeration, err)
		}

		descriptors = make([]DeviceDescriptor, 0, len(devices))
		for i, entry := range devices {
			desc, err := newDescriptor(entry)
			if err != nil {
				slog.Warn("stopping enumeration at unusable device entry",
					"index", i,
					"described", len(descriptors),
					"error", err)
				result.Partial = true
				result.Cause = err
				break
			}
			descriptors = append(descriptors, desc)
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	for _, desc := range descriptors {
		if visit != nil {
			visit(desc)
		}
		result.Delivered++
	}

	c.metrics.enumeration(result.Partial)
	slog.Info("output devices enumerated",
		"backend", c.backend.Name(),
		"delivered", result.Delivered,
		"partial", result.Partial)

	return result, nil
}

// OutputDevices collects the enumeration into a slice
func (c *Context) OutputDevices() ([]DeviceDescriptor, EnumerationResult, error) {
	var out []DeviceDescriptor
	result, err := c.EnumerateOutputDevices(func(desc DeviceDescriptor) {
		out = append(out, desc)
	})
	return out, result, err
}

// newDescriptor copies a listed entry so nothing aliases backend memory.
// The default flag is taken from the list as reported.
func newDescriptor(info NativeDeviceInfo) (DeviceDescriptor, error) {
	if len(info.ID) == 0 {
		return DeviceDescriptor{}, fmt.Errorf("%w: %q", ErrUnaddressable, info.Name)
	}
	return DeviceDescriptor{
		Name:              string([]byte(info.Name)),
		ID:                NewDeviceID(info.ID),
		IsPlatformDefault: info.IsDefault,
	}, nil
}
