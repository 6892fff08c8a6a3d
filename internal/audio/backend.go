package audio

import (
	"errors"
)

// Errors reported by the device lifecycle. Each failure returned from this
// package wraps exactly one of these; test with errors.Is.
var (
	ErrLoggingInit     = errors.New("unable to initialize audio logging")
	ErrContextInit     = errors.New("unable to initialize audio context")
	ErrContextClosed   = errors.New("audio context is closed")
	ErrEnumeration     = errors.New("unable to query output devices")
	ErrUnaddressable   = errors.New("listed device has no identifier")
	ErrInvalidOptions  = errors.New("invalid device options")
	ErrDeviceOpen      = errors.New("unable to open playback device")
	ErrDeviceStart     = errors.New("unable to start playback device")
	ErrDeviceStop      = errors.New("unable to stop playback device")
	ErrDeviceDestroyed = errors.New("playback device is destroyed")

	ErrBackendNotAvailable = errors.New("audio backend not available")
)

// LogProc receives log lines from a native backend
type LogProc func(severity LogSeverity, message string)

// DataProc is what a native device calls from its real-time thread. output
// holds frameCount frames of interleaved 32-bit float samples.
type DataProc func(output []byte, frameCount uint32)

// Backend is a platform audio subsystem capable of playback.
// Implementations handle the actual hardware I/O (malgo, oto, null).
type Backend interface {
	// Name identifies the backend in logs and configuration
	Name() string

	// InitContext initializes the native subsystem. logProc stays valid for
	// the lifetime of the returned context.
	InitContext(logProc LogProc) (NativeContext, error)
}

// NativeContext is an initialized backend
type NativeContext interface {
	// PlaybackDevices lists playback devices in native order
	PlaybackDevices() ([]NativeDeviceInfo, error)

	// InitPlaybackDevice creates a stopped device delivering f32 samples to proc
	InitPlaybackDevice(config NativeDeviceConfig, proc DataProc) (NativeDevice, error)

	// Uninit releases the native subsystem
	Uninit() error
}

// NativeDeviceInfo is one entry of a native device list
type NativeDeviceInfo struct {
	Name      string
	ID        []byte
	IsDefault bool
}

// NativeDeviceConfig is the request handed to a backend. Zero values ask for
// whatever the device prefers; a nil DeviceID selects the platform default.
type NativeDeviceConfig struct {
	DeviceID   []byte
	Channels   uint32
	SampleRate uint32
}

// NativeDevice is an initialized playback device
type NativeDevice interface {
	Start() error
	Stop() error
	Uninit()

	// SampleRate and Channels report the negotiated values
	SampleRate() uint32
	Channels() uint32
}
