//go:build !cgo

package audio

import (
	"errors"
	"log/slog"
)

var errCGORequired = errors.New(`the malgo and oto audio backends require CGO support.

This error occurs when using a binary built without CGO enabled.

To fix this issue:
1. Ensure CGO_ENABLED=1 (this is the default for native builds)
2. Install a C compiler:
   - Linux: sudo apt-get install build-essential
   - macOS: xcode-select --install
   - Windows: Install MinGW or Visual Studio Build Tools
3. Rebuild, or select the "null" backend to run without audio hardware

For more information, see: https://pkg.go.dev/cmd/cgo`)

// cgoEnabled tells the backend factory whether hardware backends exist
const cgoEnabled = false

// MalgoBackend is unavailable without cgo
type MalgoBackend struct{}

// NewMalgoBackend returns a backend whose context init always fails
func NewMalgoBackend() *MalgoBackend {
	slog.Debug("creating stub MalgoBackend (built without cgo)")
	return &MalgoBackend{}
}

// Name implements Backend
func (b *MalgoBackend) Name() string {
	return "malgo"
}

// InitContext implements Backend
func (b *MalgoBackend) InitContext(LogProc) (NativeContext, error) {
	return nil, errors.Join(ErrBackendNotAvailable, errCGORequired)
}

// OtoBackend is unavailable without cgo
type OtoBackend struct{}

// NewOtoBackend returns a backend whose context init always fails
func NewOtoBackend() *OtoBackend {
	slog.Debug("creating stub OtoBackend (built without cgo)")
	return &OtoBackend{}
}

// Name implements Backend
func (b *OtoBackend) Name() string {
	return "oto"
}

// InitContext implements Backend
func (b *OtoBackend) InitContext(LogProc) (NativeContext, error) {
	return nil, errors.Join(ErrBackendNotAvailable, errCGORequired)
}
