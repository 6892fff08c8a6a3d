// Package fs hands out the afero filesystems syzaudio reads configuration
// and sound files from.
package fs

import (
	"github.com/spf13/afero"
)

// Factory builds the filesystems used by the CLI and its tests
type Factory interface {
	// Production is the host filesystem
	Production() afero.Fs
	// Memory is an empty in-memory filesystem
	Memory() afero.Fs
	// ReadOnly wraps base so that writes fail
	ReadOnly(base afero.Fs) afero.Fs
}

type DefaultFactory struct{}

func NewDefaultFactory() Factory {
	return &DefaultFactory{}
}

func (f *DefaultFactory) Production() afero.Fs {
	return afero.NewOsFs()
}

func (f *DefaultFactory) Memory() afero.Fs {
	return afero.NewMemMapFs()
}

// ReadOnly is the view playback loads sounds through; nothing on the sound
// path is ever written
func (f *DefaultFactory) ReadOnly(base afero.Fs) afero.Fs {
	return afero.NewReadOnlyFs(base)
}
