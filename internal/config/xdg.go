package config

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
)

const appDir = "syzaudio"

// XDGDirs locates syzaudio's files under the XDG base directories
type XDGDirs struct {
	fs afero.Fs
}

// NewXDGDirs works on the OS filesystem
func NewXDGDirs() *XDGDirs {
	return NewXDGDirsWithFilesystem(afero.NewOsFs())
}

// NewXDGDirsWithFilesystem works on fs
func NewXDGDirsWithFilesystem(fs afero.Fs) *XDGDirs {
	return &XDGDirs{fs: fs}
}

// appPaths joins elems below the app directory of the user base, then of
// each system base
func appPaths(user string, system []string, elems ...string) []string {
	paths := make([]string, 0, 1+len(system))
	for _, base := range append([]string{user}, system...) {
		paths = append(paths, filepath.Join(append([]string{base, appDir}, elems...)...))
	}
	return paths
}

// GetSoundPaths lists the named-sound directories, user data first
func (x *XDGDirs) GetSoundPaths() []string {
	return appPaths(xdg.DataHome, xdg.DataDirs, "sounds")
}

// GetConfigPaths lists where filename may live, user config first
func (x *XDGDirs) GetConfigPaths(filename string) []string {
	return appPaths(xdg.ConfigHome, xdg.ConfigDirs, filename)
}

// GetCachePath is the cache directory for purpose, or the app cache root
// when purpose is empty
func (x *XDGDirs) GetCachePath(purpose string) string {
	return filepath.Join(xdg.CacheHome, appDir, purpose)
}

// CreateCacheDir makes sure the cache directory for purpose exists
func (x *XDGDirs) CreateCacheDir(purpose string) error {
	dir := x.GetCachePath(purpose)
	if err := x.fs.MkdirAll(dir, 0755); err != nil {
		slog.Error("failed to create cache directory", "path", dir, "error", err)
		return err
	}
	return nil
}

// FindSoundFile returns the first sound directory entry matching
// relativePath, or "" when there is none
func (x *XDGDirs) FindSoundFile(relativePath string) string {
	return findIn(x.fs, x.GetSoundPaths(), relativePath)
}

func findIn(fs afero.Fs, bases []string, relativePath string) string {
	rel := sanitizePath(relativePath)
	if rel == "" {
		return ""
	}

	for _, base := range bases {
		candidate := filepath.Join(base, rel)
		if _, err := fs.Stat(candidate); err == nil {
			slog.Debug("sound found in data directory", "name", rel, "path", candidate)
			return candidate
		}
	}
	return ""
}

// sanitizePath drops control characters and returns the cleaned path, or ""
// when it would escape its base directory
func sanitizePath(path string) string {
	path = strings.Map(func(r rune) rune {
		switch r {
		case 0, '\n', '\r':
			return -1
		}
		return r
	}, path)
	if path == "" {
		return ""
	}

	path = filepath.Clean(path)
	if path == "." || !filepath.IsLocal(path) {
		slog.Warn("rejecting sound path outside the data directories", "path", path)
		return ""
	}
	return path
}
