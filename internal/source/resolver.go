package source

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
)

// Resolver finds sound files whose extension may be omitted
type Resolver struct {
	fs         afero.Fs
	extensions []string
}

// NewResolver tries extensions in the given order; a missing dot is added
func NewResolver(fs afero.Fs, extensions []string) *Resolver {
	exts := make([]string, len(extensions))
	for i, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[i] = ext
	}
	return &Resolver{fs: fs, extensions: exts}
}

// Resolve returns path when it names a regular file, otherwise the first
// path+extension that does
func (r *Resolver) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrNotFound)
	}

	if r.isFile(path) {
		return path, nil
	}
	for _, ext := range r.extensions {
		if candidate := path + ext; r.isFile(candidate) {
			slog.Debug("sound file resolved", "path", path, "resolved", candidate)
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Extensions returns the normalized extensions in priority order
func (r *Resolver) Extensions() []string {
	return r.extensions
}

func (r *Resolver) isFile(path string) bool {
	info, err := r.fs.Stat(path)
	return err == nil && !info.IsDir()
}
