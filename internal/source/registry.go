package source

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// Registry picks the format for a file by its content, falling back to its
// name. Formats registered first win ties.
type Registry struct {
	formats []Format
}

// NewRegistry returns a registry holding formats, skipping invalid ones
func NewRegistry(formats ...Format) *Registry {
	r := &Registry{}
	for _, f := range formats {
		if err := r.Register(f); err != nil {
			slog.Warn("skipping sound format", "format", f.Name, "error", err)
		}
	}
	return r
}

// DefaultRegistry knows WAV, MP3 and AIFF
func DefaultRegistry() *Registry {
	return NewRegistry(WAV, MP3, AIFF)
}

// Register appends a format
func (r *Registry) Register(f Format) error {
	switch {
	case f.Name == "":
		return errors.New("format has no name")
	case f.Decode == nil:
		return fmt.Errorf("format %s has no decoder", f.Name)
	}
	r.formats = append(r.formats, f)
	return nil
}

// Names lists the registered formats in priority order
func (r *Registry) Names() []string {
	names := make([]string, len(r.formats))
	for i, f := range r.formats {
		names[i] = f.Name
	}
	return names
}

// Extensions returns every claimed extension once, in priority order
func (r *Registry) Extensions() []string {
	var exts []string
	seen := make(map[string]struct{})
	for _, f := range r.formats {
		for _, ext := range f.Extensions {
			if _, dup := seen[ext]; dup {
				continue
			}
			seen[ext] = struct{}{}
			exts = append(exts, ext)
		}
	}
	return exts
}

// ForName returns the first format claiming filename's extension
func (r *Registry) ForName(filename string) (Format, bool) {
	for _, f := range r.formats {
		if f.Claims(filename) {
			return f, true
		}
	}
	return Format{}, false
}

// Sniff identifies data by its magic bytes and consults the name only when
// the content is not recognized
func (r *Registry) Sniff(filename string, data []byte) (Format, bool) {
	if len(data) > 0 {
		detected := mimetype.Detect(data)
		for _, f := range r.formats {
			for _, mime := range f.MIMETypes {
				if detected.Is(mime) {
					slog.Debug("sound format sniffed",
						"filename", filename,
						"format", f.Name,
						"mime", detected.String())
					return f, true
				}
			}
		}
	}
	return r.ForName(filename)
}

// Decode decodes a complete file's bytes
func (r *Registry) Decode(filename string, data []byte) (*Clip, error) {
	f, ok := r.Sniff(filename, data)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}

	clip, err := f.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return clip, nil
}

// Load reads path from fs and decodes it
func (r *Registry) Load(fs afero.Fs, path string) (*Clip, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sound file: %w", err)
	}

	clip, err := r.Decode(path, data)
	if err != nil {
		return nil, err
	}
	slog.Info("sound file loaded",
		"path", path,
		"frames", clip.Frames(),
		"channels", clip.Channels,
		"sample_rate", clip.SampleRate)
	return clip, nil
}
