package source

import (
	"bytes"
	"fmt"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

// AIFF decodes uncompressed AIFF files
var AIFF = Format{
	Name:       "AIFF",
	Extensions: []string{".aiff", ".aif"},
	MIMETypes:  []string{"audio/aiff"},
	Decode:     decodeAIFF,
}

func decodeAIFF(data []byte) (*Clip, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty AIFF file", ErrInvalidData)
	}

	d := aiff.NewDecoder(bytes.NewReader(data))
	d.ReadInfo()
	if !d.IsValidFile() || d.Format() == nil {
		return nil, fmt.Errorf("%w: not an AIFF file", ErrInvalidData)
	}

	bits := int(d.SampleBitDepth())
	if bits == 0 {
		return nil, fmt.Errorf("%w: AIFF header has no bit depth", ErrInvalidData)
	}
	if err := checkBitDepth("AIFF", bits); err != nil {
		return nil, err
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: AIFF samples: %v", ErrReadFailure, err)
	}
	if buf == nil {
		return nil, fmt.Errorf("%w: AIFF file holds no audio", ErrInvalidData)
	}

	return newClip("AIFF", uint32(d.NumChans), uint32(d.SampleRate), normalizeInts(buf, bits))
}

// normalizeInts maps integer PCM of the given depth onto float32
func normalizeInts(buf *audio.IntBuffer, bits int) []float32 {
	scale := pcmScale(bits)
	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / scale
	}
	return out
}
