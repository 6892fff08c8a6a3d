package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/youpy/go-wav"
)

// WAV decodes integer PCM RIFF/WAVE files
var WAV = Format{
	Name:       "WAV",
	Extensions: []string{".wav", ".wave"},
	MIMETypes:  []string{"audio/wav"},
	Decode:     decodeWAV,
}

const wavFormatPCM = 1

func decodeWAV(data []byte) (*Clip, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty WAV file", ErrInvalidData)
	}

	// go-wav needs random access
	r := wav.NewReader(bytes.NewReader(data))
	header, err := r.Format()
	if err != nil {
		return nil, fmt.Errorf("%w: WAV header: %v", ErrInvalidData, err)
	}
	if header == nil {
		return nil, fmt.Errorf("%w: WAV file has no fmt chunk", ErrInvalidData)
	}
	if header.AudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: WAV encoding %d", ErrUnsupportedFormat, header.AudioFormat)
	}
	if err := checkBitDepth("WAV", int(header.BitsPerSample)); err != nil {
		return nil, err
	}

	channels := int(header.NumChannels)
	scale := pcmScale(int(header.BitsPerSample))

	var samples []float32
	for {
		frames, err := r.ReadSamples()
		if errors.Is(err, io.EOF) || (err == nil && len(frames) == 0) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: WAV samples: %v", ErrReadFailure, err)
		}

		for _, frame := range frames {
			for ch := 0; ch < channels; ch++ {
				// absent channels are silent
				var v int
				if ch < len(frame.Values) {
					v = frame.Values[ch]
				}
				samples = append(samples, float32(v)/scale)
			}
		}
	}

	return newClip("WAV", uint32(header.NumChannels), header.SampleRate, samples)
}
