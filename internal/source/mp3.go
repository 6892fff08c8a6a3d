package source

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// MP3 decodes MPEG-1/2 layer III files
var MP3 = Format{
	Name:       "MP3",
	Extensions: []string{".mp3", ".mpeg"},
	MIMETypes:  []string{"audio/mpeg"},
	Decode:     decodeMP3,
}

// go-mp3 always yields 16-bit little-endian stereo
const mp3Channels = 2

func decodeMP3(data []byte) (*Clip, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: MP3 stream: %v", ErrInvalidData, err)
	}
	if d.SampleRate() <= 0 {
		return nil, fmt.Errorf("%w: MP3 sample rate %d", ErrInvalidData, d.SampleRate())
	}

	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("%w: MP3 frames: %v", ErrReadFailure, err)
	}

	scale := pcmScale(16)
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(pcm[2*i:]))) / scale
	}

	return newClip("MP3", mp3Channels, uint32(d.SampleRate()), samples)
}
