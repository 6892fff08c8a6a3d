package source

import "encoding/binary"

// fakeFormat decodes anything into clip, or fails when clip is nil
func fakeFormat(name string, clip *Clip, exts ...string) Format {
	return Format{
		Name:       name,
		Extensions: exts,
		Decode: func([]byte) (*Clip, error) {
			if clip == nil {
				return nil, ErrInvalidData
			}
			return clip, nil
		},
	}
}

// generateTestWAV builds a 16-bit PCM WAV holding the interleaved samples
func generateTestWAV(channels, sampleRate int, samples []int16) []byte {
	le16 := func(b []byte, v uint16) []byte { return binary.LittleEndian.AppendUint16(b, v) }
	le32 := func(b []byte, v uint32) []byte { return binary.LittleEndian.AppendUint32(b, v) }

	dataSize := len(samples) * 2
	blockAlign := channels * 2

	wav := make([]byte, 0, 44+dataSize)
	wav = append(wav, "RIFF"...)
	wav = le32(wav, uint32(36+dataSize))
	wav = append(wav, "WAVE"...)

	wav = append(wav, "fmt "...)
	wav = le32(wav, 16)
	wav = le16(wav, 1) // PCM
	wav = le16(wav, uint16(channels))
	wav = le32(wav, uint32(sampleRate))
	wav = le32(wav, uint32(sampleRate*blockAlign))
	wav = le16(wav, uint16(blockAlign))
	wav = le16(wav, 16)

	wav = append(wav, "data"...)
	wav = le32(wav, uint32(dataSize))
	for _, s := range samples {
		wav = le16(wav, uint16(s))
	}
	return wav
}

// createMinimalAiffFile builds a silent AIFF file
func createMinimalAiffFile(sampleRate, channels, bitDepth, numFrames int) []byte {
	be16 := func(b []byte, v uint16) []byte { return binary.BigEndian.AppendUint16(b, v) }
	be32 := func(b []byte, v uint32) []byte { return binary.BigEndian.AppendUint32(b, v) }

	dataSize := numFrames * channels * bitDepth / 8

	comm := make([]byte, 0, 18)
	comm = be16(comm, uint16(channels))
	comm = be32(comm, uint32(numFrames))
	comm = be16(comm, uint16(bitDepth))
	comm = append(comm, ieeeExtended(sampleRate)...)

	// offset and block size, then silence
	ssnd := make([]byte, 8+dataSize)

	total := 4 + 8 + len(comm) + 8 + len(ssnd)

	var buf []byte
	buf = append(buf, "FORM"...)
	buf = be32(buf, uint32(total))
	buf = append(buf, "AIFF"...)
	buf = append(buf, "COMM"...)
	buf = be32(buf, uint32(len(comm)))
	buf = append(buf, comm...)
	buf = append(buf, "SSND"...)
	buf = be32(buf, uint32(len(ssnd)))
	buf = append(buf, ssnd...)
	return buf
}

// ieeeExtended encodes a positive integer rate as an 80-bit float
func ieeeExtended(rate int) []byte {
	out := make([]byte, 10)
	if rate <= 0 {
		return out
	}
	exp := 0
	for v := rate; v > 1; v >>= 1 {
		exp++
	}
	binary.BigEndian.PutUint16(out[0:], uint16(16383+exp))
	binary.BigEndian.PutUint64(out[2:], uint64(rate)<<(63-exp))
	return out
}
