package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// PCM holds decoded audio samples and their format.
type PCM struct {
	Data       []byte // Raw PCM sample bytes
	SampleRate int
	Channels   int
	BitDepth   int
}

var (
	// ErrNotWAV is returned when the data has no RIFF/WAVE header.
	ErrNotWAV = errors.New("not a WAV file")

	// ErrUnsupportedWAV is returned for compressed or non-PCM formats.
	ErrUnsupportedWAV = errors.New("unsupported WAV format")
)

// DecodeWAV extracts PCM samples from a WAV file. Only uncompressed
// 8/16-bit PCM is supported, which covers both synthesis backends.
func DecodeWAV(data []byte) (*PCM, error) {
	if len(data) < 44 ||
		string(data[0:4]) != "RIFF" ||
		string(data[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var out PCM

	// Walk the chunk list; fmt must precede data.
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: short fmt chunk", ErrUnsupportedWAV)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 { // PCM
				return nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedWAV, format)
			}
			out.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			out.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			out.BitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			if out.SampleRate == 0 {
				return nil, fmt.Errorf("%w: data before fmt", ErrUnsupportedWAV)
			}
			out.Data = data[body : body+size]
			if out.BitDepth != 8 && out.BitDepth != 16 {
				return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedWAV, out.BitDepth)
			}
			return &out, nil
		}

		// Chunks are word-aligned.
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	return nil, fmt.Errorf("%w: no data chunk", ErrUnsupportedWAV)
}

// ScaleVolume applies a volume multiplier to 16-bit little-endian PCM
// samples in place, clamping at the sample range. A volume of 1 is a no-op.
func ScaleVolume(data []byte, volume float64) {
	if volume == 1.0 {
		return
	}
	for i := 0; i+1 < len(data); i += 2 {
		s := int32(int16(binary.LittleEndian.Uint16(data[i : i+2])))
		s = int32(float64(s) * volume)
		if s > 32767 {
			s = 32767
		} else if s < -32768 {
			s = -32768
		}
		binary.LittleEndian.PutUint16(data[i:i+2], uint16(int16(s)))
	}
}

// EncodeWAV wraps PCM samples in a minimal RIFF header. Used by engines
// whose downstream wants a self-describing blob.
func EncodeWAV(p *PCM) []byte {
	dataLen := len(p.Data)
	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(p.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(p.SampleRate))
	byteRate := p.SampleRate * p.Channels * p.BitDepth / 8
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	blockAlign := p.Channels * p.BitDepth / 8
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(p.BitDepth))

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))
	copy(buf[44:], p.Data)

	return buf
}

// Duration computes the playback duration of the samples in nanoseconds.
func (p *PCM) Duration() int64 {
	bytesPerSecond := p.SampleRate * p.Channels * p.BitDepth / 8
	if bytesPerSecond == 0 {
		return 0
	}
	return int64(len(p.Data)) * int64(1e9) / int64(bytesPerSecond)
}
