// Package audio converts between raw PCM and WAV containers.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/wav"

	"kisan-voice-client/internal/service/capture"
)

// ErrInvalidWAV is returned for files that are not PCM WAV.
var ErrInvalidWAV = errors.New("invalid WAV file")

const wavHeaderSize = 44

// EncodeWAV wraps little-endian PCM in a canonical 44-byte RIFF header.
func EncodeWAV(pcm []byte, f capture.Format) []byte {
	blockAlign := f.Channels * f.BitsPerSample / 8
	byteRate := f.SampleRateHz * blockAlign

	buf := make([]byte, wavHeaderSize+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(f.SampleRateHz))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(f.BitsPerSample))
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[wavHeaderSize:], pcm)
	return buf
}

// DecodeWAV reads a PCM WAV file and returns its sample data and format.
func DecodeWAV(r io.ReadSeeker) ([]byte, capture.Format, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, capture.Format{}, ErrInvalidWAV
	}
	if d.WavAudioFormat != 1 {
		return nil, capture.Format{}, fmt.Errorf("%w: audio format %d is not PCM", ErrInvalidWAV, d.WavAudioFormat)
	}
	if err := d.FwdToPCM(); err != nil {
		return nil, capture.Format{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if d.PCMChunk == nil {
		return nil, capture.Format{}, fmt.Errorf("%w: no data chunk", ErrInvalidWAV)
	}

	pcm, err := io.ReadAll(d.PCMChunk)
	if err != nil {
		return nil, capture.Format{}, fmt.Errorf("read PCM: %w", err)
	}

	return pcm, capture.Format{
		SampleRateHz:  int(d.SampleRate),
		Channels:      int(d.NumChans),
		BitsPerSample: int(d.BitDepth),
	}, nil
}

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE"))
}

// Int16ToBytes packs samples as little-endian PCM.
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// BytesToInt16 unpacks little-endian PCM. A trailing odd byte is dropped.
func BytesToInt16(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return out
}

// Duration returns the play time of n bytes of PCM in format f.
func Duration(n int, f capture.Format) time.Duration {
	bytesPerSec := f.SampleRateHz * f.Channels * f.BitsPerSample / 8
	if bytesPerSec <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bytesPerSec)
}

// ChunkSize returns the byte length of d worth of PCM in format f, rounded
// down to whole frames.
func ChunkSize(d time.Duration, f capture.Format) int {
	frame := f.Channels * f.BitsPerSample / 8
	if frame <= 0 {
		return 0
	}
	frames := int(int64(f.SampleRateHz) * int64(d) / int64(time.Second))
	return frames * frame
}
