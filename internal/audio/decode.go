package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"kisan-voice-client/internal/service/capture"
)

// ErrUnsupportedFormat is returned for audio that is neither WAV nor MP3.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// DecodeMP3 decodes an MP3 stream to 16-bit little-endian stereo PCM.
func DecodeMP3(data []byte) ([]byte, capture.Format, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, capture.Format{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	pcm, err := io.ReadAll(d)
	if err != nil {
		return nil, capture.Format{}, fmt.Errorf("decode mp3: %w", err)
	}
	return pcm, capture.Format{SampleRateHz: d.SampleRate(), Channels: 2, BitsPerSample: 16}, nil
}

// Decode sniffs data and decodes WAV or MP3 to PCM.
func Decode(data []byte) ([]byte, capture.Format, error) {
	if IsWAV(data) {
		return DecodeWAV(bytes.NewReader(data))
	}
	return DecodeMP3(data)
}
