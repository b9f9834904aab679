// Package playback plays WAV or MP3 audio on the default output device.
package playback

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"kisan-voice-client/internal/audio"
	"kisan-voice-client/internal/observability/logging"
)

const framesPerBuffer = 1024

// Player implements speech.Player through PortAudio. Plays are serialized.
type Player struct {
	mu sync.Mutex
}

// Open initializes PortAudio. Call Close when done.
func Open() (*Player, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("init audio output: %w", err)
	}
	return &Player{}, nil
}

// Close terminates PortAudio.
func (p *Player) Close() error {
	return portaudio.Terminate()
}

// Play decodes data and blocks until it has played or ctx ends.
func (p *Player) Play(ctx context.Context, data []byte) error {
	pcm, format, err := audio.Decode(data)
	if err != nil {
		return err
	}
	if format.BitsPerSample != 16 {
		return fmt.Errorf("%w: %d-bit audio", audio.ErrUnsupportedFormat, format.BitsPerSample)
	}
	samples := audio.BytesToInt16(pcm)

	p.mu.Lock()
	defer p.mu.Unlock()

	buf := make([]int16, framesPerBuffer*format.Channels)
	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRateHz), framesPerBuffer, buf)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start output: %w", err)
	}
	defer stream.Stop()

	logger := logging.WithComponent("playback")
	logger.Debug().
		Int("sampleRate", format.SampleRateHz).
		Int("channels", format.Channels).
		Dur("duration", audio.Duration(len(pcm), format)).
		Msg("Playing audio")

	for off := 0; off < len(samples); off += len(buf) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(buf, samples[off:])
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		if err := stream.Write(); err != nil && err != portaudio.OutputUnderflowed {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}
