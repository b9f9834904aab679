// Package file replays a WAV file as a capture device.
package file

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"kisan-voice-client/internal/audio"
	"kisan-voice-client/internal/service/capture"
)

// DefaultChunkDuration matches a typical microphone callback.
const DefaultChunkDuration = 100 * time.Millisecond

// Device is a capture.Device that plays back decoded PCM.
type Device struct {
	pcm    []byte
	format capture.Format

	// ChunkDuration is the audio length of each delivered chunk.
	ChunkDuration time.Duration
	// Realtime paces delivery at the audio's own rate.
	Realtime bool

	mu  sync.Mutex
	eof chan struct{}
}

// Open decodes the WAV file at path.
func Open(path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", capture.ErrDeviceUnavailable, err)
	}
	defer f.Close()

	pcm, format, err := audio.DecodeWAV(f)
	if err != nil {
		return nil, err
	}
	return New(pcm, format), nil
}

// New creates a device over raw PCM.
func New(pcm []byte, format capture.Format) *Device {
	return &Device{
		pcm:           pcm,
		format:        format,
		ChunkDuration: DefaultChunkDuration,
		Realtime:      true,
		eof:           make(chan struct{}),
	}
}

// Format returns the PCM format of the file.
func (d *Device) Format() capture.Format {
	return d.format
}

// Duration returns the play time of the file.
func (d *Device) Duration() time.Duration {
	return audio.Duration(len(d.pcm), d.format)
}

// EOF is closed once the most recent stream delivered its last chunk.
func (d *Device) EOF() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.eof
}

// Acquire implements capture.Device.
func (d *Device) Acquire(ctx context.Context, sink capture.Sink) (capture.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	size := audio.ChunkSize(d.ChunkDuration, d.format)
	if size <= 0 {
		size = len(d.pcm)
	}

	eof := make(chan struct{})
	d.mu.Lock()
	d.eof = eof
	d.mu.Unlock()

	s := &stream{stop: make(chan struct{})}
	go s.play(d.pcm, size, d.ChunkDuration, d.Realtime, sink, eof)
	return s, nil
}

type stream struct {
	stop chan struct{}
	once sync.Once
}

func (s *stream) play(pcm []byte, size int, interval time.Duration, realtime bool, sink capture.Sink, eof chan struct{}) {
	defer close(eof)

	var tick <-chan time.Time
	if realtime {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}

	for off := 0; off < len(pcm); off += size {
		end := off + size
		if end > len(pcm) {
			end = len(pcm)
		}
		select {
		case <-s.stop:
			return
		default:
		}
		sink.OnData(pcm[off:end])

		if tick != nil {
			select {
			case <-tick:
			case <-s.stop:
				return
			}
		}
	}
}

// Release implements capture.Stream.
func (s *stream) Release() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}
