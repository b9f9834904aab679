// Package microphone captures 16-bit PCM from the default input device
// through PortAudio.
package microphone

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"

	"kisan-voice-client/internal/audio"
	"kisan-voice-client/internal/observability/logging"
	"kisan-voice-client/internal/service/capture"
)

const (
	// DefaultFramesPerBuffer is 64ms at 16 kHz.
	DefaultFramesPerBuffer = 1024

	pollInterval = 10 * time.Millisecond
	// maxReadErrors consecutive read failures end the capture.
	maxReadErrors = 50
)

// Config holds device settings.
type Config struct {
	SampleRateHz    int
	FramesPerBuffer int
}

// Device is a capture.Device backed by the default PortAudio input.
type Device struct {
	cfg Config
	log zerolog.Logger
}

// Open initializes PortAudio. Call Close when done with the device.
func Open(cfg Config) (*Device, error) {
	if cfg.SampleRateHz <= 0 {
		cfg.SampleRateHz = capture.DefaultFormat.SampleRateHz
	}
	if cfg.FramesPerBuffer <= 0 {
		cfg.FramesPerBuffer = DefaultFramesPerBuffer
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", capture.ErrDeviceUnavailable, err)
	}
	return &Device{cfg: cfg, log: logging.WithComponent("microphone")}, nil
}

// Format returns the PCM format the device produces.
func (d *Device) Format() capture.Format {
	return capture.Format{SampleRateHz: d.cfg.SampleRateHz, Channels: 1, BitsPerSample: 16}
}

// Close terminates PortAudio.
func (d *Device) Close() error {
	return portaudio.Terminate()
}

// Acquire implements capture.Device.
func (d *Device) Acquire(ctx context.Context, sink capture.Sink) (capture.Stream, error) {
	buf := make([]int16, d.cfg.FramesPerBuffer)
	ps, err := portaudio.OpenDefaultStream(1, 0, float64(d.cfg.SampleRateHz), d.cfg.FramesPerBuffer, buf)
	if err != nil {
		return nil, classify(err)
	}
	if err := ps.Start(); err != nil {
		ps.Close()
		return nil, classify(err)
	}

	s := &stream{
		ps:      ps,
		buf:     buf,
		sink:    sink,
		running: true,
		done:    make(chan struct{}),
		log:     d.log,
	}
	go s.loop()

	if err := ctx.Err(); err != nil {
		s.Release()
		return nil, err
	}
	d.log.Debug().Int("sampleRate", d.cfg.SampleRateHz).Msg("Microphone acquired")
	return s, nil
}

// classify maps PortAudio failures onto capture sentinels.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission") || strings.Contains(msg, "denied") || strings.Contains(msg, "not permitted") {
		return fmt.Errorf("%w: %v", capture.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", capture.ErrDeviceUnavailable, err)
}

// source is the part of a PortAudio stream the read loop uses.
type source interface {
	AvailableToRead() (int, error)
	Read() error
	Stop() error
	Close() error
}

type stream struct {
	ps   source
	buf  []int16
	sink capture.Sink
	log  zerolog.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
	once    sync.Once
}

func (s *stream) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// loop reads until released or until reads keep failing. A read failure is
// reported after done is closed, so the sink may Release from OnError.
func (s *stream) loop() {
	err := s.read()
	close(s.done)
	if err != nil && s.isRunning() {
		s.sink.OnError(err)
	}
}

func (s *stream) read() error {
	failures := 0
	for s.isRunning() {
		available, err := s.ps.AvailableToRead()
		if err != nil || available == 0 {
			time.Sleep(pollInterval)
			continue
		}

		if err := s.ps.Read(); err != nil {
			if err == portaudio.InputOverflowed {
				continue
			}
			failures++
			if failures >= maxReadErrors {
				return fmt.Errorf("read microphone: %w", err)
			}
			time.Sleep(pollInterval)
			continue
		}
		failures = 0

		if s.isRunning() {
			s.sink.OnData(audio.Int16ToBytes(s.buf))
		}
	}
	return nil
}

// Release implements capture.Stream.
func (s *stream) Release() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		// The loop checks running every poll interval.
		select {
		case <-s.done:
		case <-time.After(10 * pollInterval):
			s.log.Warn().Msg("Capture loop did not exit in time")
		}

		if e := s.ps.Stop(); e != nil {
			err = e
		}
		if e := s.ps.Close(); e != nil && err == nil {
			err = e
		}
	})
	return err
}
