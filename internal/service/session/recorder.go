// Package session runs bounded microphone recordings and turns them into a
// single text result via a speech-to-text provider.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/models"
	"kisan-voice-client/internal/observability/metrics"
	"kisan-voice-client/internal/service/capture"
	"kisan-voice-client/internal/service/stt"
)

// ErrSessionActive is returned when a start is requested while another
// session still holds the microphone.
var ErrSessionActive = errors.New("a recording session is already active")

// Limits bounds a single recording.
type Limits struct {
	// MaxDuration is the hard ceiling after which capture stops on its own.
	MaxDuration time.Duration
	// MaxAudioBytes stops capture early once this much PCM is buffered.
	// Zero disables the check.
	MaxAudioBytes int64
}

// DefaultLimits is a 5 second ceiling and 1 MiB of audio.
var DefaultLimits = Limits{
	MaxDuration:   5 * time.Second,
	MaxAudioBytes: 1 << 20,
}

// Config configures a Recorder.
type Config struct {
	Limits            Limits
	Format            capture.Format
	TranscribeTimeout time.Duration
	// FallbackKey is resolved when transcription yields nothing usable.
	FallbackKey     string
	FallbackDefault string
}

// DefaultConfig returns the recorder defaults.
func DefaultConfig() Config {
	return Config{
		Limits:            DefaultLimits,
		Format:            capture.DefaultFormat,
		TranscribeTimeout: 15 * time.Second,
		FallbackKey:       "voiceGreeting",
		FallbackDefault:   "Voice input received!",
	}
}

// Fallback resolves the localized fallback string.
type Fallback interface {
	Resolve(lang locale.Code, key, hardDefault string) string
}

// Publisher receives one event per delivered result.
type Publisher interface {
	PublishQuery(ctx context.Context, key string, event models.VoiceQueryEvent) error
}

// Archiver stores a finished recording. Implementations must not block.
type Archiver interface {
	Archive(sessionID string, lang locale.Code, pcm []byte, format capture.Format)
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(r *Recorder) { r.clock = c }
}

// WithPublisher attaches an event publisher.
func WithPublisher(p Publisher) Option {
	return func(r *Recorder) { r.publisher = p }
}

// WithArchiver attaches a recording archiver.
func WithArchiver(a Archiver) Option {
	return func(r *Recorder) { r.archiver = a }
}

// WithIDGenerator replaces the session ID generator.
func WithIDGenerator(g *IDGenerator) Option {
	return func(r *Recorder) { r.ids = g }
}

// Recorder owns the microphone and runs at most one session at a time.
type Recorder struct {
	cfg         Config
	device      capture.Device
	transcriber stt.Transcriber
	fallback    Fallback
	clock       Clock
	publisher   Publisher
	archiver    Archiver
	ids         *IDGenerator
	metrics     *metrics.Metrics

	mu     sync.Mutex
	active *Session
}

// NewRecorder creates a recorder. Zero-valued config fields take defaults.
func NewRecorder(cfg Config, device capture.Device, transcriber stt.Transcriber, fallback Fallback, opts ...Option) *Recorder {
	def := DefaultConfig()
	if cfg.Limits.MaxDuration <= 0 {
		cfg.Limits.MaxDuration = def.Limits.MaxDuration
	}
	if cfg.Format.SampleRateHz <= 0 {
		cfg.Format = def.Format
	}
	if cfg.TranscribeTimeout <= 0 {
		cfg.TranscribeTimeout = def.TranscribeTimeout
	}
	if cfg.FallbackKey == "" {
		cfg.FallbackKey = def.FallbackKey
	}
	if cfg.FallbackDefault == "" {
		cfg.FallbackDefault = def.FallbackDefault
	}

	r := &Recorder{
		cfg:         cfg,
		device:      device,
		transcriber: transcriber,
		fallback:    fallback,
		clock:       SystemClock,
		ids:         NewIDGenerator(),
		metrics:     metrics.DefaultMetrics,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the effective configuration.
func (r *Recorder) Config() Config {
	return r.cfg
}

// Start acquires the microphone and begins a bounded recording in lang.
// onResult is invoked exactly once when the session delivers, unless
// acquisition fails, in which case the error is returned instead.
func (r *Recorder) Start(ctx context.Context, lang locale.Code, onResult ResultFunc) (*Session, error) {
	if !locale.IsSupported(lang) {
		return nil, fmt.Errorf("start session: %w: %q", locale.ErrUnknownLanguage, lang)
	}

	r.mu.Lock()
	if r.active != nil {
		r.mu.Unlock()
		r.metrics.RecordSessionRejected()
		return nil, ErrSessionActive
	}
	s := newSession(r, r.ids.Next(), lang, onResult)
	r.active = s
	r.mu.Unlock()

	if err := s.start(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// Toggle implements a push-to-talk button: it stops the session that is
// capturing, or starts a new one when the microphone is free. While a
// session is past capture it returns ErrSessionActive.
func (r *Recorder) Toggle(ctx context.Context, lang locale.Code, onResult ResultFunc) (*Session, error) {
	if s := r.Active(); s != nil {
		if s.State() == StateCapturing {
			s.Stop()
			return s, nil
		}
		r.metrics.RecordSessionRejected()
		return s, ErrSessionActive
	}
	return r.Start(ctx, lang, onResult)
}

// Active returns the session holding the microphone, if any.
func (r *Recorder) Active() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Cancel cancels the active session. Returns false if there is none.
func (r *Recorder) Cancel() bool {
	s := r.Active()
	if s == nil {
		return false
	}
	s.Cancel()
	return true
}

func (r *Recorder) detach(s *Session) {
	r.mu.Lock()
	if r.active == s {
		r.active = nil
	}
	r.mu.Unlock()
}
