// Package speech vocalizes localized text, preferring the local synthesizer
// and falling back to the backend.
package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/models"
	"kisan-voice-client/internal/observability/logging"
	"kisan-voice-client/internal/observability/metrics"
)

// ErrSynthesis marks a failed dispatch. It never escapes Speak.
var ErrSynthesis = errors.New("speech synthesis failed")

// Dispatch paths reported in events and metrics.
const (
	PathLocal  = "local"
	PathRemote = "remote"
	PathNone   = "none"
)

// Synthesizer speaks text locally using a BCP-47 speech tag.
type Synthesizer interface {
	// Available reports whether local synthesis can be used at all.
	Available() bool
	Speak(ctx context.Context, text, tag string) error
}

// Remote synthesizes audio on the backend.
type Remote interface {
	TextToSpeech(ctx context.Context, text string, lang locale.Code) ([]byte, error)
}

// Player plays encoded audio.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// Publisher receives one event per dispatch.
type Publisher interface {
	PublishSpeech(ctx context.Context, key string, event models.SpeechEvent) error
}

// Dispatcher chooses a synthesis path for each utterance.
type Dispatcher struct {
	local     Synthesizer
	remote    Remote
	player    Player
	publisher Publisher
	timeout   time.Duration
	metrics   *metrics.Metrics

	wg sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPublisher attaches an event publisher.
func WithPublisher(p Publisher) Option {
	return func(d *Dispatcher) { d.publisher = p }
}

// WithTimeout bounds a single dispatch. Non-positive values are ignored.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// NewDispatcher creates a dispatcher. local, remote and player may be nil.
func NewDispatcher(local Synthesizer, remote Remote, player Player, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		local:   local,
		remote:  remote,
		player:  player,
		timeout: 30 * time.Second,
		metrics: metrics.DefaultMetrics,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Speak vocalizes text in lang without waiting. Failures are logged and
// dropped; nothing is retried.
func (d *Dispatcher) Speak(text string, lang locale.Code) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		_, _ = d.Dispatch(ctx, text, lang)
	}()
}

// Wait blocks until every Speak in flight has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Dispatch speaks text synchronously and reports the path taken. The
// returned error wraps ErrSynthesis; callers other than tests ignore it.
func (d *Dispatcher) Dispatch(ctx context.Context, text string, lang locale.Code) (string, error) {
	tag := locale.SpeechTag(lang)
	log := logging.WithSpeech(string(lang), tag)

	if text == "" {
		return PathNone, nil
	}

	var path string
	var err error
	if d.local != nil && d.local.Available() {
		path = PathLocal
		err = d.local.Speak(ctx, text, tag)
	} else {
		path = PathRemote
		err = d.speakRemote(ctx, text, lang)
	}
	if err != nil && !errors.Is(err, ErrSynthesis) {
		err = fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	d.metrics.RecordSpeech(path, err)
	d.publish(text, lang, tag, path, err)

	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Speech dispatch failed")
		return path, err
	}
	log.Debug().Str("path", path).Int("chars", len([]rune(text))).Msg("Speech dispatched")
	return path, nil
}

func (d *Dispatcher) speakRemote(ctx context.Context, text string, lang locale.Code) error {
	if d.remote == nil {
		return fmt.Errorf("%w: no synthesizer available", ErrSynthesis)
	}
	audio, err := d.remote.TextToSpeech(ctx, text, lang)
	if err != nil {
		return err
	}
	if d.player == nil {
		return fmt.Errorf("%w: no audio output", ErrSynthesis)
	}
	return d.player.Play(ctx, audio)
}

func (d *Dispatcher) publish(text string, lang locale.Code, tag, path string, err error) {
	if d.publisher == nil {
		return
	}
	event := models.SpeechEvent{
		EventType: models.EventTypeSpeech,
		EventID:   uuid.NewString(),
		Language:  string(lang),
		SpeechTag: tag,
		Timestamp: time.Now().UnixMilli(),
		Path:      path,
		Failed:    err != nil,
		TextChars: len([]rune(text)),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if perr := d.publisher.PublishSpeech(ctx, string(lang), event); perr != nil {
		logger := logging.WithComponent("speech")
		logger.Warn().Err(perr).Msg("Failed to publish speech event")
	}
}
