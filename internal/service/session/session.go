package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/models"
	"kisan-voice-client/internal/observability/logging"
	"kisan-voice-client/internal/service/capture"
	"kisan-voice-client/internal/service/stt"
)

// ErrSessionCancelled is returned by Start when Cancel won the race with
// device acquisition. The fallback result has already been delivered.
var ErrSessionCancelled = errors.New("session cancelled during acquisition")

// Fallback reasons reported in results, events and metrics.
const (
	ReasonSTTError     = "stt_error"
	ReasonSTTEmpty     = "stt_empty"
	ReasonNoAudio      = "no_audio"
	ReasonCaptureError = "capture_error"
	ReasonCancelled    = "cancelled"
)

// Session outcomes reported to metrics.
const (
	OutcomeTranscribed      = "transcribed"
	OutcomeFallback         = "fallback"
	OutcomePermissionDenied = "permission_denied"
	OutcomeAcquireFailed    = "acquire_failed"
)

// Result is handed to the caller exactly once per session that reached
// CAPTURING (or was cancelled). Text is never empty.
type Result struct {
	SessionID string
	Language  locale.Code
	Text      string
	Fallback  bool
	Reason    string
}

// ResultFunc receives the session result. It runs on whichever goroutine
// closed the session and must not block for long.
type ResultFunc func(Result)

// Session owns one device acquisition, one bounded recording window and
// one delivery. Create sessions through a Recorder.
type Session struct {
	id       string
	language locale.Code
	rec      *Recorder
	onResult ResultFunc
	log      zerolog.Logger

	lifecycle *Lifecycle
	startedAt time.Time

	mu             sync.Mutex
	chunks         [][]byte
	audioBytes     int64
	stream         capture.Stream
	timer          Timer
	cancelAcquire  context.CancelFunc
	cancelDelivery context.CancelFunc
	result         *Result

	done chan struct{}
}

func newSession(rec *Recorder, id string, lang locale.Code, onResult ResultFunc) *Session {
	return &Session{
		id:        id,
		language:  lang,
		rec:       rec,
		onResult:  onResult,
		log:       logging.WithSession(id, string(lang)),
		lifecycle: NewLifecycle(id),
		startedAt: rec.clock.Now(),
		done:      make(chan struct{}),
	}
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Language returns the language the session transcribes in.
func (s *Session) Language() locale.Code {
	return s.language
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.lifecycle.State()
}

// History returns every state the session visited.
func (s *Session) History() []State {
	return s.lifecycle.History()
}

// Done is closed once the session reaches CLOSED.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Result returns the delivered result, if any.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

// Wait blocks until the session closes or ctx ends.
func (s *Session) Wait(ctx context.Context) (Result, error) {
	select {
	case <-s.done:
		res, _ := s.Result()
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// start runs IDLE → ACQUIRING → CAPTURING. On acquisition failure the
// session passes through ERROR to CLOSED and the error is returned without
// invoking the result callback.
func (s *Session) start(ctx context.Context) error {
	if err := s.lifecycle.Transition(StateAcquiring); err != nil {
		return err
	}
	s.rec.metrics.RecordSessionStart()

	acqCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancelAcquire = cancel
	s.mu.Unlock()
	defer cancel()
	if s.lifecycle.IsClosed() {
		return ErrSessionCancelled
	}

	stream, err := s.rec.device.Acquire(acqCtx, s)
	if err != nil {
		if s.lifecycle.State() == StateClosed {
			// Cancel already delivered the fallback.
			return ErrSessionCancelled
		}
		_ = s.lifecycle.Transition(StateError)
		outcome := OutcomeAcquireFailed
		if errors.Is(err, capture.ErrPermissionDenied) {
			outcome = OutcomePermissionDenied
			s.rec.metrics.RecordPermissionDenied()
		}
		s.log.Warn().Err(err).Str("outcome", outcome).Msg("Microphone acquisition failed")
		if s.lifecycle.Close() {
			s.cleanup(outcome)
		}
		return fmt.Errorf("acquire microphone: %w", err)
	}

	s.mu.Lock()
	if err := s.lifecycle.Transition(StateCapturing); err != nil {
		s.mu.Unlock()
		// Cancelled while the device was opening; hand it straight back.
		if rerr := stream.Release(); rerr != nil {
			s.log.Warn().Err(rerr).Msg("Failed to release device after cancellation")
		}
		return ErrSessionCancelled
	}
	s.stream = stream
	s.timer = s.rec.clock.AfterFunc(s.rec.cfg.Limits.MaxDuration, s.onTimer)
	buffered := s.audioBytes
	s.mu.Unlock()

	s.log.Info().
		Dur("maxDuration", s.rec.cfg.Limits.MaxDuration).
		Msg("Recording started")

	if limit := s.rec.cfg.Limits.MaxAudioBytes; limit > 0 && buffered >= limit {
		s.rec.metrics.RecordLimitExceeded("max_audio_bytes")
		go s.stop("max_audio_bytes")
	}
	return nil
}

// OnData implements capture.Sink. Chunks are kept in arrival order. A
// device may start delivering before Acquire returns, so chunks are
// accepted while ACQUIRING as well; anything after CAPTURING is dropped.
func (s *Session) OnData(chunk []byte) {
	if len(chunk) == 0 {
		return
	}

	s.mu.Lock()
	st := s.lifecycle.State()
	if st != StateAcquiring && st != StateCapturing {
		s.mu.Unlock()
		return
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	s.chunks = append(s.chunks, buf)
	s.audioBytes += int64(len(buf))
	total := s.audioBytes
	s.mu.Unlock()

	s.rec.metrics.RecordAudioCaptured(len(buf))

	// While acquiring, start checks the limit once capture begins.
	if limit := s.rec.cfg.Limits.MaxAudioBytes; limit > 0 && total >= limit && st == StateCapturing {
		s.rec.metrics.RecordLimitExceeded("max_audio_bytes")
		s.log.Info().Int64("audioBytes", total).Int64("maxAudioBytes", limit).Msg("Audio limit reached, stopping")
		// The device goroutine is inside OnData; stopping here would
		// wait on our own release.
		go s.stop("max_audio_bytes")
	}
}

// OnError implements capture.Sink.
func (s *Session) OnError(err error) {
	if e := s.lifecycle.Transition(StateError); e != nil {
		return
	}
	s.log.Warn().Err(err).Msg("Capture failed")
	s.finish(s.fallback(ReasonCaptureError))
}

func (s *Session) onTimer() {
	s.rec.metrics.RecordLimitExceeded("max_duration")
	s.stop("timer")
}

// Stop ends capture and submits the recording. Calling Stop more than once,
// or after the timer fired, is a no-op.
func (s *Session) Stop() {
	s.stop("explicit")
}

func (s *Session) stop(trigger string) {
	if err := s.lifecycle.Transition(StateStopping); err != nil {
		return
	}

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	chunks := s.chunks
	s.chunks = nil
	s.mu.Unlock()

	s.release()
	s.log.Debug().Str("trigger", trigger).Int("chunks", len(chunks)).Msg("Recording stopped")

	if err := s.lifecycle.Transition(StateEncoding); err != nil {
		return
	}
	audio := concat(chunks)
	if len(audio) == 0 {
		if err := s.lifecycle.Transition(StateError); err != nil {
			return
		}
		s.finish(s.fallback(ReasonNoAudio))
		return
	}
	encoded := base64.StdEncoding.EncodeToString(audio)

	if err := s.lifecycle.Transition(StateDelivering); err != nil {
		return
	}
	if s.rec.archiver != nil {
		s.rec.archiver.Archive(s.id, s.language, audio, s.rec.cfg.Format)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.rec.cfg.TranscribeTimeout)
	s.mu.Lock()
	s.cancelDelivery = cancel
	s.mu.Unlock()

	go s.deliver(ctx, cancel, encoded, len(audio))
}

func (s *Session) deliver(ctx context.Context, cancel context.CancelFunc, encoded string, audioBytes int) {
	defer cancel()

	provider := s.rec.transcriber.Name()
	log := logging.WithTranscriber(s.id, string(s.language), provider)

	start := time.Now()
	res, err := s.rec.transcriber.Transcribe(ctx, stt.Request{
		AudioBase64: encoded,
		Language:    s.language,
		Format:      s.rec.cfg.Format,
	})
	s.rec.metrics.RecordSTTLatency(provider, time.Since(start).Seconds())

	if s.lifecycle.IsClosed() {
		return
	}

	text, err := stt.Text(res, err)
	if err != nil {
		reason := ReasonSTTError
		if errors.Is(err, stt.ErrEmptyTranscription) {
			reason = ReasonSTTEmpty
		}
		s.rec.metrics.RecordSTTError(provider, reason)
		log.Warn().Err(err).Int("audioBytes", audioBytes).Msg("Transcription failed, delivering fallback")
		s.finish(s.fallback(reason))
		return
	}

	log.Info().Int("audioBytes", audioBytes).Int("chars", len(text)).Msg("Transcription delivered")
	s.finish(Result{SessionID: s.id, Language: s.language, Text: text})
}

// Cancel forces the session closed from any non-CLOSED state. The device is
// released if held and the fallback string is delivered. No-op once closed.
func (s *Session) Cancel() {
	s.finish(s.fallback(ReasonCancelled))
}

func (s *Session) fallback(reason string) Result {
	text := s.rec.fallback.Resolve(s.language, s.rec.cfg.FallbackKey, s.rec.cfg.FallbackDefault)
	if text == "" {
		text = s.rec.cfg.FallbackDefault
	}
	return Result{
		SessionID: s.id,
		Language:  s.language,
		Text:      text,
		Fallback:  true,
		Reason:    reason,
	}
}

// finish closes the session and delivers res. Only the first caller wins;
// later results (a late transcription after Cancel) are discarded.
func (s *Session) finish(res Result) {
	if !s.lifecycle.Close() {
		return
	}
	s.release()

	s.mu.Lock()
	s.result = &res
	s.mu.Unlock()

	outcome := OutcomeTranscribed
	if res.Fallback {
		outcome = OutcomeFallback
		s.rec.metrics.RecordFallback(res.Reason)
	}
	s.cleanup(outcome)
	s.publish(res)

	if s.onResult != nil {
		s.onResult(res)
	}
	close(s.done)
}

// cleanup runs once, right after the CLOSED transition.
func (s *Session) cleanup(outcome string) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancelAcquire != nil {
		s.cancelAcquire()
	}
	if s.cancelDelivery != nil {
		s.cancelDelivery()
	}
	s.chunks = nil
	s.mu.Unlock()

	elapsed := s.rec.clock.Now().Sub(s.startedAt)
	s.rec.metrics.RecordSessionEnd(outcome, elapsed.Seconds())
	s.rec.detach(s)

	s.log.Info().
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Msg("Session closed")

	if outcome == OutcomePermissionDenied || outcome == OutcomeAcquireFailed {
		close(s.done)
	}
}

// release hands the device back. Every exit path calls it; only the first
// call reaches the stream.
func (s *Session) release() {
	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.mu.Unlock()

	if stream == nil {
		return
	}
	if err := stream.Release(); err != nil {
		s.log.Warn().Err(err).Msg("Device release failed")
	}
}

func (s *Session) publish(res Result) {
	if s.rec.publisher == nil {
		return
	}
	s.mu.Lock()
	audioBytes := s.audioBytes
	s.mu.Unlock()

	event := models.VoiceQueryEvent{
		EventType:  models.EventTypeVoiceQuery,
		EventID:    uuid.NewString(),
		SessionID:  s.id,
		Language:   string(s.language),
		Timestamp:  s.rec.clock.Now().UnixMilli(),
		Text:       res.Text,
		Fallback:   res.Fallback,
		Reason:     res.Reason,
		AudioBytes: int(audioBytes),
		DurationMs: s.rec.clock.Now().Sub(s.startedAt).Milliseconds(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.rec.publisher.PublishQuery(ctx, s.id, event); err != nil {
			s.log.Warn().Err(err).Msg("Failed to publish voice query event")
		}
	}()
}

func concat(chunks [][]byte) []byte {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
