// Package mock provides a canned STT transcriber for running without a
// backend or cloud credentials.
package mock

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/service/stt"
)

// ProviderName identifies this transcriber in logs and metrics.
const ProviderName = "mock"

// Unavailable is returned for languages without a canned phrase.
const Unavailable = "Audio transcription not available"

// Phrases maps languages to the canned transcription returned for them.
var Phrases = map[locale.Code]string{
	locale.Hindi:   "मुझे टमाटर की बीमारी के बारे में बताइए",
	locale.English: "Tell me about tomato diseases",
	locale.Tamil:   "தக்காளி நோய்கள் பற்றி சொல்லுங்கள்",
}

// Transcriber implements stt.Transcriber with canned responses.
type Transcriber struct {
	// Latency simulates recognition time.
	Latency time.Duration

	mu    sync.Mutex
	calls int
}

// New creates a mock transcriber.
func New() *Transcriber {
	return &Transcriber{}
}

// Name implements stt.Transcriber.
func (t *Transcriber) Name() string {
	return ProviderName
}

// Transcribe implements stt.Transcriber. The audio is validated but not
// inspected.
func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (stt.Result, error) {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()

	if _, err := base64.StdEncoding.DecodeString(req.AudioBase64); err != nil {
		return stt.Result{}, fmt.Errorf("%w: decode audio: %v", stt.ErrTranscriptionFailed, err)
	}

	if t.Latency > 0 {
		select {
		case <-time.After(t.Latency):
		case <-ctx.Done():
			return stt.Result{}, ctx.Err()
		}
	}

	text, ok := Phrases[req.Language]
	if !ok {
		text = Unavailable
	}
	return stt.Result{
		Success:       true,
		Transcription: text,
		Language:      string(req.Language),
	}, nil
}

// Calls returns how many requests were served.
func (t *Transcriber) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}
