// Package openai provides an OpenAI Whisper transcriber.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"kisan-voice-client/internal/audio"
	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/service/stt"
)

// ProviderName identifies this transcriber in logs and metrics.
const ProviderName = "openai"

// Whisper has no model for Odia or Manipuri; those requests auto-detect.
var whisperLanguages = map[locale.Code]bool{
	locale.English: true, locale.Hindi: true, locale.Marathi: true, locale.Bengali: true,
	locale.Gujarati: true, locale.Tamil: true, locale.Telugu: true, locale.Kannada: true,
	locale.Malayalam: true, locale.Punjabi: true, locale.Assamese: true, locale.Urdu: true,
	locale.Sanskrit: true, locale.Nepali: true,
}

// Config holds Whisper settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Transcriber implements stt.Transcriber against the audio transcription API.
type Transcriber struct {
	client *openai.Client
	model  string
}

// New creates a Whisper transcriber.
func New(cfg Config) *Transcriber {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &Transcriber{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// Name implements stt.Transcriber.
func (t *Transcriber) Name() string {
	return ProviderName
}

// Transcribe implements stt.Transcriber. The PCM is wrapped as WAV before upload.
func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (stt.Result, error) {
	pcm, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return stt.Result{}, fmt.Errorf("%w: decode audio: %v", stt.ErrTranscriptionFailed, err)
	}

	ar := openai.AudioRequest{
		Model:    t.model,
		FilePath: "query.wav",
		Reader:   bytes.NewReader(audio.EncodeWAV(pcm, req.Format)),
	}
	if whisperLanguages[req.Language] {
		ar.Language = string(req.Language)
	}

	resp, err := t.client.CreateTranscription(ctx, ar)
	if err != nil {
		return stt.Result{}, fmt.Errorf("%w: %v", stt.ErrTranscriptionFailed, err)
	}

	text := strings.TrimSpace(resp.Text)
	return stt.Result{
		Success:       text != "",
		Transcription: text,
		Language:      string(req.Language),
	}, nil
}
