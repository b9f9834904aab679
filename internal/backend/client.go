// Package backend is the HTTP client for the farmer-assistant API.
package backend

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/observability/logging"
	"kisan-voice-client/internal/service/stt"
)

// ProviderName identifies the backend transcriber in logs and metrics.
const ProviderName = "backend"

var (
	// ErrRequestFailed marks transport errors and non-2xx replies.
	ErrRequestFailed = errors.New("backend request failed")
	// ErrUnsuccessful marks a 2xx reply carrying success=false.
	ErrUnsuccessful = errors.New("backend reported failure")
)

// Config holds backend connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig points at a local development backend.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8000",
		Timeout: 15 * time.Second,
	}
}

// Client talks to the backend. Safe for concurrent use.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

// New creates a backend client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	return &Client{
		http: c,
		log:  logging.WithComponent("backend"),
	}
}

type speechToTextRequest struct {
	AudioBase64 string `json:"audio_base64"`
	Language    string `json:"language"`
}

type speechToTextResponse struct {
	Success       bool   `json:"success"`
	Transcription string `json:"transcription"`
	Language      string `json:"language"`
}

type textToSpeechResponse struct {
	Success     bool   `json:"success"`
	AudioBase64 string `json:"audio_base64"`
}

type translationsResponse struct {
	Success      bool              `json:"success"`
	Language     string            `json:"language"`
	Translations map[string]string `json:"translations"`
}

// Language is one entry of the backend's language list.
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

type languagesResponse struct {
	Success   bool       `json:"success"`
	Languages []Language `json:"languages"`
}

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"target_language"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// Name implements stt.Transcriber.
func (c *Client) Name() string {
	return ProviderName
}

// Transcribe implements stt.Transcriber via POST /api/voice/speech-to-text.
func (c *Client) Transcribe(ctx context.Context, req stt.Request) (stt.Result, error) {
	var out speechToTextResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(speechToTextRequest{AudioBase64: req.AudioBase64, Language: string(req.Language)}).
		SetResult(&out).
		Post("/api/voice/speech-to-text")
	if err := check(resp, err); err != nil {
		return stt.Result{}, fmt.Errorf("%w: %v", stt.ErrTranscriptionFailed, err)
	}
	return stt.Result{
		Success:       out.Success,
		Transcription: out.Transcription,
		Language:      out.Language,
	}, nil
}

// TextToSpeech synthesizes text via POST /api/voice/text-to-speech and
// returns the decoded audio.
func (c *Client) TextToSpeech(ctx context.Context, text string, lang locale.Code) ([]byte, error) {
	var out textToSpeechResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"text":     text,
			"language": string(lang),
		}).
		SetResult(&out).
		Post("/api/voice/text-to-speech")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	if !out.Success || out.AudioBase64 == "" {
		return nil, fmt.Errorf("%w: text-to-speech", ErrUnsuccessful)
	}

	audio, err := base64.StdEncoding.DecodeString(out.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	return audio, nil
}

// FetchTranslations fetches the UI string set for lang via
// GET /api/translations/{lang}.
func (c *Client) FetchTranslations(ctx context.Context, lang locale.Code) (map[string]string, error) {
	var out translationsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("lang", string(lang)).
		SetResult(&out).
		Get("/api/translations/{lang}")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: translations for %s", ErrUnsuccessful, lang)
	}
	if out.Language != "" && out.Language != string(lang) {
		return nil, fmt.Errorf("%w: asked for %s, got %s", ErrUnsuccessful, lang, out.Language)
	}
	return out.Translations, nil
}

// Languages returns the backend's language list via GET /api/languages.
func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	var out languagesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/languages")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: languages", ErrUnsuccessful)
	}
	return out.Languages, nil
}

// SupportedLanguages reconciles the backend list with the locale table.
// Codes outside the table are dropped. Any failure, or an empty result,
// yields the full table.
func (c *Client) SupportedLanguages(ctx context.Context) []locale.Entry {
	remote, err := c.Languages(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("Language list unavailable, using built-in table")
		return locale.Entries()
	}

	var out []locale.Entry
	seen := make(map[locale.Code]bool)
	for _, l := range remote {
		e, ok := locale.Lookup(locale.Code(l.Code))
		if !ok {
			c.log.Debug().Str("code", l.Code).Msg("Ignoring unsupported backend language")
			continue
		}
		if seen[e.Code] {
			continue
		}
		seen[e.Code] = true
		out = append(out, e)
	}
	if len(out) == 0 {
		return locale.Entries()
	}
	return out
}

// Translate translates free text via POST /api/translate.
func (c *Client) Translate(ctx context.Context, text string, target locale.Code) (string, error) {
	var out translateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(translateRequest{Text: text, TargetLanguage: string(target)}).
		SetResult(&out).
		Post("/api/translate")
	if err := check(resp, err); err != nil {
		return "", err
	}
	return out.TranslatedText, nil
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s %s: status %d", ErrRequestFailed,
			resp.Request.Method, resp.Request.URL, resp.StatusCode())
	}
	return nil
}
