// Package google provides a Google Cloud Speech-to-Text transcriber.
package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc"

	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/observability"
	"kisan-voice-client/internal/observability/metrics"
	"kisan-voice-client/internal/service/stt"
)

// ProviderName identifies this transcriber in logs and metrics.
const ProviderName = "google"

// Config holds recognition settings.
type Config struct {
	// LanguageCode is used when a request's language has no speech tag.
	LanguageCode  string
	SampleRateHz  int
	AudioEncoding string
	Model         string
}

// DefaultConfig returns defaults for 16 kHz LINEAR16 microphone audio.
func DefaultConfig() Config {
	return Config{
		LanguageCode:  locale.DefaultSpeechTag,
		SampleRateHz:  16000,
		AudioEncoding: "LINEAR16",
	}
}

// Transcriber implements stt.Transcriber with synchronous Recognize calls.
type Transcriber struct {
	client *speech.Client
	cfg    Config
}

// New creates a Google transcriber.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config) (*Transcriber, error) {
	c, err := speech.NewClient(ctx,
		option.WithGRPCDialOption(grpc.WithUnaryInterceptor(
			observability.UnaryClientInterceptor(metrics.DefaultMetrics, ProviderName),
		)),
	)
	if err != nil {
		return nil, err
	}
	return &Transcriber{client: c, cfg: cfg}, nil
}

// Name implements stt.Transcriber.
func (t *Transcriber) Name() string {
	return ProviderName
}

// Transcribe implements stt.Transcriber.
func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (stt.Result, error) {
	rr, err := buildRequest(t.cfg, req)
	if err != nil {
		return stt.Result{}, err
	}

	resp, err := t.client.Recognize(ctx, rr)
	if err != nil {
		return stt.Result{}, fmt.Errorf("%w: %v", stt.ErrTranscriptionFailed, err)
	}
	return toResult(resp, req.Language), nil
}

// Close releases the underlying gRPC connection.
func (t *Transcriber) Close() error {
	return t.client.Close()
}

func buildRequest(cfg Config, req stt.Request) (*speechpb.RecognizeRequest, error) {
	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode audio: %v", stt.ErrTranscriptionFailed, err)
	}

	rate := cfg.SampleRateHz
	if req.Format.SampleRateHz > 0 {
		rate = req.Format.SampleRateHz
	}

	lang := cfg.LanguageCode
	if e, ok := locale.Lookup(req.Language); ok && e.SpeechTag != "" {
		lang = e.SpeechTag
	}

	rc := &speechpb.RecognitionConfig{
		Encoding:        parseAudioEncoding(cfg.AudioEncoding),
		SampleRateHertz: int32(rate),
		LanguageCode:    lang,
		Model:           cfg.Model,
	}
	if req.Format.Channels > 1 {
		rc.AudioChannelCount = int32(req.Format.Channels)
	}

	return &speechpb.RecognizeRequest{
		Config: rc,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}, nil
}

// toResult joins the top alternative of every result segment.
func toResult(resp *speechpb.RecognizeResponse, lang locale.Code) stt.Result {
	var parts []string
	for _, r := range resp.GetResults() {
		if len(r.Alternatives) == 0 {
			continue
		}
		if t := strings.TrimSpace(r.Alternatives[0].Transcript); t != "" {
			parts = append(parts, t)
		}
	}
	text := strings.Join(parts, " ")
	return stt.Result{
		Success:       text != "",
		Transcription: text,
		Language:      string(lang),
	}
}

// parseAudioEncoding converts string encoding to Google's enum.
func parseAudioEncoding(enc string) speechpb.RecognitionConfig_AudioEncoding {
	switch enc {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "AMR":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}
