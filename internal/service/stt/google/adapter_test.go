package google

import (
	"encoding/base64"
	"errors"
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"

	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/service/capture"
	"kisan-voice-client/internal/service/stt"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LanguageCode != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.LanguageCode)
	}
	if cfg.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.SampleRateHz)
	}
	if cfg.AudioEncoding != "LINEAR16" {
		t.Errorf("expected default encoding 'LINEAR16', got %s", cfg.AudioEncoding)
	}
}

func TestParseAudioEncoding(t *testing.T) {
	tests := []struct {
		input    string
		expected speechpb.RecognitionConfig_AudioEncoding
	}{
		{"LINEAR16", speechpb.RecognitionConfig_LINEAR16},
		{"MULAW", speechpb.RecognitionConfig_MULAW},
		{"FLAC", speechpb.RecognitionConfig_FLAC},
		{"AMR", speechpb.RecognitionConfig_AMR},
		{"AMR_WB", speechpb.RecognitionConfig_AMR_WB},
		{"OGG_OPUS", speechpb.RecognitionConfig_OGG_OPUS},
		{"SPEEX_WITH_HEADER_BYTE", speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE},
		{"WEBM_OPUS", speechpb.RecognitionConfig_WEBM_OPUS},
		{"UNKNOWN", speechpb.RecognitionConfig_LINEAR16}, // fallback
		{"linear16", speechpb.RecognitionConfig_LINEAR16}, // lowercase -> fallback
		{"", speechpb.RecognitionConfig_LINEAR16},        // fallback
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseAudioEncoding(tt.input)
			if got != tt.expected {
				t.Errorf("parseAudioEncoding(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestBuildRequest(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	req := stt.Request{
		AudioBase64: base64.StdEncoding.EncodeToString(pcm),
		Language:    locale.Tamil,
		Format:      capture.Format{SampleRateHz: 8000, Channels: 1, BitsPerSample: 16},
	}

	rr, err := buildRequest(DefaultConfig(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rr.Config.LanguageCode != "ta-IN" {
		t.Errorf("expected 'ta-IN', got %s", rr.Config.LanguageCode)
	}
	if rr.Config.SampleRateHertz != 8000 {
		t.Errorf("expected 8000, got %d", rr.Config.SampleRateHertz)
	}
	if string(rr.Audio.GetContent()) != string(pcm) {
		t.Errorf("expected decoded audio, got %v", rr.Audio.GetContent())
	}
}

func TestBuildRequest_NoSpeechTagUsesConfigLanguage(t *testing.T) {
	req := stt.Request{AudioBase64: "AAA=", Language: locale.Sanskrit}

	rr, err := buildRequest(DefaultConfig(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rr.Config.LanguageCode != "en-US" {
		t.Errorf("expected 'en-US', got %s", rr.Config.LanguageCode)
	}
	if rr.Config.SampleRateHertz != 16000 {
		t.Errorf("expected config sample rate 16000, got %d", rr.Config.SampleRateHertz)
	}
}

func TestBuildRequest_BadBase64(t *testing.T) {
	_, err := buildRequest(DefaultConfig(), stt.Request{AudioBase64: "!!!"})
	if !errors.Is(err, stt.ErrTranscriptionFailed) {
		t.Errorf("expected ErrTranscriptionFailed, got %v", err)
	}
}

func TestToResult(t *testing.T) {
	resp := &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "tell me about"}}},
			{},
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " tomato diseases "}}},
		},
	}

	res := toResult(resp, locale.English)
	if !res.Success {
		t.Error("expected success")
	}
	if res.Transcription != "tell me about tomato diseases" {
		t.Errorf("expected joined transcript, got %q", res.Transcription)
	}
	if res.Language != "en" {
		t.Errorf("expected 'en', got %s", res.Language)
	}
}

func TestToResult_Empty(t *testing.T) {
	res := toResult(&speechpb.RecognizeResponse{}, locale.Hindi)
	if res.Success {
		t.Error("expected failure for empty response")
	}
}
