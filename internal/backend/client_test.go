package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/service/stt"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestTranscribe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/voice/speech-to-text" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["audio_base64"] != "AAEC" || body["language"] != "hi" {
			t.Errorf("unexpected body: %v", body)
		}
		writeJSON(w, http.StatusOK, `{"success":true,"transcription":"टमाटर","language":"hi"}`)
	})

	res, err := c.Transcribe(context.Background(), stt.Request{AudioBase64: "AAEC", Language: locale.Hindi})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.Transcription != "टमाटर" || res.Language != "hi" {
		t.Errorf("unexpected result: %+v", res)
	}
	if c.Name() != "backend" {
		t.Errorf("expected 'backend', got %s", c.Name())
	}
}

func TestTranscribe_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, `{"detail":"down"}`)
	})

	_, err := c.Transcribe(context.Background(), stt.Request{AudioBase64: "AAEC", Language: locale.Hindi})
	if !errors.Is(err, stt.ErrTranscriptionFailed) {
		t.Errorf("expected ErrTranscriptionFailed, got %v", err)
	}
	if text, err := stt.Text(stt.Result{}, err); err == nil || text != "" {
		t.Errorf("expected no usable text, got %q", text)
	}
}

func TestTranscribe_Timeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Transcribe(ctx, stt.Request{AudioBase64: "AAEC", Language: locale.Hindi})
	if !errors.Is(err, stt.ErrTranscriptionFailed) {
		t.Errorf("expected ErrTranscriptionFailed, got %v", err)
	}
}

func TestTextToSpeech(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/voice/text-to-speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("text") != "नमस्ते" || r.FormValue("language") != "hi" {
			t.Errorf("unexpected form: %v", r.Form)
		}
		writeJSON(w, http.StatusOK, `{"success":true,"audio_base64":"SUQz"}`)
	})

	audio, err := c.TextToSpeech(context.Background(), "नमस्ते", locale.Hindi)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(audio) != "ID3" {
		t.Errorf("expected decoded audio 'ID3', got %q", audio)
	}
}

func TestTextToSpeech_Unsuccessful(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":false}`)
	})

	_, err := c.TextToSpeech(context.Background(), "hello", locale.English)
	if !errors.Is(err, ErrUnsuccessful) {
		t.Errorf("expected ErrUnsuccessful, got %v", err)
	}
}

func TestFetchTranslations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/translations/ta" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, `{"success":true,"language":"ta","translations":{"speak":"பேசு"}}`)
	})

	set, err := c.FetchTranslations(context.Background(), locale.Tamil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set["speak"] != "பேசு" {
		t.Errorf("expected 'பேசு', got %q", set["speak"])
	}
}

func TestFetchTranslations_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found", http.StatusNotFound, `{}`, ErrRequestFailed},
		{"success false", http.StatusOK, `{"success":false}`, ErrUnsuccessful},
		{"wrong language", http.StatusOK, `{"success":true,"language":"hi","translations":{}}`, ErrUnsuccessful},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			if _, err := c.FetchTranslations(context.Background(), locale.Tamil); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSupportedLanguages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"languages":[
			{"code":"hi","name":"Hindi","native_name":"हिंदी"},
			{"code":"xx","name":"Klingon","native_name":"tlhIngan"},
			{"code":"ta","name":"Tamil","native_name":"தமிழ்"},
			{"code":"hi","name":"Hindi","native_name":"हिंदी"}
		]}`)
	})

	got := c.SupportedLanguages(context.Background())
	if len(got) != 2 {
		t.Fatalf("expected 2 languages, got %d", len(got))
	}
	if got[0].Code != locale.Hindi || got[1].Code != locale.Tamil {
		t.Errorf("expected [hi ta], got %v", got)
	}
	if got[1].SpeechTag != "ta-IN" {
		t.Errorf("expected table speech tag, got %s", got[1].SpeechTag)
	}
}

func TestSupportedLanguages_FallsBackToTable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{}`)
	})

	if got := c.SupportedLanguages(context.Background()); len(got) != len(locale.Codes()) {
		t.Errorf("expected full table of %d, got %d", len(locale.Codes()), len(got))
	}
}

func TestTranslate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["text"] != "hello" || body["target_language"] != "mr" {
			t.Errorf("unexpected body: %v", body)
		}
		writeJSON(w, http.StatusOK, `{"translated_text":"नमस्कार"}`)
	})

	got, err := c.Translate(context.Background(), "hello", locale.Marathi)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "नमस्कार" {
		t.Errorf("expected 'नमस्कार', got %q", got)
	}
}
