package archive

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kisan-voice-client/internal/audio"
	"kisan-voice-client/internal/service/capture"
)

type upload struct {
	key  string
	data []byte
}

type fakeBucket struct {
	mu      sync.Mutex
	uploads []upload
	err     error
}

func (b *fakeBucket) put(_ context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.uploads = append(b.uploads, upload{key: key, data: data})
	return nil
}

func newTestArchiver(t *testing.T, b *fakeBucket) *Archiver {
	t.Helper()
	a, err := New(Config{Enabled: false})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	a.put = b.put
	a.enabled = true
	a.now = func() time.Time { return time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC) }
	return a
}

func TestNew_Disabled(t *testing.T) {
	a, err := New(Config{Enabled: false, Bucket: "voice"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if a.Enabled() {
		t.Error("expected archiver to be disabled")
	}
	// No upload function is set; Archive must return without touching it.
	a.Archive("abc-rec-1", "hi", []byte{1, 2}, capture.DefaultFormat)
	a.Close()
}

func TestNew_DefaultTimeout(t *testing.T) {
	a, _ := New(Config{})
	if a.timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", a.timeout)
	}
}

func TestArchiver_Key(t *testing.T) {
	a := newTestArchiver(t, &fakeBucket{})

	got := a.Key("abc-rec-1", "ta")
	want := "recordings/ta/2026/03/09/abc-rec-1.wav"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestArchiver_UploadsWAV(t *testing.T) {
	b := &fakeBucket{}
	a := newTestArchiver(t, b)

	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	a.Archive("abc-rec-1", "hi", pcm, capture.DefaultFormat)
	a.Close()

	if len(b.uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(b.uploads))
	}
	up := b.uploads[0]
	if up.key != "recordings/hi/2026/03/09/abc-rec-1.wav" {
		t.Errorf("unexpected key %s", up.key)
	}
	if !audio.IsWAV(up.data) {
		t.Error("expected WAV payload")
	}
	if len(up.data) != 44+len(pcm) {
		t.Errorf("expected %d bytes, got %d", 44+len(pcm), len(up.data))
	}
}

func TestArchiver_FailureIsSwallowed(t *testing.T) {
	b := &fakeBucket{err: errors.New("bucket gone")}
	a := newTestArchiver(t, b)

	a.Archive("abc-rec-2", "mr", []byte{0, 0}, capture.DefaultFormat)
	a.Close()

	if len(b.uploads) != 0 {
		t.Errorf("expected no uploads, got %d", len(b.uploads))
	}
}
