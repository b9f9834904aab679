package file

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"kisan-voice-client/internal/audio"
	"kisan-voice-client/internal/service/capture"
)

type testSink struct {
	mu     sync.Mutex
	chunks [][]byte
}

func (s *testSink) OnData(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, append([]byte(nil), chunk...))
}

func (s *testSink) OnError(err error) {}

func (s *testSink) Chunks() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunks
}

func TestAcquire_DeliversAllChunksInOrder(t *testing.T) {
	// 250ms of 16 kHz mono audio: chunks of 3200, 3200, 1600 bytes.
	pcm := make([]byte, 8000)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	d := New(pcm, capture.DefaultFormat)
	d.Realtime = false

	sink := &testSink{}
	st, err := d.Acquire(context.Background(), sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer st.Release()

	select {
	case <-d.EOF():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for EOF")
	}

	chunks := sink.Chunks()
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[2]) != 1600 {
		t.Errorf("expected last chunk of 1600 bytes, got %d", len(chunks[2]))
	}
	if !bytes.Equal(bytes.Join(chunks, nil), pcm) {
		t.Error("expected chunks to reassemble the input")
	}
}

func TestRelease_StopsDelivery(t *testing.T) {
	d := New(make([]byte, 32000), capture.DefaultFormat)
	d.ChunkDuration = 50 * time.Millisecond

	sink := &testSink{}
	st, err := d.Acquire(context.Background(), sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.Release(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := st.Release(); err != nil {
		t.Errorf("expected second release to be harmless, got %v", err)
	}

	select {
	case <-d.EOF():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for playback to stop")
	}
	if n := len(sink.Chunks()); n > 2 {
		t.Errorf("expected delivery to stop early, got %d chunks", n)
	}
}

func TestAcquire_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(nil, capture.DefaultFormat).Acquire(ctx, &testSink{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	f := capture.Format{SampleRateHz: 8000, Channels: 1, BitsPerSample: 16}
	pcm := audio.Int16ToBytes([]int16{1, 2, 3, 4})
	path := filepath.Join(t.TempDir(), "query.wav")
	if err := os.WriteFile(path, audio.EncodeWAV(pcm, f), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	d, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Format() != f {
		t.Errorf("expected %+v, got %+v", f, d.Format())
	}
	if d.Duration() != 500*time.Microsecond {
		t.Errorf("expected 500µs, got %v", d.Duration())
	}
}

func TestOpen_Missing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.wav")); !errors.Is(err, capture.ErrDeviceUnavailable) {
		t.Errorf("expected ErrDeviceUnavailable, got %v", err)
	}
}
