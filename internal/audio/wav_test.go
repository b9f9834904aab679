package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"kisan-voice-client/internal/service/capture"
)

func TestEncodeWAV_Header(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	out := EncodeWAV(pcm, capture.DefaultFormat)

	if len(out) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(out))
	}
	if !IsWAV(out) {
		t.Error("expected RIFF/WAVE header")
	}
	if got := binary.LittleEndian.Uint32(out[24:28]); got != 16000 {
		t.Errorf("expected sample rate 16000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(out[28:32]); got != 32000 {
		t.Errorf("expected byte rate 32000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(out[40:44]); got != uint32(len(pcm)) {
		t.Errorf("expected data size %d, got %d", len(pcm), got)
	}
	if !bytes.Equal(out[44:], pcm) {
		t.Errorf("expected payload %v, got %v", pcm, out[44:])
	}
}

func TestDecodeWAV_RoundTrip(t *testing.T) {
	pcm := Int16ToBytes([]int16{0, 1000, -1000, 32767, -32768, 42})
	f := capture.Format{SampleRateHz: 8000, Channels: 1, BitsPerSample: 16}

	got, gotFormat, err := DecodeWAV(bytes.NewReader(EncodeWAV(pcm, f)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotFormat != f {
		t.Errorf("expected format %+v, got %+v", f, gotFormat)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("expected %v, got %v", pcm, got)
	}
}

func TestDecodeWAV_NotWAV(t *testing.T) {
	_, _, err := DecodeWAV(bytes.NewReader([]byte("ID3 this is an mp3 file, honest")))
	if !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("expected ErrInvalidWAV, got %v", err)
	}
}

func TestInt16RoundTrip(t *testing.T) {
	samples := []int16{-32768, -1, 0, 1, 32767}
	got := BytesToInt16(Int16ToBytes(samples))

	if len(got) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(got))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d: expected %d, got %d", i, samples[i], got[i])
		}
	}
}

func TestBytesToInt16_OddLength(t *testing.T) {
	if got := BytesToInt16([]byte{1, 0, 7}); len(got) != 1 || got[0] != 1 {
		t.Errorf("expected [1], got %v", got)
	}
}

func TestDuration(t *testing.T) {
	if got := Duration(32000, capture.DefaultFormat); got != time.Second {
		t.Errorf("expected 1s, got %v", got)
	}
	if got := Duration(100, capture.Format{}); got != 0 {
		t.Errorf("expected 0 for empty format, got %v", got)
	}
}

func TestChunkSize(t *testing.T) {
	if got := ChunkSize(100*time.Millisecond, capture.DefaultFormat); got != 3200 {
		t.Errorf("expected 3200, got %d", got)
	}
	stereo := capture.Format{SampleRateHz: 44100, Channels: 2, BitsPerSample: 16}
	if got := ChunkSize(10*time.Millisecond, stereo); got != 441*4 {
		t.Errorf("expected %d, got %d", 441*4, got)
	}
}
