// Package capture defines the interface for audio input devices.
package capture

import (
	"context"
	"errors"
)

// ErrPermissionDenied is returned when the user or OS refuses access to the
// input device. It is the one capture failure surfaced to callers as-is.
var ErrPermissionDenied = errors.New("microphone permission denied")

// ErrDeviceUnavailable is returned when no usable input device exists.
var ErrDeviceUnavailable = errors.New("audio input device unavailable")

// Sink receives audio from an acquired stream.
type Sink interface {
	// OnData is called for every captured chunk, in capture order.
	// Implementations must not retain chunk after returning unless they copy it.
	OnData(chunk []byte)

	// OnError is called once if the stream fails while capturing.
	OnError(err error)
}

// Stream is an acquired device handle.
type Stream interface {
	// Release stops delivery and frees the device. Safe to call more than once.
	Release() error
}

// Device is an audio input source (microphone, file, etc.).
type Device interface {
	// Acquire opens the device and starts delivering chunks to sink.
	Acquire(ctx context.Context, sink Sink) (Stream, error)
}

// Format describes the PCM produced by a device.
type Format struct {
	SampleRateHz  int
	Channels      int
	BitsPerSample int
}

// DefaultFormat is 16 kHz mono 16-bit little-endian PCM.
var DefaultFormat = Format{SampleRateHz: 16000, Channels: 1, BitsPerSample: 16}
