// Package stt defines the interface for speech-to-text providers.
package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/service/capture"
)

var (
	// ErrTranscriptionFailed marks a provider or transport failure.
	ErrTranscriptionFailed = errors.New("transcription failed")
	// ErrEmptyTranscription marks a reply with success=false or no text.
	ErrEmptyTranscription = errors.New("transcription empty")
)

// Request is one finished recording submitted for recognition.
type Request struct {
	// AudioBase64 is the standard base64 encoding of the concatenated chunks.
	AudioBase64 string
	Language    locale.Code
	Format      capture.Format
}

// Result mirrors the backend reply shape.
type Result struct {
	Success       bool
	Transcription string
	Language      string
}

// Transcriber converts recorded audio to text.
type Transcriber interface {
	// Transcribe performs a single blocking recognition.
	Transcribe(ctx context.Context, req Request) (Result, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}

// Text extracts usable text from a Transcribe outcome. Any error, a reply
// with Success=false, or blank text yields an error wrapping one of the
// package sentinels.
func Text(res Result, err error) (string, error) {
	if err != nil {
		if errors.Is(err, ErrTranscriptionFailed) || errors.Is(err, ErrEmptyTranscription) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	if !res.Success {
		return "", fmt.Errorf("%w: provider reported failure", ErrEmptyTranscription)
	}
	if strings.TrimSpace(res.Transcription) == "" {
		return "", ErrEmptyTranscription
	}
	return res.Transcription, nil
}
