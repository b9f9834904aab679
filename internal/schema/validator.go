// Package schema validates payloads crossing the client boundary: translation
// sets fetched from the backend and events leaving for Kafka.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"kisan-voice-client/internal/models"
)

var (
	ErrEmptyTranslationSet = errors.New("translation set is empty")
	ErrInvalidKey          = errors.New("translation key is invalid")
	ErrInvalidValue        = errors.New("translation value is empty")
	ErrTooManyKeys         = errors.New("translation set exceeds key limit")
	ErrMissingField        = errors.New("event field is missing")
	ErrUnsupportedPayload  = errors.New("unsupported payload type")
)

// DefaultMaxKeys bounds a fetched translation set.
const DefaultMaxKeys = 2000

type Validator struct {
	maxKeys int
}

func New() *Validator {
	return &Validator{maxKeys: DefaultMaxKeys}
}

// NewWithMaxKeys creates a validator with a custom key limit.
func NewWithMaxKeys(maxKeys int) *Validator {
	return &Validator{maxKeys: maxKeys}
}

// Validate checks a payload according to its type.
func (v *Validator) Validate(payload any) error {
	switch p := payload.(type) {
	case map[string]string:
		return v.ValidateTranslations(p)
	case models.VoiceQueryEvent:
		return validateVoiceQuery(&p)
	case *models.VoiceQueryEvent:
		return validateVoiceQuery(p)
	case models.SpeechEvent:
		return validateSpeech(&p)
	case *models.SpeechEvent:
		return validateSpeech(p)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedPayload, payload)
	}
}

// ValidateTranslations rejects sets that must not replace a working one.
// A set is accepted or rejected as a whole.
func (v *Validator) ValidateTranslations(set map[string]string) error {
	if len(set) == 0 {
		return ErrEmptyTranslationSet
	}
	if v.maxKeys > 0 && len(set) > v.maxKeys {
		return fmt.Errorf("%w: %d > %d", ErrTooManyKeys, len(set), v.maxKeys)
	}
	for k, val := range set {
		if strings.TrimSpace(k) == "" || strings.ContainsAny(k, " \t\n") {
			return fmt.Errorf("%w: %q", ErrInvalidKey, k)
		}
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("%w: key %q", ErrInvalidValue, k)
		}
	}
	return nil
}

func validateVoiceQuery(e *models.VoiceQueryEvent) error {
	switch {
	case e.SessionID == "":
		return fmt.Errorf("%w: sessionId", ErrMissingField)
	case e.Language == "":
		return fmt.Errorf("%w: language", ErrMissingField)
	case e.Text == "":
		return fmt.Errorf("%w: text", ErrMissingField)
	}
	return nil
}

func validateSpeech(e *models.SpeechEvent) error {
	switch {
	case e.Language == "":
		return fmt.Errorf("%w: language", ErrMissingField)
	case e.Path == "":
		return fmt.Errorf("%w: path", ErrMissingField)
	}
	return nil
}
