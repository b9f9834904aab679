// Package edge synthesizes speech with Microsoft Edge neural voices.
package edge

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/wujunwei928/edge-tts-go/edge_tts"

	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/service/speech"
)

// Voices maps speech tags to Edge voices.
var Voices = map[string]string{
	"en-US": "en-US-AriaNeural",
	"hi-IN": "hi-IN-SwaraNeural",
	"mr-IN": "mr-IN-AarohiNeural",
	"bn-IN": "bn-IN-TanishaaNeural",
	"gu-IN": "gu-IN-DhwaniNeural",
	"ta-IN": "ta-IN-PallaviNeural",
	"te-IN": "te-IN-ShrutiNeural",
	"kn-IN": "kn-IN-SapnaNeural",
	"ml-IN": "ml-IN-SobhanaNeural",
	"pa-IN": "pa-IN-OjasNeural",
	"as-IN": "as-IN-YashicaNeural",
	"or-IN": "or-IN-SubhasiniNeural",
	"ur-IN": "ur-IN-GulNeural",
	"ne-NP": "ne-NP-HemkalaNeural",
}

// VoiceFor returns the Edge voice for tag, or the default English voice.
func VoiceFor(tag string) string {
	if v, ok := Voices[tag]; ok {
		return v
	}
	return Voices[locale.DefaultSpeechTag]
}

// synthesizeFunc turns text into encoded audio. Replaced in tests.
type synthesizeFunc func(voice, text string) ([]byte, error)

func edgeSynthesize(voice, text string) ([]byte, error) {
	c, err := edge_tts.NewCommunicate(text, edge_tts.SetVoice(voice))
	if err != nil {
		return nil, fmt.Errorf("create communicator: %w", err)
	}
	return c.Stream()
}

// Synthesizer implements speech.Synthesizer.
type Synthesizer struct {
	player     speech.Player
	synthesize synthesizeFunc
	enabled    atomic.Bool
}

// New creates a synthesizer that plays through player.
func New(player speech.Player, enabled bool) *Synthesizer {
	s := &Synthesizer{player: player, synthesize: edgeSynthesize}
	s.enabled.Store(enabled && player != nil)
	return s
}

// SetEnabled toggles local synthesis at runtime.
func (s *Synthesizer) SetEnabled(on bool) {
	s.enabled.Store(on && s.player != nil)
}

// Available implements speech.Synthesizer.
func (s *Synthesizer) Available() bool {
	return s.enabled.Load()
}

// Speak implements speech.Synthesizer.
func (s *Synthesizer) Speak(ctx context.Context, text, tag string) error {
	type result struct {
		audio []byte
		err   error
	}
	ch := make(chan result, 1)
	voice := VoiceFor(tag)
	go func() {
		audio, err := s.synthesize(voice, text)
		ch <- result{audio, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return fmt.Errorf("%w: edge %s: %v", speech.ErrSynthesis, voice, r.err)
		}
		return s.player.Play(ctx, r.audio)
	case <-ctx.Done():
		return ctx.Err()
	}
}
