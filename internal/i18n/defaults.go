package i18n

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"kisan-voice-client/internal/locale"
)

// UI string keys shared by the client.
const (
	KeyVoiceGreeting = "voiceGreeting"
	KeyAnalyzing     = "analyzing"
	KeySpeak         = "speak"
	KeyLoading       = "loading"
	KeyAppTitle      = "appTitle"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ParseBuiltin decodes a YAML document of language -> key -> string.
// Every top-level language must be in the locale table.
func ParseBuiltin(data []byte) (map[locale.Code]TranslationSet, error) {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode built-in translations: %w", err)
	}

	out := make(map[locale.Code]TranslationSet, len(raw))
	for lang, set := range raw {
		code, err := locale.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("built-in translations: %w", err)
		}
		out[code] = TranslationSet(set)
	}
	return out, nil
}

// BuiltinSets returns the compiled-in translation sets.
func BuiltinSets() map[locale.Code]TranslationSet {
	sets, err := ParseBuiltin(defaultsYAML)
	if err != nil {
		// The document is embedded at build time.
		panic(err)
	}
	return sets
}
