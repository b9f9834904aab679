// Package locale holds the immutable table of supported languages.
package locale

import (
	"errors"
	"fmt"
)

// Code is a supported language code.
type Code string

const (
	English   Code = "en"
	Hindi     Code = "hi"
	Marathi   Code = "mr"
	Bengali   Code = "bn"
	Gujarati  Code = "gu"
	Tamil     Code = "ta"
	Telugu    Code = "te"
	Kannada   Code = "kn"
	Malayalam Code = "ml"
	Punjabi   Code = "pa"
	Assamese  Code = "as"
	Odia      Code = "or"
	Urdu      Code = "ur"
	Sanskrit  Code = "sa"
	Nepali    Code = "ne"
	Manipuri  Code = "mni"
)

// DefaultSpeechTag is used when an entry carries no speech tag.
const DefaultSpeechTag = "en-US"

// Entry describes one supported language.
type Entry struct {
	Code       Code
	Name       string
	NativeName string
	// SpeechTag is the BCP-47 tag handed to speech synthesis. Empty means
	// no dedicated voice exists and DefaultSpeechTag applies.
	SpeechTag string
}

// ErrUnknownLanguage is returned for codes outside the supported set.
var ErrUnknownLanguage = errors.New("unknown language code")

var entries = []Entry{
	{English, "English", "English", "en-US"},
	{Hindi, "Hindi", "हिंदी", "hi-IN"},
	{Marathi, "Marathi", "मराठी", "mr-IN"},
	{Bengali, "Bengali", "বাংলা", "bn-IN"},
	{Gujarati, "Gujarati", "ગુજરાતી", "gu-IN"},
	{Tamil, "Tamil", "தமிழ்", "ta-IN"},
	{Telugu, "Telugu", "తెలుగు", "te-IN"},
	{Kannada, "Kannada", "ಕನ್ನಡ", "kn-IN"},
	{Malayalam, "Malayalam", "മലയാളം", "ml-IN"},
	{Punjabi, "Punjabi", "ਪੰਜਾਬੀ", "pa-IN"},
	{Assamese, "Assamese", "অসমীয়া", "as-IN"},
	{Odia, "Odia", "ଓଡ଼ିଆ", "or-IN"},
	{Urdu, "Urdu", "اردو", "ur-IN"},
	{Sanskrit, "Sanskrit", "संस्कृत", ""},
	{Nepali, "Nepali", "नेपाली", "ne-NP"},
	{Manipuri, "Manipuri", "ꯃꯤꯇꯩꯂꯣꯟ", ""},
}

var byCode = func() map[Code]Entry {
	m := make(map[Code]Entry, len(entries))
	for _, e := range entries {
		m[e.Code] = e
	}
	return m
}()

// Lookup returns the entry for code.
func Lookup(code Code) (Entry, bool) {
	e, ok := byCode[code]
	return e, ok
}

// MustLookup returns the entry for code and panics when it is missing.
// Use it for languages the application cannot run without, such as the
// configured default.
func MustLookup(code Code) Entry {
	e, ok := byCode[code]
	if !ok {
		panic(fmt.Sprintf("locale: no table entry for required language %q", code))
	}
	return e
}

// Parse converts a raw string into a supported Code.
func Parse(raw string) (Code, error) {
	c := Code(raw)
	if _, ok := byCode[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, raw)
	}
	return c, nil
}

// IsSupported reports whether code is in the table.
func IsSupported(code Code) bool {
	_, ok := byCode[code]
	return ok
}

// Codes returns every supported code in table order.
func Codes() []Code {
	out := make([]Code, len(entries))
	for i, e := range entries {
		out[i] = e.Code
	}
	return out
}

// Entries returns a copy of the table in display order.
func Entries() []Entry {
	return append([]Entry(nil), entries...)
}

// SpeechTag returns the synthesis tag for code, or DefaultSpeechTag when the
// code is unknown or has no dedicated voice.
func SpeechTag(code Code) string {
	if e, ok := byCode[code]; ok && e.SpeechTag != "" {
		return e.SpeechTag
	}
	return DefaultSpeechTag
}

// Validate checks that every listed code has exactly one entry and that the
// required codes are present.
func Validate(required ...Code) error {
	seen := make(map[Code]bool, len(entries))
	for _, e := range entries {
		if seen[e.Code] {
			return fmt.Errorf("locale: duplicate entry for %q", e.Code)
		}
		seen[e.Code] = true
		if e.Name == "" || e.NativeName == "" {
			return fmt.Errorf("locale: incomplete entry for %q", e.Code)
		}
	}
	for _, c := range required {
		if !seen[c] {
			return fmt.Errorf("locale: required language %q missing: %w", c, ErrUnknownLanguage)
		}
	}
	return nil
}
