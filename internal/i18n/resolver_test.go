package i18n

import (
	"sync"
	"testing"

	"kisan-voice-client/internal/locale"
)

func testResolver() *Resolver {
	return NewResolver(map[locale.Code]TranslationSet{
		locale.Hindi:   {"speak": "बोलें", "voiceGreeting": "आपकी आवाज़ सुन ली गई है!"},
		locale.English: {"speak": "Speak"},
	})
}

func TestResolve_DynamicWins(t *testing.T) {
	r := testResolver()
	r.Load(locale.Hindi, TranslationSet{"speak": "बोलिए"})

	if got := r.Resolve(locale.Hindi, "speak", "Speak"); got != "बोलिए" {
		t.Errorf("expected dynamic value, got %s", got)
	}
}

func TestResolve_BuiltinWhenDynamicMissesKey(t *testing.T) {
	r := testResolver()
	r.Load(locale.Hindi, TranslationSet{"back": "पीछे"})

	if got := r.Resolve(locale.Hindi, "speak", "Speak"); got != "बोलें" {
		t.Errorf("expected built-in value, got %s", got)
	}
}

func TestResolve_DynamicIgnoredForOtherLanguage(t *testing.T) {
	r := testResolver()
	r.Load(locale.Tamil, TranslationSet{"speak": "பேசுங்கள்"})

	if got := r.Resolve(locale.Hindi, "speak", "Speak"); got != "बोलें" {
		t.Errorf("expected built-in Hindi value, got %s", got)
	}
}

func TestResolve_HardDefault(t *testing.T) {
	r := testResolver()

	tests := []struct {
		name string
		lang locale.Code
		key  string
	}{
		{"missing key", locale.Hindi, "nope"},
		{"missing language", locale.Bengali, "speak"},
		{"empty key", locale.English, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.lang, tt.key, "fallback text"); got != "fallback text" {
				t.Errorf("expected hard default, got %s", got)
			}
		})
	}
}

func TestResolve_NoMergeAcrossTiers(t *testing.T) {
	r := testResolver()
	r.Load(locale.Hindi, TranslationSet{"speak": ""})

	// an explicit empty dynamic value is still the dynamic answer
	if got := r.Resolve(locale.Hindi, "speak", "Speak"); got != "" {
		t.Errorf("expected empty dynamic value, got %q", got)
	}
}

func TestResolveLabel(t *testing.T) {
	r := testResolver()

	if got := r.ResolveLabel(locale.Hindi, "गेहूं", "wheat", "Wheat"); got != "गेहूं" {
		t.Errorf("expected backend label, got %s", got)
	}
	if got := r.ResolveLabel(locale.Hindi, "", "speak", "Speak"); got != "बोलें" {
		t.Errorf("expected built-in value, got %s", got)
	}
	if got := r.ResolveLabel(locale.Hindi, "", "wheat", "Wheat"); got != "Wheat" {
		t.Errorf("expected hard default, got %s", got)
	}
}

func TestLoad_CopiesInput(t *testing.T) {
	r := testResolver()
	set := TranslationSet{"speak": "one"}
	r.Load(locale.Hindi, set)
	set["speak"] = "two"

	if got := r.Resolve(locale.Hindi, "speak", ""); got != "one" {
		t.Errorf("expected loaded copy to be unaffected, got %s", got)
	}
}

func TestLoad_ReplacesWholesale(t *testing.T) {
	r := testResolver()
	r.Load(locale.Hindi, TranslationSet{"a": "1", "b": "2"})
	r.Load(locale.Hindi, TranslationSet{"a": "3"})

	if got := r.Resolve(locale.Hindi, "b", "none"); got != "none" {
		t.Errorf("expected key from previous set to be gone, got %s", got)
	}

	lang, n, ok := r.Dynamic()
	if !ok || lang != locale.Hindi || n != 1 {
		t.Errorf("expected hi/1 dynamic set, got %s/%d/%v", lang, n, ok)
	}
}

func TestClear(t *testing.T) {
	r := testResolver()
	r.Load(locale.Hindi, TranslationSet{"speak": "x"})
	r.Clear()

	if r.HasDynamic(locale.Hindi) {
		t.Error("expected no dynamic set after Clear")
	}
}

func TestResolve_ConcurrentReadersDuringLoad(t *testing.T) {
	r := testResolver()
	a := TranslationSet{"k1": "a", "k2": "a"}
	b := TranslationSet{"k1": "b", "k2": "b"}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if j%2 == 0 {
					r.Load(locale.Hindi, a)
				} else {
					r.Load(locale.Hindi, b)
				}
			}
		}()
	}

	for i := 0; i < 1000; i++ {
		d := r.dynamic.Load()
		if d == nil {
			continue
		}
		if d.values["k1"] != d.values["k2"] {
			t.Fatalf("observed partially updated set: %v", d.values)
		}
	}
	wg.Wait()
}

func TestBuiltinSets(t *testing.T) {
	sets := BuiltinSets()

	for _, lang := range []locale.Code{"en", "hi", "mr", "gu", "ta", "te", "kn", "pa"} {
		set, ok := sets[lang]
		if !ok {
			t.Errorf("expected built-in set for %s", lang)
			continue
		}
		if set[KeyVoiceGreeting] == "" {
			t.Errorf("expected %s in %s set", KeyVoiceGreeting, lang)
		}
	}

	if sets[locale.English][KeyVoiceGreeting] != "Voice input received!" {
		t.Errorf("unexpected English greeting: %s", sets[locale.English][KeyVoiceGreeting])
	}
}

func TestParseBuiltin_UnknownLanguage(t *testing.T) {
	_, err := ParseBuiltin([]byte("xx:\n  speak: hi\n"))
	if err == nil {
		t.Error("expected error for language outside the table")
	}
}
