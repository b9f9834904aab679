package i18n

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/observability/logging"
	"kisan-voice-client/internal/observability/metrics"
	"kisan-voice-client/internal/schema"
)

// ErrTranslationFetch marks a reload that left the resolver unchanged.
var ErrTranslationFetch = errors.New("translation fetch failed")

// ErrReloadSuperseded is returned when a later reload for another language
// started before this one finished. The fetched set is cached but not loaded.
var ErrReloadSuperseded = errors.New("translation reload superseded")

// Fetcher retrieves the dynamic translation set for a language.
type Fetcher interface {
	FetchTranslations(ctx context.Context, lang locale.Code) (map[string]string, error)
}

// Cache persists the last good set per language across restarts.
type Cache interface {
	LoadTranslations(ctx context.Context, lang string) (map[string]string, error)
	SaveTranslations(ctx context.Context, lang string, set map[string]string) error
}

// Reloader is the single writer of the resolver's dynamic tier.
type Reloader struct {
	resolver  *Resolver
	fetcher   Fetcher
	cache     Cache
	validator *schema.Validator
	timeout   time.Duration
	group     singleflight.Group
	writeMu   sync.Mutex
	target    locale.Code // guarded by writeMu
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewReloader creates a reloader. cache may be nil.
func NewReloader(resolver *Resolver, fetcher Fetcher, cache Cache, timeout time.Duration) *Reloader {
	return &Reloader{
		resolver:  resolver,
		fetcher:   fetcher,
		cache:     cache,
		validator: schema.New(),
		timeout:   timeout,
		metrics:   metrics.DefaultMetrics,
		log:       logging.WithComponent("i18n.reloader"),
	}
}

// Reload fetches the set for lang and swaps it in. On any failure the
// resolver keeps serving whatever it had and the error wraps
// ErrTranslationFetch. Concurrent reloads of one language share a fetch.
// Only the most recently requested language is ever swapped in.
func (rl *Reloader) Reload(ctx context.Context, lang locale.Code) error {
	rl.writeMu.Lock()
	rl.target = lang
	rl.writeMu.Unlock()

	_, err, shared := rl.group.Do(string(lang), func() (any, error) {
		return nil, rl.reload(ctx, lang)
	})
	if shared {
		rl.log.Debug().Str("language", string(lang)).Msg("Reload coalesced with in-flight fetch")
	}
	return err
}

func (rl *Reloader) reload(ctx context.Context, lang locale.Code) error {
	if rl.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rl.timeout)
		defer cancel()
	}

	set, err := rl.fetcher.FetchTranslations(ctx, lang)
	if err == nil {
		err = rl.validator.ValidateTranslations(set)
	}
	rl.metrics.RecordTranslationReload(string(lang), err)
	if err != nil {
		rl.log.Warn().
			Err(err).
			Str("language", string(lang)).
			Bool("dynamicRetained", rl.resolver.HasDynamic(lang)).
			Msg("Translation reload failed, keeping previous set")
		return fmt.Errorf("%w: %s: %v", ErrTranslationFetch, lang, err)
	}

	if rl.cache != nil {
		if err := rl.cache.SaveTranslations(ctx, string(lang), set); err != nil {
			rl.log.Warn().Err(err).Str("language", string(lang)).Msg("Failed to cache translation set")
		}
	}

	rl.writeMu.Lock()
	target := rl.target
	if target == lang {
		rl.resolver.Load(lang, TranslationSet(set))
	}
	rl.writeMu.Unlock()

	if target != lang {
		rl.log.Debug().
			Str("language", string(lang)).
			Str("target", string(target)).
			Msg("Discarding translation set for superseded language")
		return fmt.Errorf("%w: %s replaced by %s", ErrReloadSuperseded, lang, target)
	}
	rl.log.Info().
		Str("language", string(lang)).
		Int("keys", len(set)).
		Msg("Dynamic translation set loaded")
	return nil
}

// Restore loads the cached set for lang when no dynamic set is loaded for
// it yet. It never overwrites a dynamic set for the same language, and it
// does nothing once a reload for another language has been requested.
func (rl *Reloader) Restore(ctx context.Context, lang locale.Code) bool {
	if rl.cache == nil {
		return false
	}

	set, err := rl.cache.LoadTranslations(ctx, string(lang))
	if err != nil || len(set) == 0 {
		return false
	}
	if err := rl.validator.ValidateTranslations(set); err != nil {
		rl.log.Warn().Err(err).Str("language", string(lang)).Msg("Discarding invalid cached translation set")
		return false
	}

	rl.writeMu.Lock()
	defer rl.writeMu.Unlock()
	if rl.resolver.HasDynamic(lang) || (rl.target != "" && rl.target != lang) {
		return false
	}
	rl.resolver.Load(lang, TranslationSet(set))
	rl.log.Info().Str("language", string(lang)).Int("keys", len(set)).Msg("Translation set restored from cache")
	return true
}
