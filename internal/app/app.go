package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"kisan-voice-client/internal/archive"
	"kisan-voice-client/internal/backend"
	"kisan-voice-client/internal/config"
	"kisan-voice-client/internal/events"
	"kisan-voice-client/internal/i18n"
	"kisan-voice-client/internal/locale"
	"kisan-voice-client/internal/observability/logging"
	"kisan-voice-client/internal/service/capture"
	"kisan-voice-client/internal/service/session"
	"kisan-voice-client/internal/service/speech"
	"kisan-voice-client/internal/service/speech/edge"
	"kisan-voice-client/internal/service/stt"
	"kisan-voice-client/internal/service/stt/google"
	"kisan-voice-client/internal/service/stt/mock"
	sttopenai "kisan-voice-client/internal/service/stt/openai"
	"kisan-voice-client/internal/store"
)

// ErrUnknownProvider is returned for an unsupported STT_PROVIDER.
var ErrUnknownProvider = errors.New("unknown STT provider")

// Label keys shown while a recording is in progress.
const (
	ListeningKey     = "analyzing"
	ListeningDefault = "Listening..."
)

// Application holds process-wide state for the client.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration

	Store       store.Store
	Resolver    *i18n.Resolver
	Reloader    *i18n.Reloader
	Backend     *backend.Client
	Transcriber stt.Transcriber
	Publisher   *events.Publisher
	Archiver    *archive.Archiver

	language    atomic.Value // locale.Code
	defaultLang locale.Code
	ready       atomic.Bool
	mu          sync.RWMutex
	languages   []locale.Entry
	closers     []io.Closer
}

// New constructs an Application and its collaborators from cfg.
func New(ctx context.Context, cfg *config.Configuration) (*Application, error) {
	a := &Application{
		Cfg:       cfg,
		languages: locale.Entries(),
	}
	a.setupLogger()

	appLogger := a.Logger.With().
		Str("method", "New").
		Logger()

	def := locale.Code(cfg.Language.Default)
	if def == "" {
		def = locale.Hindi
	}
	if err := locale.Validate(locale.English, locale.Hindi, def); err != nil {
		return nil, fmt.Errorf("locale table: %w", err)
	}
	a.defaultLang = locale.MustLookup(def).Code

	st, err := store.New(storeConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	a.Store = st

	a.Backend = backend.New(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	})
	a.Resolver = i18n.NewDefaultResolver()
	a.Reloader = i18n.NewReloader(a.Resolver, a.Backend, a.Store, cfg.Backend.Timeout)

	a.Transcriber, err = a.newTranscriber(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	a.Publisher = events.New(&events.Config{
		Enabled:     cfg.Kafka.Enabled,
		Brokers:     cfg.Kafka.Brokers,
		TopicQuery:  cfg.Kafka.TopicQuery,
		TopicSpeech: cfg.Kafka.TopicSpeech,
		Principal:   cfg.Kafka.Principal,
	})

	a.Archiver, err = archive.New(archive.Config{
		Enabled:   cfg.Archive.Enabled,
		Endpoint:  cfg.Archive.Endpoint,
		AccessKey: cfg.Archive.AccessKey,
		SecretKey: cfg.Archive.SecretKey,
		Bucket:    cfg.Archive.Bucket,
		UseSSL:    cfg.Archive.UseSSL,
	})
	if err != nil {
		a.Shutdown()
		return nil, err
	}

	a.language.Store(a.defaultLanguage())

	appLogger.Info().
		Str("sttProvider", a.Transcriber.Name()).
		Str("backend", cfg.Backend.BaseURL).
		Msg("Kisan voice client application created")
	return a, nil
}

func storeConfig(cfg *config.Configuration) store.Config {
	sc := store.Config{Driver: store.DriverMemory, TTL: cfg.Redis.TTL}
	if cfg.Redis.Enabled {
		sc.Driver = store.DriverRedis
		sc.Redis = store.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}
	}
	return sc
}

func (a *Application) newTranscriber(ctx context.Context) (stt.Transcriber, error) {
	c := a.Cfg.STT
	switch strings.ToLower(c.Provider) {
	case mock.ProviderName, "":
		return mock.New(), nil
	case backend.ProviderName:
		return a.Backend, nil
	case google.ProviderName:
		t, err := google.New(ctx, google.Config{
			LanguageCode:  c.LanguageCode,
			SampleRateHz:  a.Cfg.Recording.SampleRateHz,
			AudioEncoding: c.AudioEncoding,
			Model:         c.GoogleModel,
		})
		if err != nil {
			return nil, fmt.Errorf("google stt: %w", err)
		}
		a.closers = append(a.closers, t)
		return t, nil
	case sttopenai.ProviderName:
		return sttopenai.New(sttopenai.Config{
			APIKey:  c.OpenAIKey,
			BaseURL: c.OpenAIBaseURL,
			Model:   c.OpenAIModel,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, c.Provider)
	}
}

// setupLogger configures zerolog for the client.
func (a *Application) setupLogger() {
	lc := logging.DefaultConfig()
	if obs := a.Cfg.Observability; obs.LogLevel != "" {
		lc.Level = obs.LogLevel
	}
	if obs := a.Cfg.Observability; obs.LogFormat != "" {
		lc.Format = obs.LogFormat
	}
	if envLevel := os.Getenv("ZEROLOG_LOG_LEVEL"); envLevel != "" {
		lc.Level = strings.ToLower(envLevel)
	}
	if a.Cfg.Service.Env == "dev" {
		lc.Format = "console"
	}
	logging.Init(lc)

	a.Logger = logging.Logger().With().
		Str("service", a.Cfg.Service.Name).
		Str("component", "application").
		Logger()

	a.Logger.Info().
		Str("logLevel", zerolog.GlobalLevel().String()).
		Str("environment", a.Cfg.Service.Env).
		Msg("Logger setup completed")
}

func (a *Application) defaultLanguage() locale.Code {
	return a.defaultLang
}

// restoreLanguage reads the saved preference. Missing or unknown codes
// yield the configured default.
func (a *Application) restoreLanguage(ctx context.Context) locale.Code {
	raw, err := a.Store.LoadLanguage(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.Logger.Warn().Err(err).Msg("Failed to load language preference")
		}
		return a.defaultLanguage()
	}
	code, err := locale.Parse(raw)
	if err != nil {
		a.Logger.Warn().Str("stored", raw).Msg("Ignoring unsupported stored language")
		return a.defaultLanguage()
	}
	return code
}

// Start restores the language preference and warms the translation and
// language caches before serving.
func (a *Application) Start(ctx context.Context) error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	lang := a.restoreLanguage(ctx)
	a.language.Store(lang)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if a.Reloader.Restore(gctx, lang) {
			startLogger.Debug().Str("language", string(lang)).Msg("Restored cached translations")
		}
		if err := a.Reloader.Reload(gctx, lang); err != nil && !errors.Is(err, i18n.ErrReloadSuperseded) {
			startLogger.Warn().Err(err).Str("language", string(lang)).Msg("Translation reload failed, serving cached and built-in strings")
		}
		return nil
	})
	g.Go(func() error {
		langs := a.Backend.SupportedLanguages(gctx)
		a.mu.Lock()
		a.languages = langs
		a.mu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	a.ready.Store(true)
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Str("language", string(lang)).
		Int("languages", len(a.Languages())).
		Msg("Kisan voice client started")
	return nil
}

// Ready reports whether Start has completed.
func (a *Application) Ready() bool {
	return a.ready.Load()
}

// Language returns the current language.
func (a *Application) Language() locale.Code {
	return a.language.Load().(locale.Code)
}

// SetLanguage switches the current language, saves the preference and
// reloads the dynamic translation tier. A failed reload is not an error:
// the resolver keeps serving the built-in strings.
func (a *Application) SetLanguage(ctx context.Context, code locale.Code) error {
	if !locale.IsSupported(code) {
		return fmt.Errorf("%w: %q", locale.ErrUnknownLanguage, code)
	}
	a.language.Store(code)

	if err := a.Store.SaveLanguage(ctx, string(code)); err != nil {
		a.Logger.Warn().Err(err).Str("language", string(code)).Msg("Failed to save language preference")
	}
	if err := a.Reloader.Reload(ctx, code); err != nil && !errors.Is(err, i18n.ErrReloadSuperseded) {
		a.Logger.Warn().Err(err).Str("language", string(code)).Msg("Translation reload failed")
	}
	return nil
}

// Languages returns the languages offered for selection.
func (a *Application) Languages() []locale.Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]locale.Entry, len(a.languages))
	copy(out, a.languages)
	return out
}

// Resolve looks up a UI string.
func (a *Application) Resolve(lang locale.Code, key, hardDefault string) string {
	return a.Resolver.Resolve(lang, key, hardDefault)
}

// Translate renders free text in the current language through the backend.
func (a *Application) Translate(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Cfg.Backend.Timeout)
	defer cancel()
	return a.Backend.Translate(ctx, text, a.Language())
}

// ResolveLabel prefers a label the backend already localized.
func (a *Application) ResolveLabel(lang locale.Code, backendValue, key, hardDefault string) string {
	return a.Resolver.ResolveLabel(lang, backendValue, key, hardDefault)
}

// ListeningLabel is the text shown while capturing.
func (a *Application) ListeningLabel() string {
	return a.Resolver.Resolve(a.Language(), ListeningKey, ListeningDefault)
}

// NewRecorder builds a recorder over device with the configured limits.
func (a *Application) NewRecorder(device capture.Device, format capture.Format, opts ...session.Option) *session.Recorder {
	rc := a.Cfg.Recording
	cfg := session.Config{
		Limits: session.Limits{
			MaxDuration:   rc.MaxDuration,
			MaxAudioBytes: rc.MaxAudioBytes,
		},
		Format:            format,
		TranscribeTimeout: rc.TranscribeTimeout,
		FallbackKey:       rc.FallbackKey,
	}
	base := []session.Option{
		session.WithPublisher(a.Publisher),
		session.WithArchiver(a.Archiver),
	}
	return session.NewRecorder(cfg, device, a.Transcriber, a.Resolver, append(base, opts...)...)
}

// NewDispatcher builds a speech dispatcher that plays through player.
// player may be nil when there is no audio output.
func (a *Application) NewDispatcher(player speech.Player) *speech.Dispatcher {
	var local speech.Synthesizer
	if player != nil {
		local = edge.New(player, a.Cfg.Speech.LocalEnabled)
	}
	return speech.NewDispatcher(local, a.Backend, player,
		speech.WithPublisher(a.Publisher),
		speech.WithTimeout(a.Cfg.Speech.Timeout),
	)
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	shutdownLogger.Info().Msg("Kisan voice client shutting down")

	if a.Archiver != nil {
		a.Archiver.Close()
	}
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			shutdownLogger.Warn().Err(err).Msg("Error closing publisher")
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			shutdownLogger.Warn().Err(err).Msg("Error closing transcriber")
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			shutdownLogger.Warn().Err(err).Msg("Error closing store")
		}
	}
}
