// Package config loads client configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configuration holds all client settings.
type Configuration struct {
	Service       ServiceConfig
	Backend       BackendConfig
	Recording     RecordingConfig
	STT           STTConfig
	Speech        SpeechConfig
	Language      LanguageConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Archive       ArchiveConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the process.
type ServiceConfig struct {
	Name        string
	Env         string
	Principal   string
	MetricsAddr string
}

// BackendConfig points at the assistant backend.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RecordingConfig bounds recording sessions.
type RecordingConfig struct {
	MaxDuration       time.Duration
	MaxAudioBytes     int64
	SampleRateHz      int
	FramesPerBuffer   int
	TranscribeTimeout time.Duration
	FallbackKey       string
}

// STTConfig selects the transcription provider.
type STTConfig struct {
	Provider      string // mock, backend, google, openai
	LanguageCode  string
	AudioEncoding string
	GoogleModel   string
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
}

// SpeechConfig controls spoken output.
type SpeechConfig struct {
	LocalEnabled    bool
	PlaybackEnabled bool
	Timeout         time.Duration
}

// LanguageConfig holds the initial language.
type LanguageConfig struct {
	Default string
}

// RedisConfig configures the translation cache and preference store.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// KafkaConfig configures event publishing.
type KafkaConfig struct {
	Enabled     bool
	Brokers     []string
	TopicQuery  string
	TopicSpeech string
	Principal   string
}

// ArchiveConfig configures recording uploads.
type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

// Load reads a .env file when present, then the environment.
func Load() *Configuration {
	_ = godotenv.Load()

	principal := envOrDefault("SERVICE_PRINCIPAL", "kisan-voice-client")

	return &Configuration{
		Service: ServiceConfig{
			Name:        envOrDefault("SERVICE_NAME", "kisan-voice-client"),
			Env:         envOrDefault("ENV", "prod"),
			Principal:   principal,
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
		Backend: BackendConfig{
			BaseURL: envOrDefault("BACKEND_URL", "http://localhost:8000"),
			Timeout: envOrDefaultDuration("BACKEND_TIMEOUT", 15*time.Second),
		},
		Recording: RecordingConfig{
			MaxDuration:       envOrDefaultDuration("RECORDING_MAX_DURATION", 5*time.Second),
			MaxAudioBytes:     int64(envOrDefaultInt("RECORDING_MAX_AUDIO_BYTES", 1024*1024)),
			SampleRateHz:      envOrDefaultInt("RECORDING_SAMPLE_RATE_HZ", 16000),
			FramesPerBuffer:   envOrDefaultInt("RECORDING_FRAMES_PER_BUFFER", 1024),
			TranscribeTimeout: envOrDefaultDuration("RECORDING_TRANSCRIBE_TIMEOUT", 15*time.Second),
			FallbackKey:       envOrDefault("RECORDING_FALLBACK_KEY", "voiceGreeting"),
		},
		STT: STTConfig{
			Provider:      envOrDefault("STT_PROVIDER", "mock"),
			LanguageCode:  envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			AudioEncoding: envOrDefault("STT_AUDIO_ENCODING", "LINEAR16"),
			GoogleModel:   envOrDefault("STT_GOOGLE_MODEL", ""),
			OpenAIKey:     envOrDefault("OPENAI_API_KEY", ""),
			OpenAIBaseURL: envOrDefault("OPENAI_BASE_URL", ""),
			OpenAIModel:   envOrDefault("OPENAI_STT_MODEL", "whisper-1"),
		},
		Speech: SpeechConfig{
			LocalEnabled:    envOrDefaultBool("SPEECH_LOCAL_ENABLED", true),
			PlaybackEnabled: envOrDefaultBool("SPEECH_PLAYBACK_ENABLED", true),
			Timeout:         envOrDefaultDuration("SPEECH_TIMEOUT", 30*time.Second),
		},
		Language: LanguageConfig{
			Default: envOrDefault("LANGUAGE_DEFAULT", "hi"),
		},
		Redis: RedisConfig{
			Enabled:  envOrDefaultBool("REDIS_ENABLED", false),
			Addr:     envOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: envOrDefault("REDIS_PASSWORD", ""),
			DB:       envOrDefaultInt("REDIS_DB", 0),
			Prefix:   envOrDefault("REDIS_PREFIX", "kisan:"),
			TTL:      envOrDefaultDuration("REDIS_TTL", 7*24*time.Hour),
		},
		Kafka: KafkaConfig{
			Enabled:     envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:     envOrDefaultList("KAFKA_BROKERS", []string{"localhost:9092"}),
			TopicQuery:  envOrDefault("KAFKA_TOPIC_QUERY", "kisan.voice.query.v1"),
			TopicSpeech: envOrDefault("KAFKA_TOPIC_SPEECH", "kisan.voice.speech.v1"),
			Principal:   envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Archive: ArchiveConfig{
			Enabled:   envOrDefaultBool("ARCHIVE_ENABLED", false),
			Endpoint:  envOrDefault("ARCHIVE_ENDPOINT", "localhost:9000"),
			AccessKey: envOrDefault("ARCHIVE_ACCESS_KEY", ""),
			SecretKey: envOrDefault("ARCHIVE_SECRET_KEY", ""),
			Bucket:    envOrDefault("ARCHIVE_BUCKET", "kisan-voice"),
			UseSSL:    envOrDefaultBool("ARCHIVE_USE_SSL", false),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
