// Package store persists the language preference and the last good
// translation set per language.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// LanguageKey is the preference key holding the selected language.
const LanguageKey = "kisanAiLanguage"

// ErrNotFound is returned when nothing is stored under a key.
var ErrNotFound = errors.New("not found")

// Store is the client's key/value persistence.
type Store interface {
	LoadLanguage(ctx context.Context) (string, error)
	SaveLanguage(ctx context.Context, code string) error
	LoadTranslations(ctx context.Context, lang string) (map[string]string, error)
	SaveTranslations(ctx context.Context, lang string, set map[string]string) error
	Close() error
}

// Driver identifiers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config selects and tunes a store.
type Config struct {
	Driver string
	// TTL bounds how long cached translation sets live. The language
	// preference never expires.
	TTL   time.Duration
	Redis RedisConfig
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// New creates a store based on the provided configuration.
func New(cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}
