package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis constructs a redis-backed store.
func NewRedis(cfg Config) (Store, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "kisan:"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &redisStore{client: client, ttl: ttl, prefix: prefix}, nil
}

func (s *redisStore) languageKey() string {
	return s.prefix + "pref:" + LanguageKey
}

func (s *redisStore) translationsKey(lang string) string {
	return s.prefix + "translations:" + lang
}

func (s *redisStore) LoadLanguage(ctx context.Context) (string, error) {
	code, err := s.client.Get(ctx, s.languageKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return code, nil
}

func (s *redisStore) SaveLanguage(ctx context.Context, code string) error {
	return s.client.Set(ctx, s.languageKey(), code, 0).Err()
}

func (s *redisStore) LoadTranslations(ctx context.Context, lang string) (map[string]string, error) {
	set, err := s.client.HGetAll(ctx, s.translationsKey(lang)).Result()
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, ErrNotFound
	}
	return set, nil
}

// SaveTranslations replaces the cached set wholesale.
func (s *redisStore) SaveTranslations(ctx context.Context, lang string, set map[string]string) error {
	key := s.translationsKey(lang)
	values := make(map[string]interface{}, len(set))
	for k, v := range set {
		values[k] = v
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values)
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	return err
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
