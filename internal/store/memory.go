package store

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu           sync.RWMutex
	language     string
	translations map[string]map[string]string
}

// NewMemory builds an in-memory store. Nothing survives a restart.
func NewMemory() Store {
	return &memoryStore{translations: make(map[string]map[string]string)}
}

func (s *memoryStore) LoadLanguage(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.language == "" {
		return "", ErrNotFound
	}
	return s.language, nil
}

func (s *memoryStore) SaveLanguage(_ context.Context, code string) error {
	s.mu.Lock()
	s.language = code
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) LoadTranslations(_ context.Context, lang string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.translations[lang]
	if !ok {
		return nil, ErrNotFound
	}
	return copySet(set), nil
}

func (s *memoryStore) SaveTranslations(_ context.Context, lang string, set map[string]string) error {
	s.mu.Lock()
	s.translations[lang] = copySet(set)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Close() error {
	return nil
}

func copySet(set map[string]string) map[string]string {
	out := make(map[string]string, len(set))
	for k, v := range set {
		out[k] = v
	}
	return out
}
