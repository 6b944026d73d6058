package docstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore is a non-durable Store for tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[key]
	if !ok {
		return Document{}, ErrNotFound
	}
	doc.Data = append(json.RawMessage(nil), doc.Data...)
	return doc, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, data json.RawMessage, expectedVersion int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.docs[key].Version
	if current != expectedVersion {
		return 0, &ConflictError{Key: key, Expected: expectedVersion, Current: current}
	}
	return s.put(key, data, current+1), nil
}

func (s *MemoryStore) Force(_ context.Context, key string, data json.RawMessage) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.put(key, data, s.docs[key].Version+1), nil
}

func (s *MemoryStore) put(key string, data json.RawMessage, version int64) int64 {
	s.docs[key] = Document{
		Key:       key,
		Data:      append(json.RawMessage(nil), data...),
		Version:   version,
		UpdatedAt: time.Now().UTC(),
	}
	return version
}

func (s *MemoryStore) Close() error {
	return nil
}
