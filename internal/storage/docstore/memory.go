package docstore

import (
	"context"
	"sync"
)

// memoryStore — in-memory реализация Store для локальной разработки и тестов.
// Коллекция появляется при первой записи, как в настоящем документном хранилище.
type memoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
	closed      bool
}

// NewMemoryStore возвращает пустое in-memory хранилище без коллекций.
func NewMemoryStore() Store {
	return &memoryStore{
		collections: make(map[string]map[string][]byte),
	}
}

func (s *memoryStore) Get(_ context.Context, collection, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, ok := s.collections[collection]
	if !ok {
		return nil, ErrNotProvisioned
	}
	doc, ok := docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), doc...), nil
}

func (s *memoryStore) Put(_ context.Context, collection, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string][]byte)
		s.collections[collection] = docs
	}
	// Храним копию, чтобы вызывающий код не мутировал документ в хранилище.
	docs[id] = append([]byte(nil), doc...)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, collection, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		return false, ErrNotProvisioned
	}
	if _, exists := docs[id]; !exists {
		return false, nil
	}
	delete(docs, id)
	return true, nil
}

func (s *memoryStore) Find(_ context.Context, collection string, filters ...Filter) ([][]byte, error) {
	s.mu.RLock()
	docs, ok := s.collections[collection]
	if !ok {
		s.mu.RUnlock()
		return nil, ErrNotProvisioned
	}
	snapshot := make([][]byte, 0, len(docs))
	for _, doc := range docs {
		snapshot = append(snapshot, append([]byte(nil), doc...))
	}
	s.mu.RUnlock()

	return filterDocuments(snapshot, filters)
}

func (s *memoryStore) Ping(context.Context) error {
	return nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ Store = (*memoryStore)(nil)
