package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore — хранилище сессий в памяти процесса с той же семантикой TTL,
// что и у Redis. Используется в тестах и как dev-режим без Redis.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	ttl   time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryStore создает in-memory хранилище и запускает фоновую очистку
// истекших записей.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		items: make(map[string]memoryItem),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
	s.startCleanup()
	return s
}

func (s *MemoryStore) startCleanup() {
	interval := s.ttl
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.cleanupExpired()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *MemoryStore) cleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, item := range s.items {
		if now.After(item.expiresAt) {
			delete(s.items, id)
		}
	}
}

// Create сохраняет новую запись сессии.
func (s *MemoryStore) Create(ctx context.Context, id string, rec *Record) error {
	return s.Set(ctx, id, rec)
}

// Get читает запись сессии, лениво удаляя истекшие.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	item, ok := s.items[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(item.expiresAt) {
		s.mu.Lock()
		delete(s.items, id)
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	var rec Record
	if err := json.Unmarshal(item.data, &rec); err != nil {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// Set полностью заменяет запись и сбрасывает TTL.
// Запись хранится сериализованной, как и в Redis, чтобы исключить
// разделяемые ссылки между читателями.
func (s *MemoryStore) Set(ctx context.Context, id string, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = memoryItem{
		data:      data,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

// Delete удаляет запись сессии.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// Ping всегда успешен для in-memory хранилища.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close останавливает фоновую очистку. Повторный вызов безопасен;
// сами записи остаются доступными (ленивое истечение в Get работает).
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	return nil
}
