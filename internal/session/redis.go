package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisStore хранит записи сессий в Redis с TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig содержит параметры подключения к Redis.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisStore создает хранилище сессий поверх Redis.
func NewRedisStore(cfg RedisConfig, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return keyPrefix + id
}

// Create сохраняет новую запись сессии с TTL.
func (s *RedisStore) Create(ctx context.Context, id string, rec *Record) error {
	return s.Set(ctx, id, rec)
}

// Get читает запись сессии.
// Отсутствие ключа и нечитаемая запись считаются ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		// Поврежденная запись невосстановима — эквивалент отсутствующей.
		log.Printf("сессия %s: нечитаемая запись в кэше: %v", id, err)
		return nil, ErrNotFound
	}
	return &rec, nil
}

// Set полностью заменяет запись и сбрасывает TTL.
func (s *RedisStore) Set(ctx context.Context, id string, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сессии: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Delete удаляет запись сессии.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ping проверяет соединение с Redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Close закрывает соединение с Redis.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
