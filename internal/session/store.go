package session

import "context"

// Store — key-value хранилище записей сессий с TTL.
// У хранилища нет частичных обновлений: запись всегда заменяется целиком,
// TTL сбрасывается при каждой записи.
type Store interface {
	// Create сохраняет новую запись сессии.
	Create(ctx context.Context, id string, rec *Record) error

	// Get возвращает запись или ErrNotFound, если сессии нет, истек TTL
	// или запись не удалось разобрать. При недоступности кэша — ErrStoreUnavailable.
	Get(ctx context.Context, id string) (*Record, error)

	// Set полностью заменяет запись и сбрасывает TTL.
	Set(ctx context.Context, id string, rec *Record) error

	// Delete удаляет запись. Отсутствующая запись — не ошибка.
	Delete(ctx context.Context, id string) error

	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
}
