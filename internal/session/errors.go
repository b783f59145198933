package session

import "errors"

var (
	// ErrNotFound возвращается, когда сессия отсутствует в кэше или истек её TTL.
	// Нечитаемая (поврежденная) запись считается отсутствующей.
	ErrNotFound = errors.New("сессия не найдена или истекла")

	// ErrAlreadyComplete возвращается при попытке изменить завершенное интервью.
	ErrAlreadyComplete = errors.New("интервью уже завершено")

	// ErrStoreUnavailable возвращается, когда кэш недоступен.
	// Для чтения вызывающий код деградирует до ErrNotFound, для записи — это фатально.
	ErrStoreUnavailable = errors.New("хранилище сессий недоступно")
)
